package record_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"staffdesk/internal/core/id"
	"staffdesk/internal/domain/hr/department"
	"staffdesk/internal/infrastructure/storage/postgres"
)

// DepartmentRepo implements department.Repository.
type DepartmentRepo struct {
	*BaseRecordRepo[*department.Department]
}

var _ department.Repository = (*DepartmentRepo)(nil)

// NewDepartmentRepo creates a repository over the departments table.
func NewDepartmentRepo() *DepartmentRepo {
	return &DepartmentRepo{
		BaseRecordRepo: NewBaseRecordRepo(
			"departments",
			postgres.ExtractDBColumns[department.Department](),
			department.Definition().Schema(),
			func() *department.Department { return &department.Department{} },
		),
	}
}

// CodeTaken implements department.Repository.
func (r *DepartmentRepo) CodeTaken(ctx context.Context, code string, excludeID id.ID) (bool, error) {
	return r.ExistsWhere(ctx, squirrel.And{
		squirrel.Eq{"code": code},
		squirrel.NotEq{"id": excludeID},
	})
}

// HasChildren implements department.Repository.
func (r *DepartmentRepo) HasChildren(ctx context.Context, parentID id.ID) (bool, error) {
	return r.ExistsWhere(ctx, squirrel.Eq{"parent_id": parentID})
}
