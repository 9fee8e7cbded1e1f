package record_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"staffdesk/internal/core/id"
	"staffdesk/internal/domain/hr/employee"
	"staffdesk/internal/infrastructure/storage/postgres"
)

// EmployeeRepo implements employee.Repository.
type EmployeeRepo struct {
	*BaseRecordRepo[*employee.Employee]
}

var _ employee.Repository = (*EmployeeRepo)(nil)

// NewEmployeeRepo creates a repository over the employees table.
func NewEmployeeRepo() *EmployeeRepo {
	return &EmployeeRepo{
		BaseRecordRepo: NewBaseRecordRepo(
			"employees",
			postgres.ExtractDBColumns[employee.Employee](),
			employee.Definition().Schema(),
			func() *employee.Employee { return &employee.Employee{} },
		),
	}
}

// EmailTaken implements employee.Repository.
func (r *EmployeeRepo) EmailTaken(ctx context.Context, email string, excludeID id.ID) (bool, error) {
	return r.ExistsWhere(ctx, emailTakenPred(email, excludeID))
}

func emailTakenPred(email string, excludeID id.ID) squirrel.Sqlizer {
	return squirrel.And{
		squirrel.Expr("lower(email) = lower(?)", email),
		squirrel.NotEq{"id": excludeID},
	}
}
