package record_repo

import (
	"staffdesk/internal/domain/visitor"
	"staffdesk/internal/infrastructure/storage/postgres"
)

// VisitorRepo implements visitor.Repository.
type VisitorRepo struct {
	*BaseRecordRepo[*visitor.Visitor]
}

var _ visitor.Repository = (*VisitorRepo)(nil)

// NewVisitorRepo creates a repository over the visitors table.
func NewVisitorRepo() *VisitorRepo {
	return &VisitorRepo{
		BaseRecordRepo: NewBaseRecordRepo(
			"visitors",
			postgres.ExtractDBColumns[visitor.Visitor](),
			visitor.Definition().Schema(),
			func() *visitor.Visitor { return &visitor.Visitor{} },
		),
	}
}
