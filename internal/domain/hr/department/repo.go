package department

import (
	"context"

	"staffdesk/internal/core/id"
	"staffdesk/internal/domain"
)

// Repository defines persistence for departments.
type Repository interface {
	domain.RecordRepository[*Department]

	// CodeTaken reports whether another department already uses code.
	CodeTaken(ctx context.Context, code string, excludeID id.ID) (bool, error)

	// HasChildren reports whether any department points to parentID.
	HasChildren(ctx context.Context, parentID id.ID) (bool, error)
}
