package visitor

import (
	"context"

	"staffdesk/internal/core/id"
	"staffdesk/internal/domain"
)

// Repository defines persistence for visits.
type Repository interface {
	domain.RecordRepository[*Visitor]
}

// HostChecker confirms that the host employee exists.
type HostChecker interface {
	Exists(ctx context.Context, id id.ID) (bool, error)
}
