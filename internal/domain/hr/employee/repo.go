package employee

import (
	"context"

	"staffdesk/internal/core/id"
	"staffdesk/internal/domain"
)

// Repository defines persistence for employees.
type Repository interface {
	domain.RecordRepository[*Employee]

	// EmailTaken reports whether another employee already uses email (case-insensitive).
	EmailTaken(ctx context.Context, email string, excludeID id.ID) (bool, error)
}

// DepartmentChecker confirms that a department exists.
type DepartmentChecker interface {
	Exists(ctx context.Context, id id.ID) (bool, error)
}
