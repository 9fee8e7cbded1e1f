// Package entity has the columns and methods shared by all stored records.
package entity

import (
	"context"
	"time"

	"staffdesk/internal/core/id"
)

// Record is what the generic record service needs from a stored type.
// Validate checks the invariants that need no database and returns an
// AppError describing the first broken one.
type Record interface {
	Validate(ctx context.Context) error
	GetID() id.ID
	GetVersion() int
	SetVersion(v int)
	IsMarkedDeleted() bool
}

// BaseEntity holds the columns every record table has. Version is bumped
// by the repository on each update and guards against lost updates.
// A record with DeletionMark stays in the table but leaves default listings.
type BaseEntity struct {
	ID           id.ID `db:"id" json:"id"`
	DeletionMark bool  `db:"deletion_mark" json:"deletionMark"`
	Version      int   `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`
}

// NewBaseEntity returns version 1 of a new record stamped with the current time.
func NewBaseEntity() BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{
		ID:        id.New(),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (b *BaseEntity) GetID() id.ID          { return b.ID }
func (b *BaseEntity) GetVersion() int       { return b.Version }
func (b *BaseEntity) SetVersion(v int)      { b.Version = v }
func (b *BaseEntity) IsMarkedDeleted() bool { return b.DeletionMark }

// Touch records an edit by userID.
func (b *BaseEntity) Touch(userID string) {
	b.UpdatedAt = time.Now().UTC()
	b.UpdatedBy = userID
}

// Stamp records userID as author and last editor of a new record.
func (b *BaseEntity) Stamp(userID string) {
	b.CreatedBy = userID
	b.UpdatedBy = userID
}

// MarkDeleted sets the deletion mark.
func (b *BaseEntity) MarkDeleted() {
	b.DeletionMark = true
}
