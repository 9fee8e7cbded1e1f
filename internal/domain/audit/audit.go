// Package audit records who changed a record and what changed.
package audit

import (
	"context"
	"encoding/json"
	"reflect"
	"time"

	appctx "staffdesk/internal/core/context"
	"staffdesk/internal/core/entity"
	"staffdesk/internal/core/id"
)

// Action is the kind of audited change.
type Action string

const (
	ActionCreate       Action = "create"
	ActionUpdate       Action = "update"
	ActionDelete       Action = "delete"
	ActionDeletionMark Action = "deletion_mark"
	ActionCheckIn      Action = "check_in"
	ActionCheckOut     Action = "check_out"
)

// Entry is one audit record.
type Entry struct {
	ID         id.ID           `db:"id" json:"id"`
	EntityType string          `db:"entity_type" json:"entityType"`
	EntityID   id.ID           `db:"entity_id" json:"entityId"`
	Action     Action          `db:"action" json:"action"`
	UserID     string          `db:"user_id" json:"userId,omitempty"`
	Changes    json.RawMessage `db:"changes" json:"changes,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
}

// Recorder persists audit entries.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
	History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]Entry, error)
}

// Change holds the old and new value of one field.
type Change struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// NewEntry creates an entry for the user in ctx with the given changes.
func NewEntry(ctx context.Context, entityType string, entityID id.ID, action Action, changes map[string]Change) (Entry, error) {
	entry := Entry{
		ID:         id.New(),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		UserID:     appctx.GetUserID(ctx),
		CreatedAt:  time.Now().UTC(),
	}
	if len(changes) > 0 {
		raw, err := json.Marshal(changes)
		if err != nil {
			return Entry{}, err
		}
		entry.Changes = raw
	}
	return entry, nil
}

// Snapshot converts a record into its JSON field map.
func Snapshot(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Diff returns the fields that differ between two snapshots.
// Bookkeeping fields (version, updatedAt, updatedBy) are ignored.
func Diff(oldState, newState map[string]any) map[string]Change {
	changes := make(map[string]Change)
	for key, newVal := range newState {
		if ignoredInDiff[key] {
			continue
		}
		if oldVal, ok := oldState[key]; !ok || !reflect.DeepEqual(oldVal, newVal) {
			changes[key] = Change{Old: oldState[key], New: newVal}
		}
	}
	for key, oldVal := range oldState {
		if _, ok := newState[key]; !ok && !ignoredInDiff[key] {
			changes[key] = Change{Old: oldVal}
		}
	}
	return changes
}

var ignoredInDiff = map[string]bool{
	"version":   true,
	"updatedAt": true,
	"updatedBy": true,
}

// StampCreated fills the author fields of a new record from ctx.
func StampCreated(ctx context.Context, base *entity.BaseEntity) {
	if userID := appctx.GetUserID(ctx); userID != "" {
		base.Stamp(userID)
	}
}

// StampUpdated fills the editor fields of a changed record from ctx.
func StampUpdated(ctx context.Context, base *entity.BaseEntity) {
	base.Touch(appctx.GetUserID(ctx))
}
