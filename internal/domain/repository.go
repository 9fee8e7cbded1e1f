// Package domain provides the generic record service and repository contracts.
package domain

import (
	"context"

	"staffdesk/internal/core/entity"
	"staffdesk/internal/core/id"
	"staffdesk/internal/domain/search"
)

// ListFilter contains the query-string options of a plain list call.
type ListFilter struct {
	// Search matches code/name-like columns with ILIKE
	Search string

	IDs            []id.ID
	IncludeDeleted bool

	// OrderBy is a column with an optional "-" prefix for descending order
	OrderBy string

	Limit  int
	Offset int
}

const defaultListLimit = 50

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{Limit: defaultListLimit}
}

// Normalized returns f with paging brought into range. A non-positive limit
// means the default and a limit above search.MaxPageSize is capped.
func (f ListFilter) Normalized() ListFilter {
	switch {
	case f.Limit <= 0:
		f.Limit = defaultListLimit
	case f.Limit > search.MaxPageSize:
		f.Limit = search.MaxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// SearchQuery is a prepared universal search request plus paging.
type SearchQuery struct {
	Request        search.Request
	Page           search.PageRequest
	IncludeDeleted bool
}

// RecordRepository defines persistence for versioned records.
type RecordRepository[T entity.Record] interface {
	Create(ctx context.Context, record T) error
	GetByID(ctx context.Context, id id.ID) (T, error)

	// GetMany returns the records with the given ids in the order of ids.
	// Unknown ids are skipped.
	GetMany(ctx context.Context, ids []id.ID) ([]T, error)

	// Update modifies an existing record with optimistic locking.
	Update(ctx context.Context, record T) error

	// Delete removes the row physically.
	Delete(ctx context.Context, id id.ID) error

	SetDeletionMark(ctx context.Context, id id.ID, marked bool) error
	Exists(ctx context.Context, id id.ID) (bool, error)

	List(ctx context.Context, filter ListFilter) (ListResult[T], error)

	// Search runs a universal search request.
	Search(ctx context.Context, query SearchQuery) (search.Page[T], error)

	// SearchAll returns up to limit records matching req, unpaged.
	SearchAll(ctx context.Context, req search.Request, limit int) ([]T, error)

	// BulkSetDeletionMark sets the mark on every record matching req.
	BulkSetDeletionMark(ctx context.Context, req search.Request, marked bool) (int64, error)
}

// FullTextSearcher answers searches from an external index.
// It returns the ids of one page of hits in rank order plus the total.
type FullTextSearcher interface {
	SearchIDs(ctx context.Context, query SearchQuery) ([]id.ID, int64, error)
}

// Indexer keeps an external full-text index in step with the database.
// Failures are logged by the caller and never undo the write.
type Indexer interface {
	Index(ctx context.Context, entity string, recordID id.ID, doc any) error
	Remove(ctx context.Context, entity string, recordID id.ID) error
}

// --- Hooks ---

// HookEvent represents lifecycle event type.
type HookEvent string

const (
	BeforeCreate HookEvent = "before_create"
	AfterCreate  HookEvent = "after_create"
	BeforeUpdate HookEvent = "before_update"
	AfterUpdate  HookEvent = "after_update"
	BeforeDelete HookEvent = "before_delete"
	AfterDelete  HookEvent = "after_delete"
)

// Hook is a function that runs at specific lifecycle points.
type Hook[T any] func(ctx context.Context, record T) error

// HookRegistry stores lifecycle hooks for a record type.
type HookRegistry[T any] struct {
	hooks map[HookEvent][]Hook[T]
}

// NewHookRegistry creates an empty hook registry.
func NewHookRegistry[T any]() *HookRegistry[T] {
	return &HookRegistry[T]{hooks: make(map[HookEvent][]Hook[T])}
}

// On registers a hook for the specified event.
func (r *HookRegistry[T]) On(event HookEvent, hook Hook[T]) {
	r.hooks[event] = append(r.hooks[event], hook)
}

// Run executes the hooks of event in registration order and stops at the first error.
func (r *HookRegistry[T]) Run(ctx context.Context, event HookEvent, record T) error {
	for _, hook := range r.hooks[event] {
		if err := hook(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

func (r *HookRegistry[T]) OnBeforeCreate(hook Hook[T]) { r.On(BeforeCreate, hook) }
func (r *HookRegistry[T]) OnAfterCreate(hook Hook[T])  { r.On(AfterCreate, hook) }
func (r *HookRegistry[T]) OnBeforeUpdate(hook Hook[T]) { r.On(BeforeUpdate, hook) }
func (r *HookRegistry[T]) OnAfterUpdate(hook Hook[T])  { r.On(AfterUpdate, hook) }
func (r *HookRegistry[T]) OnBeforeDelete(hook Hook[T]) { r.On(BeforeDelete, hook) }
func (r *HookRegistry[T]) OnAfterDelete(hook Hook[T])  { r.On(AfterDelete, hook) }
