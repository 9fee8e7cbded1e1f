// Package domaintest provides in-memory collaborators for service tests.
package domaintest

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
	"time"

	"staffdesk/internal/core/apperror"
	"staffdesk/internal/core/entity"
	"staffdesk/internal/core/id"
	"staffdesk/internal/core/numerator"
	"staffdesk/internal/domain"
	"staffdesk/internal/domain/audit"
	"staffdesk/internal/domain/search"
)

// Repo is an in-memory domain.RecordRepository. Records are stored as copies.
// Search and List return every record; filtering belongs to the SQL layer.
type Repo[T entity.Record] struct {
	mu   sync.Mutex
	rows map[id.ID][]byte
	ids  []id.ID

	// LastQuery is the latest query passed to Search.
	LastQuery domain.SearchQuery
}

// NewRepo creates an empty repository.
func NewRepo[T entity.Record]() *Repo[T] {
	return &Repo[T]{rows: make(map[id.ID][]byte)}
}

func (r *Repo[T]) decode(raw []byte) T {
	var zero T
	v := reflect.New(reflect.TypeOf(zero).Elem()).Interface().(T)
	if err := json.Unmarshal(raw, v); err != nil {
		panic(err)
	}
	return v
}

func (r *Repo[T]) put(record T) {
	raw, err := json.Marshal(record)
	if err != nil {
		panic(err)
	}
	if _, ok := r.rows[record.GetID()]; !ok {
		r.ids = append(r.ids, record.GetID())
	}
	r.rows[record.GetID()] = raw
}

// All returns every stored record in insertion order.
func (r *Repo[T]) All() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, 0, len(r.ids))
	for _, recordID := range r.ids {
		if raw, ok := r.rows[recordID]; ok {
			out = append(out, r.decode(raw))
		}
	}
	return out
}

func (r *Repo[T]) Create(_ context.Context, record T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[record.GetID()]; ok {
		return apperror.NewConflict("record already exists")
	}
	r.put(record)
	return nil
}

func (r *Repo[T]) GetByID(_ context.Context, recordID id.ID) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	raw, ok := r.rows[recordID]
	if !ok {
		var zero T
		return zero, apperror.NewNotFound("record", recordID.String())
	}
	return r.decode(raw), nil
}

func (r *Repo[T]) GetMany(ctx context.Context, ids []id.ID) ([]T, error) {
	out := make([]T, 0, len(ids))
	for _, recordID := range ids {
		if record, err := r.GetByID(ctx, recordID); err == nil {
			out = append(out, record)
		}
	}
	return out, nil
}

func (r *Repo[T]) Update(_ context.Context, record T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	raw, ok := r.rows[record.GetID()]
	if !ok || r.decode(raw).GetVersion() != record.GetVersion() {
		return apperror.NewConcurrentModification("record", record.GetID().String())
	}
	record.SetVersion(record.GetVersion() + 1)
	r.put(record)
	return nil
}

func (r *Repo[T]) Delete(_ context.Context, recordID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[recordID]; !ok {
		return apperror.NewNotFound("record", recordID.String())
	}
	delete(r.rows, recordID)
	return nil
}

func (r *Repo[T]) SetDeletionMark(ctx context.Context, recordID id.ID, marked bool) error {
	record, err := r.GetByID(ctx, recordID)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	raw, _ := json.Marshal(record)
	var fields map[string]any
	_ = json.Unmarshal(raw, &fields)
	fields["deletionMark"] = marked
	fields["version"] = record.GetVersion() + 1
	raw, _ = json.Marshal(fields)
	r.rows[recordID] = raw
	return nil
}

func (r *Repo[T]) Exists(_ context.Context, recordID id.ID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rows[recordID]
	return ok, nil
}

func (r *Repo[T]) List(context.Context, domain.ListFilter) (domain.ListResult[T], error) {
	items := r.All()
	return domain.ListResult[T]{Items: items, TotalCount: int64(len(items))}, nil
}

func (r *Repo[T]) Search(_ context.Context, query domain.SearchQuery) (search.Page[T], error) {
	r.mu.Lock()
	r.LastQuery = query
	r.mu.Unlock()
	items := r.All()
	return search.Page[T]{
		Content:       items,
		TotalElements: int64(len(items)),
		Page:          query.Page.Page,
		Size:          query.Page.Size,
	}, nil
}

func (r *Repo[T]) SearchAll(_ context.Context, _ search.Request, limit int) ([]T, error) {
	items := r.All()
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (r *Repo[T]) BulkSetDeletionMark(ctx context.Context, req search.Request, marked bool) (int64, error) {
	var n int64
	for _, raw := range req.IDsList {
		recordID, err := id.Parse(raw)
		if err != nil {
			continue
		}
		if err := r.SetDeletionMark(ctx, recordID, marked); err == nil {
			n++
		}
	}
	return n, nil
}

// Tx runs functions directly and counts the calls.
type Tx struct{ Calls int }

func (t *Tx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.Calls++
	return fn(ctx)
}

// Audit collects audit entries in memory.
type Audit struct {
	mu      sync.Mutex
	Entries []audit.Entry
}

func (a *Audit) Record(_ context.Context, e audit.Entry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Entries = append(a.Entries, e)
	return nil
}

func (a *Audit) History(_ context.Context, entityType string, entityID id.ID, limit int) ([]audit.Entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []audit.Entry
	for i := len(a.Entries) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		e := a.Entries[i]
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Last returns the newest entry.
func (a *Audit) Last() audit.Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.Entries) == 0 {
		return audit.Entry{}
	}
	return a.Entries[len(a.Entries)-1]
}

// Sequence returns a numerator that counts per prefix in memory.
func Sequence() numerator.Generator {
	var (
		mu   sync.Mutex
		next = make(map[string]int64)
	)
	return numerator.GeneratorFunc(func(_ context.Context, cfg numerator.Config, _ *numerator.Options, period time.Time) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		next[cfg.Prefix]++
		width := cfg.PadWidth
		if width == 0 {
			width = 5
		}
		if cfg.IncludeYear {
			return fmt.Sprintf("%s-%d-%0*d", cfg.Prefix, period.Year(), width, next[cfg.Prefix]), nil
		}
		return fmt.Sprintf("%s-%0*d", cfg.Prefix, width, next[cfg.Prefix]), nil
	})
}
