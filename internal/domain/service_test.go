package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staffdesk/internal/core/apperror"
	"staffdesk/internal/core/entity"
	"staffdesk/internal/core/id"
	"staffdesk/internal/core/tx"
	"staffdesk/internal/domain/audit"
	"staffdesk/internal/domain/search"
)

type note struct {
	entity.BaseEntity
	Title  string `json:"title"`
	Status string `json:"status"`
}

func (n *note) Validate(ctx context.Context) error {
	if n.Title == "" {
		return apperror.NewValidation("title is required").WithDetail("field", "title")
	}
	return nil
}

type memRepo struct {
	rows      map[id.ID]note
	lastQuery  SearchQuery
	lastFilter ListFilter
	bulkReq    search.Request
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[id.ID]note)}
}

func (r *memRepo) Create(_ context.Context, n *note) error {
	r.rows[n.ID] = *n
	return nil
}

func (r *memRepo) GetByID(_ context.Context, recordID id.ID) (*note, error) {
	n, ok := r.rows[recordID]
	if !ok {
		return nil, apperror.NewNotFound("notes", recordID.String())
	}
	return &n, nil
}

func (r *memRepo) GetMany(_ context.Context, ids []id.ID) ([]*note, error) {
	var out []*note
	for _, recordID := range ids {
		if n, ok := r.rows[recordID]; ok {
			out = append(out, &n)
		}
	}
	return out, nil
}

func (r *memRepo) Update(_ context.Context, n *note) error {
	stored, ok := r.rows[n.ID]
	if !ok || stored.Version != n.Version {
		return apperror.NewConcurrentModification("notes", n.ID)
	}
	n.SetVersion(n.Version + 1)
	r.rows[n.ID] = *n
	return nil
}

func (r *memRepo) Delete(_ context.Context, recordID id.ID) error {
	delete(r.rows, recordID)
	return nil
}

func (r *memRepo) SetDeletionMark(_ context.Context, recordID id.ID, marked bool) error {
	n, ok := r.rows[recordID]
	if !ok {
		return apperror.NewNotFound("notes", recordID.String())
	}
	n.DeletionMark = marked
	r.rows[recordID] = n
	return nil
}

func (r *memRepo) Exists(_ context.Context, recordID id.ID) (bool, error) {
	_, ok := r.rows[recordID]
	return ok, nil
}

func (r *memRepo) List(_ context.Context, filter ListFilter) (ListResult[*note], error) {
	r.lastFilter = filter
	return ListResult[*note]{Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (r *memRepo) Search(_ context.Context, query SearchQuery) (search.Page[*note], error) {
	r.lastQuery = query
	return search.Page[*note]{Content: []*note{}, Page: query.Page.Page, Size: query.Page.Size}, nil
}

func (r *memRepo) SearchAll(context.Context, search.Request, int) ([]*note, error) {
	return nil, nil
}

func (r *memRepo) BulkSetDeletionMark(_ context.Context, req search.Request, _ bool) (int64, error) {
	r.bulkReq = req
	return int64(len(req.IDsList)), nil
}

type passTx struct{ calls int }

func (p *passTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	p.calls++
	return fn(ctx)
}

type memAudit struct{ entries []audit.Entry }

func (m *memAudit) Record(_ context.Context, e audit.Entry) error {
	m.entries = append(m.entries, e)
	return nil
}

func (m *memAudit) History(context.Context, string, id.ID, int) ([]audit.Entry, error) {
	return m.entries, nil
}

type stubFullText struct {
	ids   []id.ID
	total int64
	err   error
}

func (s stubFullText) SearchIDs(context.Context, SearchQuery) ([]id.ID, int64, error) {
	return s.ids, s.total, s.err
}

var noteSchema = search.NewSchema("note", []search.Field{
	{ID: "title", Searchable: true, Sortable: true},
	{ID: "status", Kind: search.KindMultiselect, Options: []string{"OPEN", "DONE"}},
})

func newNoteService(repo *memRepo, rec audit.Recorder, ft FullTextSearcher) (*RecordService[*note], *passTx) {
	txm := &passTx{}
	return NewRecordService(RecordServiceConfig[*note]{
		Repo:       repo,
		TxManager:  txm,
		Schema:     noteSchema,
		FullText:   ft,
		Audit:      rec,
		EntityName: "note",
	}), txm
}

func TestRecordService_CreateValidatesAndAudits(t *testing.T) {
	repo, rec := newMemRepo(), &memAudit{}
	svc, txm := newNoteService(repo, rec, nil)
	ctx := context.Background()

	err := svc.Create(ctx, &note{BaseEntity: entity.NewBaseEntity()})
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, 0, txm.calls)

	n := &note{BaseEntity: entity.NewBaseEntity(), Title: "hello"}
	require.NoError(t, svc.Create(ctx, n))

	require.Len(t, rec.entries, 1)
	assert.Equal(t, audit.ActionCreate, rec.entries[0].Action)
	assert.Equal(t, n.ID, rec.entries[0].EntityID)
}

func TestRecordService_HooksRunInOrder(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newNoteService(repo, nil, nil)
	var calls []string

	svc.Hooks().OnBeforeCreate(func(ctx context.Context, n *note) error {
		calls = append(calls, "before")
		n.Status = "OPEN"
		return nil
	})
	svc.Hooks().OnAfterCreate(func(ctx context.Context, n *note) error {
		calls = append(calls, "after")
		return errors.New("ignored")
	})

	n := &note{BaseEntity: entity.NewBaseEntity(), Title: "x"}
	require.NoError(t, svc.Create(context.Background(), n))

	assert.Equal(t, []string{"before", "after"}, calls)
	assert.Equal(t, "OPEN", repo.rows[n.ID].Status)
}

func TestRecordService_UpdateAuditsDiff(t *testing.T) {
	repo, rec := newMemRepo(), &memAudit{}
	svc, _ := newNoteService(repo, rec, nil)
	ctx := context.Background()

	n := &note{BaseEntity: entity.NewBaseEntity(), Title: "x", Status: "OPEN"}
	require.NoError(t, svc.Create(ctx, n))

	n.Status = "DONE"
	require.NoError(t, svc.Update(ctx, n))
	assert.Equal(t, 2, n.Version)

	require.Len(t, rec.entries, 2)
	assert.Equal(t, audit.ActionUpdate, rec.entries[1].Action)
	assert.JSONEq(t, `{"status": {"old": "OPEN", "new": "DONE"}}`, string(rec.entries[1].Changes))
}

func TestRecordService_UpdateStaleVersion(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newNoteService(repo, nil, nil)
	ctx := context.Background()

	n := &note{BaseEntity: entity.NewBaseEntity(), Title: "x"}
	require.NoError(t, svc.Create(ctx, n))

	stale := *n
	require.NoError(t, svc.Update(ctx, n))

	err := svc.Update(ctx, &stale)
	assert.True(t, apperror.IsConcurrentModification(err))
}

func TestRecordService_GetMissingUsesEntityName(t *testing.T) {
	svc, _ := newNoteService(newMemRepo(), nil, nil)

	_, err := svc.GetByID(context.Background(), id.New())
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeNotFound, appErr.Code)
	assert.Equal(t, "note", appErr.Details["entity"])
}

func TestRecordService_SearchPreparesRequest(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newNoteService(repo, nil, nil)

	_, err := svc.Search(context.Background(), SearchQuery{
		Request: search.Request{SearchText: " hello "},
		Page:    search.PageRequest{Size: 20},
	})
	require.NoError(t, err)

	assert.Equal(t, "hello", repo.lastQuery.Request.SearchText)
	assert.Equal(t, []string{"title"}, repo.lastQuery.Request.SearchFields)

	_, err = svc.Search(context.Background(), SearchQuery{
		Request: search.Request{Sort: map[string]search.SortOrder{"status": search.Ascending}},
	})
	assert.True(t, apperror.IsValidation(err))
}

func TestRecordService_ListClampsPaging(t *testing.T) {
	tests := []struct {
		name       string
		limit      int
		offset     int
		wantLimit  int
		wantOffset int
	}{
		{name: "negative limit", limit: -1, wantLimit: 50},
		{name: "zero limit", limit: 0, wantLimit: 50},
		{name: "above max", limit: 10_000, wantLimit: search.MaxPageSize},
		{name: "in range", limit: 30, offset: 60, wantLimit: 30, wantOffset: 60},
		{name: "negative offset", limit: 10, offset: -5, wantLimit: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemRepo()
			svc, _ := newNoteService(repo, nil, nil)

			_, err := svc.List(context.Background(), ListFilter{Limit: tt.limit, Offset: tt.offset})
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, repo.lastFilter.Limit)
			assert.Equal(t, tt.wantOffset, repo.lastFilter.Offset)
		})
	}
}

func TestRecordService_SearchUsesFullTextIndex(t *testing.T) {
	repo := newMemRepo()
	first := &note{BaseEntity: entity.NewBaseEntity(), Title: "a"}
	second := &note{BaseEntity: entity.NewBaseEntity(), Title: "b"}
	repo.rows[first.ID] = *first
	repo.rows[second.ID] = *second

	svc, _ := newNoteService(repo, nil, stubFullText{ids: []id.ID{second.ID, first.ID}, total: 7})

	page, err := svc.Search(context.Background(), SearchQuery{
		Request: search.Request{SearchText: "a"},
		Page:    search.PageRequest{Page: 1, Size: 2},
	})
	require.NoError(t, err)

	require.Len(t, page.Content, 2)
	assert.Equal(t, second.ID, page.Content[0].ID)
	assert.Equal(t, int64(7), page.TotalElements)
	assert.Equal(t, 1, page.Page)
	assert.Empty(t, repo.lastQuery.Request.SearchText, "database must not be queried")
}

func TestRecordService_SearchFallsBackWhenIndexFails(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newNoteService(repo, nil, stubFullText{err: errors.New("connection refused")})

	_, err := svc.Search(context.Background(), SearchQuery{
		Request: search.Request{SearchText: "a"},
		Page:    search.PageRequest{Size: 20},
	})
	require.NoError(t, err)
	assert.Equal(t, "a", repo.lastQuery.Request.SearchText)
}

func TestRecordService_BulkDeletionMark(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newNoteService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.BulkSetDeletionMark(ctx, search.Request{}, true)
	assert.True(t, apperror.IsValidation(err))

	ids := []string{id.New().String(), id.New().String()}
	n, err := svc.BulkSetDeletionMark(ctx, search.ForIDs(ids), true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, ids, repo.bulkReq.IDsList)
}

func TestRecordService_TxManagerFromContext(t *testing.T) {
	repo := newMemRepo()
	svc := NewRecordService(RecordServiceConfig[*note]{Repo: repo, EntityName: "note"})
	n := &note{BaseEntity: entity.NewBaseEntity(), Title: "x"}

	err := svc.Create(context.Background(), n)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInternal, appErr.Code)

	txm := &passTx{}
	require.NoError(t, svc.Create(tx.WithManager(context.Background(), txm), n))
	assert.Equal(t, 1, txm.calls)
}

func TestRecordService_SetDeletionMark(t *testing.T) {
	repo, rec := newMemRepo(), &memAudit{}
	svc, _ := newNoteService(repo, rec, nil)
	ctx := context.Background()

	n := &note{BaseEntity: entity.NewBaseEntity(), Title: "x"}
	require.NoError(t, svc.Create(ctx, n))
	require.NoError(t, svc.SetDeletionMark(ctx, n.ID, true))

	assert.True(t, repo.rows[n.ID].DeletionMark)
	assert.Equal(t, audit.ActionDeletionMark, rec.entries[len(rec.entries)-1].Action)

	err := svc.SetDeletionMark(ctx, id.New(), true)
	assert.True(t, apperror.IsNotFound(err))
}

type memIndex struct {
	docs map[id.ID]any
	err  error
}

func (m *memIndex) Index(_ context.Context, _ string, recordID id.ID, doc any) error {
	if m.err != nil {
		return m.err
	}
	m.docs[recordID] = doc
	return nil
}

func (m *memIndex) Remove(_ context.Context, _ string, recordID id.ID) error {
	delete(m.docs, recordID)
	return m.err
}

func TestRecordService_KeepsIndexInStep(t *testing.T) {
	repo, idx := newMemRepo(), &memIndex{docs: map[id.ID]any{}}
	svc := NewRecordService(RecordServiceConfig[*note]{
		Repo: repo, TxManager: &passTx{}, Indexer: idx, EntityName: "note",
	})
	ctx := context.Background()

	n := &note{BaseEntity: entity.NewBaseEntity(), Title: "x"}
	require.NoError(t, svc.Create(ctx, n))
	assert.Contains(t, idx.docs, n.ID)

	require.NoError(t, svc.SetDeletionMark(ctx, n.ID, true))
	assert.True(t, idx.docs[n.ID].(*note).DeletionMark)

	require.NoError(t, svc.Delete(ctx, n.ID))
	assert.NotContains(t, idx.docs, n.ID)

	idx.err = errors.New("index down")
	other := &note{BaseEntity: entity.NewBaseEntity(), Title: "y"}
	assert.NoError(t, svc.Create(ctx, other), "index failures must not fail the write")
}

func TestRecordService_FullTextDropsRowsMissingFromDatabase(t *testing.T) {
	repo := newMemRepo()
	kept := &note{BaseEntity: entity.NewBaseEntity(), Title: "a"}
	repo.rows[kept.ID] = *kept

	svc, _ := newNoteService(repo, nil, stubFullText{ids: []id.ID{id.New(), kept.ID, id.New()}, total: 3})

	page, err := svc.Search(context.Background(), SearchQuery{
		Request: search.Request{SearchText: "a"},
		Page:    search.PageRequest{Size: 20},
	})
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, kept.ID, page.Content[0].ID)
	assert.Equal(t, int64(1), page.TotalElements)
}

func TestRecordService_FullTextSkipsMarkedRecords(t *testing.T) {
	repo := newMemRepo()
	live := &note{BaseEntity: entity.NewBaseEntity(), Title: "a"}
	gone := &note{BaseEntity: entity.NewBaseEntity(), Title: "a"}
	gone.MarkDeleted()
	repo.rows[live.ID] = *live
	repo.rows[gone.ID] = *gone

	svc, _ := newNoteService(repo, nil, stubFullText{ids: []id.ID{gone.ID, live.ID}, total: 2})

	page, err := svc.Search(context.Background(), SearchQuery{
		Request: search.Request{SearchText: "a"},
		Page:    search.PageRequest{Size: 20},
	})
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, live.ID, page.Content[0].ID)
	assert.Equal(t, int64(1), page.TotalElements)

	page, err = svc.Search(context.Background(), SearchQuery{
		Request:        search.Request{SearchText: "a"},
		Page:           search.PageRequest{Size: 20},
		IncludeDeleted: true,
	})
	require.NoError(t, err)
	assert.Len(t, page.Content, 2)
}
