package reindex

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staffdesk/internal/core/id"
	"staffdesk/internal/domain"
	"staffdesk/internal/domain/domaintest"
	"staffdesk/internal/domain/hr/employee"
)

type recordingIndexer struct {
	indexed []id.ID
	failOn  id.ID
}

func (x *recordingIndexer) Index(_ context.Context, _ string, recordID id.ID, _ any) error {
	if recordID == x.failOn {
		return errors.New("index unavailable")
	}
	x.indexed = append(x.indexed, recordID)
	return nil
}

func (x *recordingIndexer) Remove(context.Context, string, id.ID) error { return nil }

// pagedLister serves List in real pages over a fixed slice.
type pagedLister struct {
	items []*employee.Employee
	calls []domain.ListFilter
}

func (l *pagedLister) List(_ context.Context, f domain.ListFilter) (domain.ListResult[*employee.Employee], error) {
	l.calls = append(l.calls, f)
	end := min(f.Offset+f.Limit, len(l.items))
	return domain.ListResult[*employee.Employee]{
		Items:      l.items[f.Offset:end],
		TotalCount: int64(len(l.items)),
		Limit:      f.Limit,
		Offset:     f.Offset,
	}, nil
}

func employees(n int) []*employee.Employee {
	out := make([]*employee.Employee, n)
	for i := range out {
		out[i] = employee.NewEmployee("First", "Last", "e@example.com", time.Now())
	}
	return out
}

func TestJob_IndexesEveryPage(t *testing.T) {
	src := &pagedLister{items: employees(5)}
	idx := &recordingIndexer{}

	n, err := NewJob(employee.EntityName, src, idx, 2).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, n)
	assert.Len(t, idx.indexed, 5)
	require.Len(t, src.calls, 3)
	assert.Equal(t, 4, src.calls[2].Offset)
	assert.True(t, src.calls[0].IncludeDeleted)
}

func TestJob_StopsOnExactMultiple(t *testing.T) {
	src := &pagedLister{items: employees(4)}

	n, err := NewJob(employee.EntityName, src, &recordingIndexer{}, 2).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Len(t, src.calls, 2)
}

func TestJob_ReportsFailedRecords(t *testing.T) {
	src := &pagedLister{items: employees(3)}
	idx := &recordingIndexer{failOn: src.items[1].ID}

	n, err := NewJob(employee.EntityName, src, idx, 0).Run(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 2, n)
}

func TestJob_WorksWithRepository(t *testing.T) {
	repo := domaintest.NewRepo[*employee.Employee]()
	for _, e := range employees(3) {
		require.NoError(t, repo.Create(context.Background(), e))
	}
	idx := &recordingIndexer{}

	n, err := NewJob(employee.EntityName, repo, idx, 2).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestRunAll_ContinuesPastFailures(t *testing.T) {
	failing := Job{Entity: "department", run: func(context.Context) (int, error) {
		return 0, errors.New("boom")
	}}
	idx := &recordingIndexer{}
	ok := NewJob(employee.EntityName, &pagedLister{items: employees(1)}, idx, 10)

	err := RunAll(context.Background(), []Job{failing, ok})
	assert.EqualError(t, err, "boom")
	assert.Len(t, idx.indexed, 1)
}

func TestJob_StopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewJob(employee.EntityName, &pagedLister{items: employees(1)}, &recordingIndexer{}, 10).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
