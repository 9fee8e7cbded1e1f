package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staffdesk/internal/domain/search"
)

type employee struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
}

func TestSearch_SendsRequestAndDecodesPage(t *testing.T) {
	var got struct {
		method, path, auth, page, size string
		body                           map[string]any
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method, got.path = r.Method, r.URL.Path
		got.auth = r.Header.Get("Authorization")
		got.page, got.size = r.URL.Query().Get("page"), r.URL.Query().Get("size")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got.body))
		_, _ = io.WriteString(w, `{"content":[{"id":"1","firstName":"Jane"}],"totalElements":41,"totalPages":3,"page":1,"size":20}`)
	}))
	defer srv.Close()

	c := New(srv.URL+"/", WithToken("tok"))
	req := Build([]ActiveFilter{search.NewFilter("status", MultiselectValue{"ACTIVE"})},
		" jane ", []string{"firstName"}, &CurrentSort{Field: "lastName", Direction: search.Desc})

	res, err := Search[employee](context.Background(), c, "employees", req, SearchOptions{Page: 1, Size: 20})
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Nil(t, res.Error)
	assert.Equal(t, []employee{{ID: "1", FirstName: "Jane"}}, res.Data.Content)
	assert.EqualValues(t, 41, res.Data.TotalElements)

	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/api/v1/employees/search", got.path)
	assert.Equal(t, "Bearer tok", got.auth)
	assert.Equal(t, "1", got.page)
	assert.Equal(t, "20", got.size)
	assert.Equal(t, map[string]any{
		"searchText":   "jane",
		"searchFields": []any{"firstName"},
		"filters":      map[string]any{"and": map[string]any{"status": []any{"ACTIVE"}}},
		"sort":         map[string]any{"lastName": float64(-1)},
	}, got.body)
}

func TestSearch_ErrorStatusIsAResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"code":"VALIDATION_ERROR","message":"invalid search request","details":{"entity":"employee"}}`)
	}))
	defer srv.Close()

	res, err := Search[employee](context.Background(), New(srv.URL), "employees", Request{}, SearchOptions{})
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.Equal(t, http.StatusBadRequest, res.Status)
	require.NotNil(t, res.Error)
	assert.Equal(t, "VALIDATION_ERROR", res.Error.Code)
	assert.Equal(t, "employee", res.Error.Details["entity"])
}

func TestSearch_PlainTextErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway down", http.StatusBadGateway)
	}))
	defer srv.Close()

	res, err := Search[employee](context.Background(), New(srv.URL), "employees", Request{}, SearchOptions{})
	require.NoError(t, err)
	require.NotNil(t, res.Error)
	assert.Equal(t, "Bad Gateway", res.Error.Code)
	assert.Equal(t, "gateway down", res.Error.Message)
}

func flakyServer(t *testing.T, failures int, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if int(calls.Add(1)) <= failures {
			w.WriteHeader(status)
			_, _ = io.WriteString(w, `{"code":"SERVICE_UNAVAILABLE","message":"try later"}`)
			return
		}
		_, _ = io.WriteString(w, `{"content":[],"totalElements":0,"page":0,"size":20}`)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func fastRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond, MaxElapsedTime: time.Second}
}

func TestSearch_RetryIsOffByDefault(t *testing.T) {
	srv, calls := flakyServer(t, 1, http.StatusServiceUnavailable)

	res, err := Search[employee](context.Background(), New(srv.URL), "employees", Request{}, SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, res.Status)
	assert.EqualValues(t, 1, calls.Load())
}

func TestSearch_RetriesServerErrors(t *testing.T) {
	srv, calls := flakyServer(t, 2, http.StatusServiceUnavailable)

	res, err := Search[employee](context.Background(), New(srv.URL, WithRetry(fastRetry())), "employees", Request{}, SearchOptions{})
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.EqualValues(t, 3, calls.Load())
}

func TestSearch_RetryIsBounded(t *testing.T) {
	srv, calls := flakyServer(t, 10, http.StatusServiceUnavailable)

	res, err := Search[employee](context.Background(), New(srv.URL, WithRetry(fastRetry())), "employees", Request{}, SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, res.Status)
	require.NotNil(t, res.Error)
	assert.EqualValues(t, 3, calls.Load())
}

func TestSearch_ClientErrorsAreNotRetried(t *testing.T) {
	srv, calls := flakyServer(t, 10, http.StatusBadRequest)

	res, err := Search[employee](context.Background(), New(srv.URL, WithRetry(fastRetry())), "employees", Request{}, SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.EqualValues(t, 1, calls.Load())
}

func TestBulkDeletionMark(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/visitors/deletion-mark", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = io.WriteString(w, `{"affected":2}`)
	}))
	defer srv.Close()

	res, err := New(srv.URL).BulkDeletionMark(context.Background(), "visitors", search.ForIDs([]string{"a", "b"}), true)
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Data.Affected)
	assert.Equal(t, map[string]any{
		"request": map[string]any{"idsList": []any{"a", "b"}},
		"marked":  true,
	}, body)
}

func TestExport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="employee-20240301-101500.xlsx"`)
		_, _ = w.Write([]byte("PK\x03\x04"))
	}))
	defer srv.Close()

	res, err := New(srv.URL).Export(context.Background(), "employees", Request{SearchText: "jane"})
	require.NoError(t, err)
	assert.Equal(t, "employee-20240301-101500.xlsx", res.Data.FileName)
	assert.Equal(t, []byte("PK\x03\x04"), res.Data.Content)
}

func TestLatest_SupersedesOlderCalls(t *testing.T) {
	var latest Latest[string]
	started := make(chan struct{})

	var (
		wg       sync.WaitGroup
		firstErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = latest.Do(context.Background(), func(ctx context.Context) (string, error) {
			close(started)
			<-ctx.Done()
			return "stale", ctx.Err()
		})
	}()

	<-started
	v, err := latest.Do(context.Background(), func(context.Context) (string, error) {
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)

	wg.Wait()
	assert.ErrorIs(t, firstErr, ErrSuperseded)
}

func TestLatest_StaleAnswerIsDiscarded(t *testing.T) {
	var latest Latest[int]
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		// ignores cancellation and answers late
		_, err := latest.Do(context.Background(), func(context.Context) (int, error) {
			<-release
			return 1, nil
		})
		done <- err
	}()

	require.Eventually(t, func() bool {
		latest.mu.Lock()
		defer latest.mu.Unlock()
		return latest.gen == 1
	}, time.Second, time.Millisecond)

	v, err := latest.Do(context.Background(), func(context.Context) (int, error) { return 2, nil })
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	close(release)
	assert.ErrorIs(t, <-done, ErrSuperseded)
}

func TestLatest_Cancel(t *testing.T) {
	var latest Latest[int]
	started := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		_, err := latest.Do(context.Background(), func(ctx context.Context) (int, error) {
			close(started)
			<-ctx.Done()
			return 0, ctx.Err()
		})
		done <- err
	}()

	<-started
	latest.Cancel()
	assert.ErrorIs(t, <-done, ErrSuperseded)
}
