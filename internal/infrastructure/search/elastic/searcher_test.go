package elastic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staffdesk/internal/core/id"
	"staffdesk/internal/domain"
	"staffdesk/internal/domain/hr/employee"
	"staffdesk/internal/domain/search"
)

// fakeCluster answers like a single Elasticsearch node.
type fakeCluster struct {
	status   int
	response string
	lastPath string
	lastBody map[string]any
}

func (f *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.lastPath = r.Method + " " + r.URL.Path
	if r.Body != nil {
		raw, _ := io.ReadAll(r.Body)
		f.lastBody = nil
		_ = json.Unmarshal(raw, &f.lastBody)
	}
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(f.status)
	_, _ = io.WriteString(w, f.response)
}

func newCluster(t *testing.T, status int, response string) (*fakeCluster, Config) {
	t.Helper()
	fake := &fakeCluster{status: status, response: response}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return fake, Config{Addresses: []string{srv.URL}, IndexPrefix: "test"}
}

func TestSearcher_SearchIDs(t *testing.T) {
	first, second := id.New(), id.New()
	fake, cfg := newCluster(t, http.StatusOK, `{"hits": {"total": {"value": 42}, "hits": [
		{"_id": "`+second.String()+`"}, {"_id": "`+first.String()+`"}
	]}}`)

	client, err := NewClient(cfg)
	require.NoError(t, err)
	searcher := NewSearcher(client, cfg, employee.Definition())

	ids, total, err := searcher.SearchIDs(context.Background(), domain.SearchQuery{
		Request: search.Build(nil, "jane", []string{"firstName"}, nil),
		Page:    search.PageRequest{Size: 2},
	})
	require.NoError(t, err)

	assert.Equal(t, []id.ID{second, first}, ids)
	assert.Equal(t, int64(42), total)
	assert.Equal(t, "POST /test-employee/_search", fake.lastPath)
	assert.EqualValues(t, 2, fake.lastBody["size"])
}

func TestSearcher_ClusterError(t *testing.T) {
	_, cfg := newCluster(t, http.StatusServiceUnavailable, `{"error": "unavailable"}`)

	client, err := NewClient(cfg)
	require.NoError(t, err)

	_, _, err = NewSearcher(client, cfg, employee.Definition()).SearchIDs(context.Background(), domain.SearchQuery{
		Request: search.Build(nil, "jane", []string{"firstName"}, nil),
	})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "503"))
}

func TestIndexer_IndexAndRemove(t *testing.T) {
	fake, cfg := newCluster(t, http.StatusOK, `{"result": "created"}`)
	client, err := NewClient(cfg)
	require.NoError(t, err)
	indexer := NewIndexer(client, cfg)

	recordID := id.New()
	require.NoError(t, indexer.Index(context.Background(), "visitor", recordID, map[string]any{"fullName": "Ada"}))
	assert.Equal(t, "PUT /test-visitor/_doc/"+recordID.String(), fake.lastPath)
	assert.Equal(t, "Ada", fake.lastBody["fullName"])

	fake.status = http.StatusNotFound
	assert.NoError(t, indexer.Remove(context.Background(), "visitor", recordID))
	assert.Equal(t, "DELETE /test-visitor/_doc/"+recordID.String(), fake.lastPath)

	fake.status = http.StatusInternalServerError
	assert.Error(t, indexer.Remove(context.Background(), "visitor", recordID))
}
