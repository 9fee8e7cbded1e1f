package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"staffdesk/internal/core/id"
	"staffdesk/internal/domain"
	"staffdesk/internal/infrastructure/metrics"
	"staffdesk/internal/metadata"
)

// Searcher answers searches of one entity from its index.
type Searcher struct {
	client  *elasticsearch.Client
	index   string
	def     metadata.EntityDef
	timeout time.Duration
}

var _ domain.FullTextSearcher = (*Searcher)(nil)

// NewSearcher creates a searcher over the index of def.
func NewSearcher(client *elasticsearch.Client, cfg Config, def metadata.EntityDef) *Searcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Searcher{
		client:  client,
		index:   IndexName(cfg.IndexPrefix, def.Name),
		def:     def,
		timeout: timeout,
	}
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

// SearchIDs implements domain.FullTextSearcher.
func (s *Searcher) SearchIDs(ctx context.Context, query domain.SearchQuery) (ids []id.ID, total int64, err error) {
	defer func(start time.Time) {
		metrics.ObserveSearch(s.def.Name, metrics.BackendElastic, start, err)
	}(time.Now())

	body, err := BuildQuery(s.def, query)
	if err != nil {
		return nil, 0, err
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("encode query: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(raw),
	}.Do(ctx, s.client)
	if err != nil {
		return nil, 0, fmt.Errorf("search %s: %w", s.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, 0, fmt.Errorf("search %s: %s", s.index, res.Status())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, 0, fmt.Errorf("decode search response: %w", err)
	}

	ids = make([]id.ID, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		hitID, err := id.Parse(hit.ID)
		if err != nil {
			return nil, 0, fmt.Errorf("search %s: bad document id %q", s.index, hit.ID)
		}
		ids = append(ids, hitID)
	}
	return ids, parsed.Hits.Total.Value, nil
}
