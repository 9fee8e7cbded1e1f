package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"staffdesk/internal/core/id"
	"staffdesk/internal/domain"
)

// Indexer writes record documents into per-entity indexes.
type Indexer struct {
	client *elasticsearch.Client
	prefix string
}

var _ domain.Indexer = (*Indexer)(nil)

// NewIndexer creates an indexer.
func NewIndexer(client *elasticsearch.Client, cfg Config) *Indexer {
	return &Indexer{client: client, prefix: cfg.IndexPrefix}
}

// Index implements domain.Indexer. The document is the JSON form of doc.
func (x *Indexer) Index(ctx context.Context, entity string, recordID id.ID, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	index := IndexName(x.prefix, entity)
	res, err := esapi.IndexRequest{
		Index:      index,
		DocumentID: recordID.String(),
		Body:       bytes.NewReader(raw),
	}.Do(ctx, x.client)
	if err != nil {
		return fmt.Errorf("index %s/%s: %w", index, recordID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index %s/%s: %s", index, recordID, res.Status())
	}
	return nil
}

// Remove implements domain.Indexer. Missing documents are not an error.
func (x *Indexer) Remove(ctx context.Context, entity string, recordID id.ID) error {
	index := IndexName(x.prefix, entity)
	res, err := esapi.DeleteRequest{
		Index:      index,
		DocumentID: recordID.String(),
	}.Do(ctx, x.client)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", index, recordID, err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete %s/%s: %s", index, recordID, res.Status())
	}
	return nil
}
