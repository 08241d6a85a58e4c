// Package engine defines the contract the proxy needs from the document search engine.
package engine

import (
	"context"
	"encoding/json"

	"github.com/kailas-cloud/indexgate/internal/domain/index"
)

// Client is the engine surface used by the lifecycle, document and search services.
// Implementations must be safe for concurrent use.
type Client interface {
	IndexExists(ctx context.Context, name string) (bool, error)
	CreateIndex(ctx context.Context, name string, definition json.RawMessage) error
	DeleteIndex(ctx context.Context, name string) error

	IndexDocument(ctx context.Context, name, docType, id string, doc json.RawMessage) (WriteResult, error)
	UpdateDocument(ctx context.Context, name, docType, id string, partial json.RawMessage) error
	DeleteDocument(ctx context.Context, name, docType, id string) error

	Search(ctx context.Context, name, docType string, body json.RawMessage) (SearchResult, error)
	Catalog(ctx context.Context) ([]index.CatalogEntry, error)
	Ping(ctx context.Context) error
}

// WriteResult tells whether an index call created a new document or replaced one.
type WriteResult string

const (
	// Created means no document with that id existed.
	Created WriteResult = "created"
	// Updated means an existing document was replaced.
	Updated WriteResult = "updated"
)

// SearchResult is the engine response reduced to what the query layer reads.
type SearchResult struct {
	Total        int64
	Hits         []Hit
	Aggregations json.RawMessage
}

// Hit is one raw engine hit.
type Hit struct {
	ID        string
	Score     *float64
	Source    json.RawMessage
	Highlight json.RawMessage
}
