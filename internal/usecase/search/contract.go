package search

import (
	"context"
	"encoding/json"

	"github.com/kailas-cloud/indexgate/internal/domain/apikey"
	"github.com/kailas-cloud/indexgate/internal/domain/mapping"
	"github.com/kailas-cloud/indexgate/internal/engine"
)

// Authorizer checks that a key may read an index.
type Authorizer interface {
	AuthorizeIndex(ctx context.Context, key string, perm apikey.Access, index string) (apikey.Key, error)
}

// MappingReader looks up the mapping an index was built from.
type MappingReader interface {
	Get(ctx context.Context, id string) (mapping.Mapping, bool, error)
}

// Searcher runs a physical query against the engine.
type Searcher interface {
	Search(ctx context.Context, name, docType string, body json.RawMessage) (engine.SearchResult, error)
}
