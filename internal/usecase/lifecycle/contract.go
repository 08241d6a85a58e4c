package lifecycle

import (
	"context"
	"encoding/json"

	"github.com/kailas-cloud/indexgate/internal/domain/apikey"
	"github.com/kailas-cloud/indexgate/internal/domain/index"
	"github.com/kailas-cloud/indexgate/internal/domain/mapping"
	"github.com/kailas-cloud/indexgate/internal/schema"
)

// MappingStore persists mapping records keyed by index identifier.
type MappingStore interface {
	Get(ctx context.Context, id string) (mapping.Mapping, bool, error)
	All(ctx context.Context) (map[string]mapping.Mapping, error)
	Add(ctx context.Context, id string, m mapping.Mapping) error
	Update(ctx context.Context, id string, m mapping.Mapping) error
	Remove(ctx context.Context, id string) error
}

// KeyStore is the part of the API key store touched when an index goes away.
type KeyStore interface {
	All(ctx context.Context) (map[string]apikey.Key, error)
	Modify(ctx context.Context, key string, fn func(apikey.Key) (apikey.Key, error)) error
}

// Compiler turns a mapping into an index definition.
type Compiler interface {
	Compile(m mapping.Mapping) (schema.Definition, error)
}

// Engine is the index administration part of the engine client.
type Engine interface {
	IndexExists(ctx context.Context, name string) (bool, error)
	CreateIndex(ctx context.Context, name string, definition json.RawMessage) error
	DeleteIndex(ctx context.Context, name string) error
	Catalog(ctx context.Context) ([]index.CatalogEntry, error)
}
