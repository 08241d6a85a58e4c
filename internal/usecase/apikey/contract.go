package apikey

import (
	"context"

	domkey "github.com/kailas-cloud/indexgate/internal/domain/apikey"
	"github.com/kailas-cloud/indexgate/internal/domain/mapping"
)

// KeyStore is the API key config store.
type KeyStore interface {
	Get(ctx context.Context, key string) (domkey.Key, bool, error)
	All(ctx context.Context) (map[string]domkey.Key, error)
	Add(ctx context.Context, key string, rec domkey.Key) error
	Update(ctx context.Context, key string, rec domkey.Key) error
	Remove(ctx context.Context, key string) error
}

// MappingReader looks up mapping records for index summaries.
type MappingReader interface {
	Get(ctx context.Context, id string) (mapping.Mapping, bool, error)
}

// IndexChecker reports whether a physical index exists.
type IndexChecker interface {
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Authorizer resolves a tenant key.
type Authorizer interface {
	Authorize(ctx context.Context, key string, perm domkey.Access) (domkey.Key, error)
}
