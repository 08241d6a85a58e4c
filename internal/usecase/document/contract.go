package document

import (
	"context"
	"encoding/json"

	"github.com/kailas-cloud/indexgate/internal/domain/apikey"
	"github.com/kailas-cloud/indexgate/internal/engine"
)

// Authorizer checks that a key may write to an index.
type Authorizer interface {
	AuthorizeIndex(ctx context.Context, key string, perm apikey.Access, index string) (apikey.Key, error)
}

// Engine is the document part of the engine client.
type Engine interface {
	IndexExists(ctx context.Context, name string) (bool, error)
	IndexDocument(ctx context.Context, name, docType, id string, doc json.RawMessage) (engine.WriteResult, error)
	UpdateDocument(ctx context.Context, name, docType, id string, partial json.RawMessage) error
	DeleteDocument(ctx context.Context, name, docType, id string) error
}
