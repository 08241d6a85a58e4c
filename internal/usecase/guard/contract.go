package guard

import (
	"context"

	"github.com/kailas-cloud/indexgate/internal/domain/apikey"
)

// KeyReader looks up API key records.
type KeyReader interface {
	Get(ctx context.Context, key string) (apikey.Key, bool, error)
}
