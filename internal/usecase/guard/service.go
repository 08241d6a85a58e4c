// Package guard decides whether an API key may perform an operation.
package guard

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/indexgate/internal/domain"
	"github.com/kailas-cloud/indexgate/internal/domain/apikey"
)

// Service checks API keys against required permissions and index allow-lists.
type Service struct {
	keys KeyReader
}

// New creates a guard over the API key store.
func New(keys KeyReader) *Service {
	return &Service{keys: keys}
}

// Authorize checks that key exists and its access satisfies perm.
// The key record is returned on success.
func (s *Service) Authorize(ctx context.Context, key string, perm apikey.Access) (apikey.Key, error) {
	if key == "" {
		return apikey.Key{}, domain.ErrKeyNotFound
	}

	rec, found, err := s.keys.Get(ctx, key)
	if err != nil {
		return apikey.Key{}, fmt.Errorf("load api key: %w", err)
	}
	if !found {
		return apikey.Key{}, domain.ErrKeyNotFound
	}
	if !rec.Access.Satisfies(perm) {
		return apikey.Key{}, fmt.Errorf("%w: %q does not grant %q", domain.ErrPermissionDenied, rec.Access, perm)
	}
	return rec, nil
}

// AuthorizeIndex is Authorize plus a membership check of index in the key's allow-list.
func (s *Service) AuthorizeIndex(ctx context.Context, key string, perm apikey.Access, index string) (apikey.Key, error) {
	rec, err := s.Authorize(ctx, key, perm)
	if err != nil {
		return apikey.Key{}, err
	}
	if !rec.Allows(index) {
		return apikey.Key{}, fmt.Errorf("%w: %s", domain.ErrIndexNotAllowed, index)
	}
	return rec, nil
}
