// Package apikey manages tenant API keys and the indexes they can see.
package apikey

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/indexgate/internal/domain"
	domkey "github.com/kailas-cloud/indexgate/internal/domain/apikey"
	"github.com/kailas-cloud/indexgate/internal/domain/index"
)

// Entry pairs a key secret with its record.
type Entry struct {
	Key    string     `json:"key"`
	Record domkey.Key `json:"record"`
}

// Service is the API key use case.
type Service struct {
	keys     KeyStore
	mappings MappingReader
	engine   IndexChecker
	guard    Authorizer
	logger   *zap.Logger
}

// New creates an API key service.
func New(keys KeyStore, mappings MappingReader, engine IndexChecker, guard Authorizer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{keys: keys, mappings: mappings, engine: engine, guard: guard, logger: logger}
}

// Create stores rec under key. An empty key gets a generated one, which is returned.
func (s *Service) Create(ctx context.Context, key string, rec domkey.Key) (string, error) {
	if key == "" {
		key = uuid.NewString()
	}
	if err := rec.Validate(); err != nil {
		return "", err //nolint:wrapcheck // already carries ErrInvalidAPIKey
	}
	if rec.Indexes == nil {
		rec.Indexes = []string{}
	}

	if err := s.keys.Add(ctx, key, rec); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return "", fmt.Errorf("%w: %w", domain.ErrConflict, err)
		}
		return "", fmt.Errorf("add api key: %w", err)
	}
	s.logger.Info("API key created", zap.String("name", rec.Name), zap.String("access", string(rec.Access)))
	return key, nil
}

// Get returns the record for key.
func (s *Service) Get(ctx context.Context, key string) (domkey.Key, error) {
	rec, found, err := s.keys.Get(ctx, key)
	if err != nil {
		return domkey.Key{}, fmt.Errorf("get api key: %w", err)
	}
	if !found {
		return domkey.Key{}, fmt.Errorf("%w: api key", domain.ErrNotFound)
	}
	return rec, nil
}

// List returns every key ordered by secret.
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	all, err := s.keys.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	out := make([]Entry, 0, len(all))
	for k, rec := range all {
		out = append(out, Entry{Key: k, Record: rec})
	}
	slices.SortFunc(out, func(a, b Entry) int { return cmp.Compare(a.Key, b.Key) })
	return out, nil
}

// Update replaces the record for an existing key.
func (s *Service) Update(ctx context.Context, key string, rec domkey.Key) error {
	if err := rec.Validate(); err != nil {
		return err //nolint:wrapcheck // already carries ErrInvalidAPIKey
	}
	if rec.Indexes == nil {
		rec.Indexes = []string{}
	}
	if err := s.keys.Update(ctx, key, rec); err != nil {
		return fmt.Errorf("update api key: %w", err)
	}
	return nil
}

// Remove deletes key.
func (s *Service) Remove(ctx context.Context, key string) error {
	if err := s.keys.Remove(ctx, key); err != nil {
		return fmt.Errorf("remove api key: %w", err)
	}
	s.logger.Info("API key removed")
	return nil
}

// ListIndexes describes every index on the allow-list of key, in allow-list order.
func (s *Service) ListIndexes(ctx context.Context, key string) ([]index.Summary, error) {
	rec, err := s.guard.Authorize(ctx, key, domkey.Read)
	if err != nil {
		return nil, err //nolint:wrapcheck // authorization errors pass through as is
	}

	out := make([]index.Summary, 0, len(rec.Indexes))
	for _, id := range rec.Indexes {
		sum, err := s.summary(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, nil
}

func (s *Service) summary(ctx context.Context, id string) (index.Summary, error) {
	sum := index.Summary{Index: id, State: index.Unmapped}

	m, found, err := s.mappings.Get(ctx, id)
	if err != nil {
		return sum, fmt.Errorf("get mapping %s: %w", id, err)
	}
	if !found {
		return sum, nil
	}
	sum.Name = m.Name
	sum.Tag = m.Tag
	sum.State = index.Mapped

	exists, err := s.engine.IndexExists(ctx, id)
	if err != nil {
		return sum, fmt.Errorf("check index %s: %w", id, err)
	}
	if exists {
		sum.State = index.Active
	}
	return sum, nil
}
