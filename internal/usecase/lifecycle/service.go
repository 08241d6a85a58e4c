// Package lifecycle moves index identifiers through mapped, active and removed states.
package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"go.uber.org/zap"

	"github.com/kailas-cloud/indexgate/internal/domain"
	"github.com/kailas-cloud/indexgate/internal/domain/apikey"
	"github.com/kailas-cloud/indexgate/internal/domain/index"
	"github.com/kailas-cloud/indexgate/internal/domain/mapping"
)

// Service coordinates mapping records, the schema compiler and the engine.
// Multi-step operations are not transactional; a failure leaves the state the
// completed steps produced and says so in the returned error.
type Service struct {
	mappings MappingStore
	keys     KeyStore
	compiler Compiler
	engine   Engine
	logger   *zap.Logger
}

// New creates a lifecycle service.
func New(mappings MappingStore, keys KeyStore, compiler Compiler, engine Engine, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{mappings: mappings, keys: keys, compiler: compiler, engine: engine, logger: logger}
}

// CreateMapping stores a new mapping record. Unmapped -> Mapped.
func (s *Service) CreateMapping(ctx context.Context, id string, m mapping.Mapping) error {
	if err := mapping.ValidateIndexID(id); err != nil {
		return err //nolint:wrapcheck // domain validation error
	}
	if err := m.Validate(); err != nil {
		return err //nolint:wrapcheck // domain validation error
	}
	if err := s.mappings.Add(ctx, id, m); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return fmt.Errorf("%w: mapping %s already exists: %w", domain.ErrConflict, id, err)
		}
		return fmt.Errorf("add mapping: %w", err)
	}
	return nil
}

// GetMapping returns the mapping record for id.
func (s *Service) GetMapping(ctx context.Context, id string) (mapping.Mapping, error) {
	if err := mapping.ValidateIndexID(id); err != nil {
		return mapping.Mapping{}, err //nolint:wrapcheck // domain validation error
	}
	m, found, err := s.mappings.Get(ctx, id)
	if err != nil {
		return mapping.Mapping{}, fmt.Errorf("get mapping: %w", err)
	}
	if !found {
		return mapping.Mapping{}, fmt.Errorf("mapping %s: %w", id, domain.ErrNotFound)
	}
	return m, nil
}

// ListMappings returns every mapping record keyed by index identifier.
func (s *Service) ListMappings(ctx context.Context) (map[string]mapping.Mapping, error) {
	all, err := s.mappings.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	return all, nil
}

// UpdateMapping replaces a mapping record. An active index keeps the schema it
// was built with until it is flushed.
func (s *Service) UpdateMapping(ctx context.Context, id string, m mapping.Mapping) error {
	if err := mapping.ValidateIndexID(id); err != nil {
		return err //nolint:wrapcheck // domain validation error
	}
	if err := m.Validate(); err != nil {
		return err //nolint:wrapcheck // domain validation error
	}
	if err := s.mappings.Update(ctx, id, m); err != nil {
		return fmt.Errorf("update mapping: %w", err)
	}
	return nil
}

// RemoveMapping deletes a mapping record whose index is not active.
func (s *Service) RemoveMapping(ctx context.Context, id string) error {
	if err := mapping.ValidateIndexID(id); err != nil {
		return err //nolint:wrapcheck // domain validation error
	}
	exists, err := s.engine.IndexExists(ctx, id)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: index %s is active, remove the index instead", domain.ErrConflict, id)
	}
	if err := s.mappings.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove mapping: %w", err)
	}
	return nil
}

// Activate compiles the mapping and creates the physical index. Mapped -> Active.
func (s *Service) Activate(ctx context.Context, id string) (Result, error) {
	m, err := s.GetMapping(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if err := s.create(ctx, id, m); err != nil {
		return Result{}, err
	}

	s.logger.Info("Index created", zap.String("index", id), zap.String("name", m.Name))
	return Result{Index: id, Message: MsgIndexCreated}, nil
}

// Flush drops every document by deleting and recreating the physical index
// from the current mapping record. Active -> Active.
func (s *Service) Flush(ctx context.Context, id string) (Result, error) {
	m, err := s.GetMapping(ctx, id)
	if err != nil {
		return Result{}, err
	}
	exists, err := s.engine.IndexExists(ctx, id)
	if err != nil {
		return Result{}, fmt.Errorf("check index: %w", err)
	}
	if !exists {
		return Result{}, fmt.Errorf("%w: index %s is not active", domain.ErrConflict, id)
	}

	definition, err := s.compile(m)
	if err != nil {
		return Result{}, err
	}
	if err := s.engine.DeleteIndex(ctx, id); err != nil {
		return Result{}, fmt.Errorf("delete index: %w", err)
	}
	if err := s.engine.CreateIndex(ctx, id, definition); err != nil {
		s.logger.Error("Flush left index deleted", zap.String("index", id), zap.Error(err))
		return Result{}, fmt.Errorf("%w: index %s deleted but not recreated: %w", domain.ErrPartialFailure, id, err)
	}

	s.logger.Info("Index flushed", zap.String("index", id))
	return Result{Index: id, Message: MsgIndexFlushed}, nil
}

// Remove deletes the physical index, the mapping record and every API key's
// reference to id. Mapped|Active -> Removed. The report lists what happened;
// on partial failure it is returned as the error too.
func (s *Service) Remove(ctx context.Context, id string) (*RemoveReport, error) {
	if err := mapping.ValidateIndexID(id); err != nil {
		return nil, err //nolint:wrapcheck // domain validation error
	}
	report := &RemoveReport{Index: id}

	exists, err := s.engine.IndexExists(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("check index: %w", err)
	}
	_, mapped, err := s.mappings.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get mapping: %w", err)
	}
	if !exists && !mapped {
		return nil, fmt.Errorf("index %s: %w", id, domain.ErrNotFound)
	}

	if exists {
		if err := s.engine.DeleteIndex(ctx, id); err != nil {
			return nil, fmt.Errorf("delete index: %w", err)
		}
		report.IndexDeleted = true
	}

	if mapped {
		if err := s.mappings.Remove(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
			report.fail("remove mapping", err)
			s.logger.Error("Index removal incomplete", zap.String("index", id), zap.Error(report))
			return report, report
		}
		report.MappingDeleted = true
	}

	s.scrubKeys(ctx, id, report)
	if !report.Complete() {
		s.logger.Error("Index removal incomplete", zap.String("index", id), zap.Error(report))
		return report, report
	}

	s.logger.Info("Index removed",
		zap.String("index", id),
		zap.Bool("index_deleted", report.IndexDeleted),
		zap.Int("keys_scrubbed", len(report.ScrubbedKeys)),
	)
	return report, nil
}

func (s *Service) scrubKeys(ctx context.Context, id string, report *RemoveReport) {
	keys, err := s.keys.All(ctx)
	if err != nil {
		report.fail("list api keys", err)
		return
	}

	for _, key := range slices.Sorted(maps.Keys(keys)) {
		if !keys[key].Allows(id) {
			continue
		}
		err := s.keys.Modify(ctx, key, func(k apikey.Key) (apikey.Key, error) {
			return k.WithoutIndex(id), nil
		})
		switch {
		case err == nil:
			report.ScrubbedKeys = append(report.ScrubbedKeys, key)
		case errors.Is(err, domain.ErrNotFound):
			// removed concurrently, nothing left to scrub
		default:
			if report.FailedKeys == nil {
				report.FailedKeys = make(map[string]string)
			}
			report.FailedKeys[key] = err.Error()
		}
	}
}

// Catalog lists the physical indexes the engine knows about.
func (s *Service) Catalog(ctx context.Context) ([]index.CatalogEntry, error) {
	entries, err := s.engine.Catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return entries, nil
}

// State derives the lifecycle state of id.
func (s *Service) State(ctx context.Context, id string) (index.State, error) {
	if err := mapping.ValidateIndexID(id); err != nil {
		return "", err //nolint:wrapcheck // domain validation error
	}
	exists, err := s.engine.IndexExists(ctx, id)
	if err != nil {
		return "", fmt.Errorf("check index: %w", err)
	}
	if exists {
		return index.Active, nil
	}
	_, mapped, err := s.mappings.Get(ctx, id)
	if err != nil {
		return "", fmt.Errorf("get mapping: %w", err)
	}
	if mapped {
		return index.Mapped, nil
	}
	return index.Unmapped, nil
}

func (s *Service) create(ctx context.Context, id string, m mapping.Mapping) error {
	definition, err := s.compile(m)
	if err != nil {
		return err
	}
	if err := s.engine.CreateIndex(ctx, id, definition); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

func (s *Service) compile(m mapping.Mapping) (json.RawMessage, error) {
	def, err := s.compiler.Compile(m)
	if err != nil {
		return nil, fmt.Errorf("compile mapping: %w", err)
	}
	raw, err := def.JSON()
	if err != nil {
		return nil, fmt.Errorf("compile mapping: %w", err)
	}
	return raw, nil
}
