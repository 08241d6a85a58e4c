// Package configstore is a lazily loaded, cached key->record store persisted
// as one JSON document per store.
package configstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/indexgate/internal/domain"
)

// Op names used in errors and metrics.
const (
	OpLoad   = "load"
	OpAdd    = "add"
	OpUpdate = "update"
	OpRemove = "remove"
)

// Error wraps a domain sentinel with the store and key it happened on.
type Error struct {
	Store string
	Op    string
	Key   string
	Err   error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s store %s: %v", e.Store, e.Op, e.Err)
	}
	return fmt.Sprintf("%s store %s %q: %v", e.Store, e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Store holds records of type T keyed by string. The cache is filled on first
// access and never expires. Mutations rewrite the whole record set and are
// serialized per store. Records are kept encoded so callers always receive
// their own copy.
type Store[T any] struct {
	name            string
	persister       Persister
	validate        func(T) error
	createIfMissing bool
	writes          *prometheus.CounterVec
	logger          *zap.Logger

	loads   singleflight.Group
	writeMu sync.Mutex
	mu      sync.RWMutex
	records map[string]json.RawMessage // nil until loaded
}

// New creates a store. name labels errors, logs and metrics.
func New[T any](name string, p Persister, logger *zap.Logger) *Store[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store[T]{name: name, persister: p, logger: logger.With(zap.String("store", name))}
}

// WithValidator rejects records failing fn on Add and Update.
func (s *Store[T]) WithValidator(fn func(T) error) *Store[T] {
	s.validate = fn
	return s
}

// WithCreateIfMissing treats a missing backing medium as an empty store.
func (s *Store[T]) WithCreateIfMissing(v bool) *Store[T] {
	s.createIfMissing = v
	return s
}

// WithWriteCounter counts mutations by store, op and result.
func (s *Store[T]) WithWriteCounter(c *prometheus.CounterVec) *Store[T] {
	s.writes = c
	return s
}

// Name returns the store label.
func (s *Store[T]) Name() string { return s.name }

// Load reads the backing medium into the cache. Concurrent callers share one read.
func (s *Store[T]) Load(ctx context.Context) error {
	// The shared load must not die with whichever caller happened to start it.
	ctx = context.WithoutCancel(ctx)
	_, err, _ := s.loads.Do(OpLoad, func() (any, error) {
		return nil, s.load(ctx)
	})
	return err //nolint:wrapcheck // already an *Error
}

func (s *Store[T]) load(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	records := make(map[string]json.RawMessage)
	data, err := s.persister.Read(ctx)
	switch {
	case errors.Is(err, ErrMissing) && s.createIfMissing:
		s.logger.Info("Backing medium missing, starting empty")
	case err != nil:
		return &Error{Store: s.name, Op: OpLoad, Err: fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)}
	case len(data) > 0:
		if err := json.Unmarshal(data, &records); err != nil {
			return &Error{Store: s.name, Op: OpLoad, Err: fmt.Errorf("%w: corrupt content: %w", domain.ErrStoreUnavailable, err)}
		}
	}

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()

	s.logger.Debug("Store loaded", zap.Int("records", len(records)))
	return nil
}

// Loaded reports whether the cache has been filled.
func (s *Store[T]) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records != nil
}

func (s *Store[T]) ensureLoaded(ctx context.Context) error {
	if s.Loaded() {
		return nil
	}
	ctx = context.WithoutCancel(ctx)
	_, err, _ := s.loads.Do(OpLoad, func() (any, error) {
		if s.Loaded() {
			return nil, nil
		}
		return nil, s.load(ctx)
	})
	return err //nolint:wrapcheck // already an *Error
}

// Get returns the record for key. A missing key is reported through found, not an error.
func (s *Store[T]) Get(ctx context.Context, key string) (rec T, found bool, err error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return rec, false, err
	}

	s.mu.RLock()
	raw, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return rec, false, nil
	}

	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, false, &Error{Store: s.name, Op: OpLoad, Key: key, Err: fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)}
	}
	return rec, true, nil
}

// Keys returns all keys in sorted order.
func (s *Store[T]) Keys(ctx context.Context) ([]string, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	keys := slices.Sorted(maps.Keys(s.records))
	s.mu.RUnlock()
	return keys, nil
}

// All returns a copy of every record.
func (s *Store[T]) All(ctx context.Context) (map[string]T, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	snapshot := maps.Clone(s.records)
	s.mu.RUnlock()

	out := make(map[string]T, len(snapshot))
	for k, raw := range snapshot {
		var rec T
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, &Error{Store: s.name, Op: OpLoad, Key: k, Err: fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)}
		}
		out[k] = rec
	}
	return out, nil
}

// Add inserts a new record. Fails with domain.ErrAlreadyExists if key is present.
func (s *Store[T]) Add(ctx context.Context, key string, rec T) error {
	return s.mutate(ctx, OpAdd, key, func(next map[string]json.RawMessage) error {
		if _, ok := next[key]; ok {
			return domain.ErrAlreadyExists
		}
		raw, err := s.encode(rec)
		if err != nil {
			return err
		}
		next[key] = raw
		return nil
	})
}

// Update replaces an existing record. Fails with domain.ErrNotFound if key is absent.
func (s *Store[T]) Update(ctx context.Context, key string, rec T) error {
	return s.mutate(ctx, OpUpdate, key, func(next map[string]json.RawMessage) error {
		if _, ok := next[key]; !ok {
			return domain.ErrNotFound
		}
		raw, err := s.encode(rec)
		if err != nil {
			return err
		}
		next[key] = raw
		return nil
	})
}

// Modify replaces the record at key with fn's result in one serialized cycle,
// so no other mutation can slip in between the read and the write.
// Fails with domain.ErrNotFound if key is absent.
func (s *Store[T]) Modify(ctx context.Context, key string, fn func(T) (T, error)) error {
	return s.mutate(ctx, OpUpdate, key, func(next map[string]json.RawMessage) error {
		raw, ok := next[key]
		if !ok {
			return domain.ErrNotFound
		}
		var cur T
		if err := json.Unmarshal(raw, &cur); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
		}
		updated, err := fn(cur)
		if err != nil {
			return err
		}
		enc, err := s.encode(updated)
		if err != nil {
			return err
		}
		next[key] = enc
		return nil
	})
}

// Remove deletes a record. Fails with domain.ErrNotFound if key is absent.
func (s *Store[T]) Remove(ctx context.Context, key string) error {
	return s.mutate(ctx, OpRemove, key, func(next map[string]json.RawMessage) error {
		if _, ok := next[key]; !ok {
			return domain.ErrNotFound
		}
		delete(next, key)
		return nil
	})
}

func (s *Store[T]) encode(rec T) (json.RawMessage, error) {
	if s.validate != nil {
		if err := s.validate(rec); err != nil {
			return nil, err
		}
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	return raw, nil
}

// mutate runs one read-modify-persist cycle under the write lock. The cache
// only changes after the persister accepted the new record set.
func (s *Store[T]) mutate(ctx context.Context, op, key string, apply func(map[string]json.RawMessage) error) error {
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	next := maps.Clone(s.records)
	s.mu.RUnlock()

	if err := apply(next); err != nil {
		s.count(op, "rejected")
		return &Error{Store: s.name, Op: op, Key: key, Err: err}
	}

	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		s.count(op, "error")
		return &Error{Store: s.name, Op: op, Key: key, Err: fmt.Errorf("%w: encode: %w", domain.ErrPersist, err)}
	}
	if err := s.persister.Write(ctx, data); err != nil {
		s.count(op, "error")
		s.logger.Error("Persist failed", zap.String("op", op), zap.String("key", key), zap.Error(err))
		return &Error{Store: s.name, Op: op, Key: key, Err: fmt.Errorf("%w: %w", domain.ErrPersist, err)}
	}

	s.mu.Lock()
	s.records = next
	s.mu.Unlock()

	s.count(op, "ok")
	return nil
}

func (s *Store[T]) count(op, result string) {
	if s.writes != nil {
		s.writes.WithLabelValues(s.name, op, result).Inc()
	}
}
