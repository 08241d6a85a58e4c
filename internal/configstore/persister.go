package configstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kailas-cloud/indexgate/internal/db"
)

// ErrMissing is returned by a Persister whose backing medium does not exist yet.
var ErrMissing = errors.New("configstore: backing medium missing")

// Persister reads and writes the whole encoded record set.
type Persister interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}

// FilePersister keeps the record set in a single file. Writes go to a
// temporary sibling first and are renamed into place.
type FilePersister struct {
	path string
}

// NewFilePersister creates a file persister for path.
func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: filepath.Clean(path)}
}

// Path returns the backing file path.
func (p *FilePersister) Path() string { return p.path }

// Read returns the file content or ErrMissing.
func (p *FilePersister) Read(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrMissing
		}
		return nil, fmt.Errorf("read %s: %w", p.path, err)
	}
	return data, nil
}

// Write replaces the file content atomically.
func (p *FilePersister) Write(_ context.Context, data []byte) error {
	dir, base := filepath.Split(p.path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", p.path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		cleanup()
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, p.path); err != nil {
		cleanup()
		return fmt.Errorf("rename into %s: %w", p.path, err)
	}
	return nil
}

// kv is the consumer interface for Redis-backed persistence (ISP).
type kv interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// RedisPersister keeps the record set under one Redis key, so several
// processes can share a store.
type RedisPersister struct {
	store kv
	key   string
}

// NewRedisPersister creates a persister writing to key.
func NewRedisPersister(s kv, key string) *RedisPersister {
	return &RedisPersister{store: s, key: key}
}

// Read returns the stored document or ErrMissing.
func (p *RedisPersister) Read(ctx context.Context) ([]byte, error) {
	data, err := p.store.Get(ctx, p.key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, ErrMissing
		}
		return nil, fmt.Errorf("get %s: %w", p.key, err)
	}
	return data, nil
}

// Write replaces the stored document.
func (p *RedisPersister) Write(ctx context.Context, data []byte) error {
	if err := p.store.Set(ctx, p.key, data); err != nil {
		return fmt.Errorf("set %s: %w", p.key, err)
	}
	return nil
}
