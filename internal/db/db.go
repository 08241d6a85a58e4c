// Package db holds the narrow key-value contracts shared-state backends implement.
package db

import (
	"context"
	"time"
)

// Store is the key-value facade used when config stores are shared through Redis.
type Store interface {
	Pinger
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides whole-value get/set.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
}
