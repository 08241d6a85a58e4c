package health

import "context"

// Pinger checks a backend's availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreChecker checks that a config store can be loaded.
type StoreChecker interface {
	Name() string
	Keys(ctx context.Context) ([]string, error)
}
