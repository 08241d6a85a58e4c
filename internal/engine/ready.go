package engine

import (
	"context"
	"fmt"
	"time"
)

// Pinger is satisfied by every Client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// WaitForReady polls Ping until the engine answers or timeout expires.
func WaitForReady(ctx context.Context, p Pinger, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	var last error
	for {
		if last = p.Ping(ctx); last == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for engine: %w (last error: %v)", ctx.Err(), last)
		case <-ticker.C:
		}
	}
}
