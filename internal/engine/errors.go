package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/indexgate/internal/domain"
)

// Error carries the engine's own status and reason for a failed call.
type Error struct {
	Op     string
	Index  string
	Status int
	Type   string
	Reason string
	Err    error // transport failure, if any
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("engine %s %s: %v", e.Op, e.Index, e.Err)
	case e.Type != "":
		return fmt.Sprintf("engine %s %s: status %d: %s: %s", e.Op, e.Index, e.Status, e.Type, e.Reason)
	default:
		return fmt.Sprintf("engine %s %s: status %d: %s", e.Op, e.Index, e.Status, e.Reason)
	}
}

// Unwrap exposes ErrEngineUnavailable for transport failures and timeouts,
// ErrEngine for everything the engine answered with an error status.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{domain.ErrEngineUnavailable, e.Err}
	}
	return []error{domain.ErrEngine}
}

// Unavailable reports whether the call never got an engine answer.
func (e *Error) Unavailable() bool { return e.Err != nil }

// NewTransportError wraps a failure to reach the engine.
func NewTransportError(op, name string, err error) *Error {
	return &Error{Op: op, Index: name, Err: err}
}

// IsTimeout reports whether err came from an exceeded deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// Status extracts the engine status code from err, or 0.
func Status(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}
