package indexgate

import (
	"errors"
	"fmt"

	"github.com/kailas-cloud/indexgate/internal/domain"
)

// Sentinel errors. Use errors.Is() to check an *APIError against them.
var (
	ErrNotFound          = domain.ErrNotFound
	ErrAlreadyExists     = domain.ErrAlreadyExists
	ErrUnknownIndex      = domain.ErrUnknownIndex
	ErrConflict          = domain.ErrConflict
	ErrPartialFailure    = domain.ErrPartialFailure
	ErrEngine            = domain.ErrEngine
	ErrEngineUnavailable = domain.ErrEngineUnavailable
	ErrStoreUnavailable  = domain.ErrStoreUnavailable
	ErrPersist           = domain.ErrPersist

	// ErrUnauthorized covers every rejected credential. The server does not
	// say which check failed.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation signals a mapping or key record the server refused.
	ErrValidation = errors.New("validation failed")
	// ErrBadRequest signals a malformed request body or query.
	ErrBadRequest = errors.New("bad request")
)

var codeSentinels = map[string]error{
	"unauthorized":       ErrUnauthorized,
	"validation_failed":  ErrValidation,
	"bad_request":        ErrBadRequest,
	"not_found":          ErrNotFound,
	"unknown_index":      ErrUnknownIndex,
	"conflict":           ErrConflict,
	"already_exists":     ErrAlreadyExists,
	"partial_failure":    ErrPartialFailure,
	"engine_error":       ErrEngine,
	"engine_unavailable": ErrEngineUnavailable,
	"store_unavailable":  ErrStoreUnavailable,
	"persist_failed":     ErrPersist,
}

// APIError is a non-2xx response.
type APIError struct {
	Op      string
	Status  int
	Code    string
	Message string
	// Report is set for partial index removals.
	Report *RemoveReport
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("indexgate: %s: status %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("indexgate: %s: %s (%d): %s", e.Op, e.Code, e.Status, e.Message)
}

// Unwrap maps the response code to a sentinel.
func (e *APIError) Unwrap() error {
	return codeSentinels[e.Code]
}

type errorBody struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Report  *RemoveReport `json:"report,omitempty"`
}
