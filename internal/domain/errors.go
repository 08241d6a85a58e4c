package domain

import "errors"

// Authorization errors. Transport renders all three identically; they stay
// distinct for logging.
var (
	// ErrKeyNotFound signals an API key without a record.
	ErrKeyNotFound = errors.New("api key not found")
	// ErrPermissionDenied signals an access level below the required permission.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrIndexNotAllowed signals an index outside the key's allow-list.
	ErrIndexNotAllowed = errors.New("index not allowed")
)

// Config store errors.
var (
	// ErrNotFound signals a missing record.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a duplicate record key.
	ErrAlreadyExists = errors.New("already exists")
	// ErrPersist signals a failed write of the backing medium.
	ErrPersist = errors.New("persist failed")
	// ErrStoreUnavailable signals a missing or corrupt backing medium.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Engine errors.
var (
	// ErrEngine signals that the engine rejected a request (bad schema, existing index, ...).
	ErrEngine = errors.New("engine error")
	// ErrEngineUnavailable signals an unreachable engine or a timed out call.
	ErrEngineUnavailable = errors.New("engine unavailable")
)

var (
	// ErrInvalidQuery signals a query body that is not a JSON object.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrUnknownIndex signals an index without a mapping record or without a physical index.
	ErrUnknownIndex = errors.New("unknown index")
	// ErrConflict signals a lifecycle transition that is not allowed from the current state.
	ErrConflict = errors.New("conflict")
	// ErrInvalidMapping signals a mapping record that failed validation.
	ErrInvalidMapping = errors.New("invalid mapping")
	// ErrInvalidAPIKey signals an API key record that failed validation.
	ErrInvalidAPIKey = errors.New("invalid api key record")
	// ErrPartialFailure signals a multi-step operation that stopped half way.
	ErrPartialFailure = errors.New("partial failure")
)

// IsUnauthorized reports whether err is one of the authorization failures.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrKeyNotFound) ||
		errors.Is(err, ErrPermissionDenied) ||
		errors.Is(err, ErrIndexNotAllowed)
}
