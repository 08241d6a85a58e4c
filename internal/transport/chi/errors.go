package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/indexgate/internal/domain"
	"github.com/kailas-cloud/indexgate/internal/engine"
	"github.com/kailas-cloud/indexgate/internal/logger"
	"github.com/kailas-cloud/indexgate/internal/usecase/lifecycle"
)

// ErrorCode is the machine-readable part of an error response.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest        ErrorCode = "bad_request"
	CodeValidationFailed  ErrorCode = "validation_failed"
	CodeUnauthorized      ErrorCode = "unauthorized"
	CodeNotFound          ErrorCode = "not_found"
	CodeUnknownIndex      ErrorCode = "unknown_index"
	CodeConflict          ErrorCode = "conflict"
	CodeAlreadyExists     ErrorCode = "already_exists"
	CodePartialFailure    ErrorCode = "partial_failure"
	CodeEngineError       ErrorCode = "engine_error"
	CodeEngineUnavailable ErrorCode = "engine_unavailable"
	CodeStoreUnavailable  ErrorCode = "store_unavailable"
	CodePersistFailed     ErrorCode = "persist_failed"
	CodeInternalError     ErrorCode = "internal_error"
)

// accessDenied is the one message every authorization failure gets, so a
// caller cannot tell a missing key from a forbidden index.
const accessDenied = "access denied"

// ErrorResponse is the JSON body of every error.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, r *http.Request, err error) bool

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		unauthorizedHandler,
		detailHandler(domain.ErrInvalidMapping, http.StatusBadRequest, CodeValidationFailed),
		detailHandler(domain.ErrInvalidAPIKey, http.StatusBadRequest, CodeValidationFailed),
		detailHandler(domain.ErrInvalidQuery, http.StatusBadRequest, CodeBadRequest),
		partialFailureHandler,
		sentinelHandler(domain.ErrUnknownIndex, http.StatusNotFound, CodeUnknownIndex),
		sentinelHandler(domain.ErrConflict, http.StatusConflict, CodeConflict),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, CodeAlreadyExists),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrEngineUnavailable, http.StatusServiceUnavailable, CodeEngineUnavailable),
		engineErrorHandler,
		sentinelHandler(domain.ErrStoreUnavailable, http.StatusServiceUnavailable, CodeStoreUnavailable),
		sentinelHandler(domain.ErrPersist, http.StatusInternalServerError, CodePersistFailed),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// unauthorizedHandler renders every authorization failure the same way and
// logs which one it was.
func unauthorizedHandler(w http.ResponseWriter, r *http.Request, err error) bool {
	if !domain.IsUnauthorized(err) {
		return false
	}
	logger.FromContext(r.Context()).Warn("Access denied", zap.String("reason", authReason(err)))
	writeError(w, http.StatusUnauthorized, CodeUnauthorized, accessDenied)
	return true
}

func authReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrKeyNotFound):
		return "key_not_found"
	case errors.Is(err, domain.ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, domain.ErrIndexNotAllowed):
		return "index_not_allowed"
	default:
		return "invalid_token"
	}
}

// sentinelHandler returns an errorHandler that matches a single sentinel error
// and answers with the sentinel's own text.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, _ *http.Request, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

// detailHandler is sentinelHandler for validation errors, whose full text is
// meant for the client.
func detailHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, _ *http.Request, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

// engineErrorHandler passes the engine's status and reason through.
func engineErrorHandler(w http.ResponseWriter, _ *http.Request, err error) bool {
	var engErr *engine.Error
	if !errors.As(err, &engErr) || engErr.Unavailable() {
		return false
	}
	status := engErr.Status
	if status < 400 || status > 599 {
		status = http.StatusBadGateway
	}
	msg := engErr.Reason
	if engErr.Type != "" {
		msg = engErr.Type + ": " + engErr.Reason
	}
	writeError(w, status, CodeEngineError, msg)
	return true
}

// partialFailureHandler reports which steps of a multi-step operation took effect.
func partialFailureHandler(w http.ResponseWriter, _ *http.Request, err error) bool {
	if !errors.Is(err, domain.ErrPartialFailure) {
		return false
	}
	var report *lifecycle.RemoveReport
	if errors.As(err, &report) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"code":    CodePartialFailure,
			"message": report.Error(),
			"report":  report,
		})
		return true
	}
	writeError(w, http.StatusInternalServerError, CodePartialFailure, err.Error())
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, r, err) {
			if !domain.IsUnauthorized(err) {
				log.Warn("Domain error", zap.Error(err))
			}
			return
		}
	}
	log.Error("Internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
