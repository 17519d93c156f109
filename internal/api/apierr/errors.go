package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/chargedblocks/internal/model"
	"github.com/mcoot/chargedblocks/internal/world"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeAlreadyBound     = "ALREADY_BOUND"
	CodeNotOwner         = "NOT_OWNER"
	CodeNotBound         = "NOT_BOUND"
	CodeBindingNotFound  = "BINDING_NOT_FOUND"
	CodePlayerOffline    = "PLAYER_OFFLINE"
	CodeTokenNotHeld     = "TOKEN_NOT_HELD"
	CodeTokenNotPlaced   = "TOKEN_NOT_PLACED"
	CodeReservedUses     = "RESERVED_USES"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
	CodeMigrationFailure = "MIGRATION_FAILED"
	CodeInternalError    = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status err maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrAlreadyBound):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyBound, "Token is already bound"}}
	case errors.Is(err, model.ErrNotOwner):
		return &httpError{http.StatusForbidden, APIError{CodeNotOwner, "Only the owner can perform this action"}}
	case errors.Is(err, model.ErrNotBound):
		return &httpError{http.StatusConflict, APIError{CodeNotBound, "Token is not bound"}}
	case errors.Is(err, model.ErrBindingNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeBindingNotFound, "Binding not found"}}
	case errors.Is(err, model.ErrReservedUses):
		return &httpError{http.StatusBadRequest, APIError{CodeReservedUses, "Uses value is out of range"}}
	case errors.Is(err, model.ErrStoreUnavailable):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeStoreUnavailable, "Registry is unavailable"}}
	case errors.Is(err, model.ErrMigrationFailure):
		return &httpError{http.StatusInternalServerError, APIError{CodeMigrationFailure, "Migration failed"}}

	// Map world errors
	case errors.Is(err, world.ErrPlayerOffline):
		return &httpError{http.StatusConflict, APIError{CodePlayerOffline, "Player is not online"}}
	case errors.Is(err, world.ErrTokenNotHeld):
		return &httpError{http.StatusNotFound, APIError{CodeTokenNotHeld, "Token is not in the player's inventory"}}
	case errors.Is(err, world.ErrTokenNotPlaced):
		return &httpError{http.StatusNotFound, APIError{CodeTokenNotPlaced, "Token is not placed in a loaded region"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
