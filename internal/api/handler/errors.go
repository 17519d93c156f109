package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/mcoot/chargedblocks/internal/api/apierr"
	"github.com/mcoot/chargedblocks/internal/model"
)

// Re-export from apierr for convenience
type APIError = apierr.APIError
type ErrorResponse = apierr.ErrorResponse

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}

// pathOwner returns the {owner} path variable
func pathOwner(r *http.Request) (model.PlayerID, error) {
	id, err := uuid.Parse(mux.Vars(r)["owner"])
	if err != nil {
		return model.PlayerID{}, NewInvalidRequestError("owner must be a UUID")
	}
	return id, nil
}

// pathToken returns the {owner} and {token_id} path variables
func pathToken(r *http.Request) (model.PlayerID, model.TokenID, error) {
	owner, err := pathOwner(r)
	if err != nil {
		return owner, model.TokenID{}, err
	}
	id, err := uuid.Parse(mux.Vars(r)["token_id"])
	if err != nil {
		return owner, model.TokenID{}, NewInvalidRequestError("token_id must be a UUID")
	}
	return owner, id, nil
}
