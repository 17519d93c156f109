package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/mcoot/chargedblocks/internal/api/apierr"
	"github.com/mcoot/chargedblocks/internal/model"
)

type contextKey string

const actorContextKey contextKey = "actor"

// ActorHeader carries the id of the player making the request
const ActorHeader = "X-Player-ID"

// Actor requires the calling player's id and puts it in the context.
// The id comes from ActorHeader, or a bearer token holding the id.
func Actor() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractActor(r)
			if raw == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}
			actor, err := uuid.Parse(raw)
			if err != nil {
				apierr.WriteError(w, apierr.NewInvalidRequestError("player id must be a UUID"))
				return
			}

			ctx := context.WithValue(r.Context(), actorContextKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OwnerOnly rejects requests whose actor is not the {owner} path variable.
// It must run after Actor.
func OwnerOnly() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner, err := uuid.Parse(mux.Vars(r)["owner"])
			if err != nil {
				apierr.WriteError(w, apierr.NewInvalidRequestError("owner must be a UUID"))
				return
			}
			if actor, ok := GetActor(r.Context()); !ok || actor != owner {
				apierr.WriteError(w, model.ErrNotOwner)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractActor extracts the player id from the request
func extractActor(r *http.Request) string {
	if v := r.Header.Get(ActorHeader); v != "" {
		return v
	}
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// GetActor returns the calling player from the request context
func GetActor(ctx context.Context) (model.PlayerID, bool) {
	actor, ok := ctx.Value(actorContextKey).(model.PlayerID)
	return actor, ok
}
