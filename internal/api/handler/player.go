package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mcoot/chargedblocks/internal/api/request"
	"github.com/mcoot/chargedblocks/internal/api/response"
	"github.com/mcoot/chargedblocks/internal/model"
	"github.com/mcoot/chargedblocks/internal/session"
	"github.com/mcoot/chargedblocks/internal/world"
)

// DefaultRegion is where players join when no region is given
const DefaultRegion = "overworld"

// PlayerHandler handles presence and per-player session endpoints
type PlayerHandler struct {
	world   *world.World
	session *session.State
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(w *world.World, state *session.State) *PlayerHandler {
	return &PlayerHandler{
		world:   w,
		session: state,
	}
}

// Join handles PUT /api/v1/players/{owner}/presence
func (h *PlayerHandler) Join(w http.ResponseWriter, r *http.Request) {
	owner, err := pathOwner(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Name == "" {
		WriteError(w, NewInvalidRequestError("name is required"))
		return
	}
	if req.Region == "" {
		req.Region = DefaultRegion
	}

	// The world's listener sweeps whatever the player brings online
	p := h.world.Join(r.Context(), model.Player{ID: owner, Name: req.Name}, req.Region, world.Vec3i{})
	response.JSON(w, http.StatusOK, response.Presence{
		PlayerID: p.ID.String(),
		Name:     p.Name,
		Region:   p.Region,
	})
}

// Leave handles DELETE /api/v1/players/{owner}/presence
// Session state held for the player is dropped with them.
func (h *PlayerHandler) Leave(w http.ResponseWriter, r *http.Request) {
	owner, err := pathOwner(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	h.world.Leave(owner)
	if err := h.session.Forget(r.Context(), owner); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// SetSearch handles PUT /api/v1/players/{owner}/search
func (h *PlayerHandler) SetSearch(w http.ResponseWriter, r *http.Request) {
	owner, err := pathOwner(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	h.session.SetSearch(owner, req.Search)
	response.NoContent(w)
}
