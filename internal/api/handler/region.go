package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/chargedblocks/internal/api/response"
	"github.com/mcoot/chargedblocks/internal/world"
)

// RegionHandler handles region activation reported by the host
type RegionHandler struct {
	world *world.World
}

// NewRegionHandler creates a new region handler
func NewRegionHandler(w *world.World) *RegionHandler {
	return &RegionHandler{world: w}
}

// Load handles PUT /api/v1/regions/{region}/loaded
// Loading an unloaded region sweeps it for bound tokens.
func (h *RegionHandler) Load(w http.ResponseWriter, r *http.Request) {
	h.world.Region(mux.Vars(r)["region"]).SetLoaded(r.Context(), true)
	response.NoContent(w)
}

// Unload handles DELETE /api/v1/regions/{region}/loaded
func (h *RegionHandler) Unload(w http.ResponseWriter, r *http.Request) {
	h.world.Region(mux.Vars(r)["region"]).SetLoaded(r.Context(), false)
	response.NoContent(w)
}
