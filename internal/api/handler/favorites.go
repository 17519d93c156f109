package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/chargedblocks/internal/api/response"
	"github.com/mcoot/chargedblocks/internal/model"
	"github.com/mcoot/chargedblocks/internal/services/favorites"
	"github.com/mcoot/chargedblocks/internal/world"
)

// FavoriteHandler handles favorite-related endpoints
type FavoriteHandler struct {
	favorites *favorites.Service
	catalog   world.Catalog
}

// NewFavoriteHandler creates a new favorite handler
func NewFavoriteHandler(favorites *favorites.Service, catalog world.Catalog) *FavoriteHandler {
	return &FavoriteHandler{
		favorites: favorites,
		catalog:   catalog,
	}
}

// List handles GET /api/v1/players/{owner}/favorites
func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, err := pathOwner(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	allowed := h.catalog.AllowedKinds(r.Context(), owner)
	kinds, err := h.favorites.List(r.Context(), owner, allowed)
	if err != nil {
		WriteError(w, err)
		return
	}

	out := make([]response.Favorite, len(kinds))
	for i, k := range kinds {
		out[i] = response.Favorite{Kind: string(k), DisplayName: h.catalog.DisplayName(k)}
	}
	response.JSON(w, http.StatusOK, response.FavoriteList{Owner: owner.String(), Favorites: out})
}

// Toggle handles POST /api/v1/players/{owner}/favorites/{kind}/toggle
func (h *FavoriteHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	owner, err := pathOwner(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	kind := model.Kind(strings.TrimSpace(mux.Vars(r)["kind"]))
	if kind == "" {
		WriteError(w, NewInvalidRequestError("kind is required"))
		return
	}

	on, err := h.favorites.Toggle(r.Context(), owner, kind)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ToggleResponse{Kind: string(kind), Favorited: on})
}
