package handler

import (
	"net/http"
	"strconv"

	"github.com/mcoot/chargedblocks/internal/api/response"
	"github.com/mcoot/chargedblocks/internal/model"
	"github.com/mcoot/chargedblocks/internal/services/binding"
	"github.com/mcoot/chargedblocks/internal/services/reconcile"
	"github.com/mcoot/chargedblocks/internal/session"
	"github.com/mcoot/chargedblocks/internal/world"
)

// BindingHandler handles binding-related endpoints
type BindingHandler struct {
	bindings  *binding.Service
	reconcile *reconcile.Service
	session   *session.State
	catalog   world.Catalog
}

// NewBindingHandler creates a new binding handler
func NewBindingHandler(bindings *binding.Service, reconcile *reconcile.Service, state *session.State, catalog world.Catalog) *BindingHandler {
	return &BindingHandler{
		bindings:  bindings,
		reconcile: reconcile,
		session:   state,
		catalog:   catalog,
	}
}

func (h *BindingHandler) toResponse(b model.Binding) response.Binding {
	return response.BindingFromModel(b, h.catalog.DisplayName(b.Kind))
}

// List handles GET /api/v1/players/{owner}/bindings
// With ?hidden=true the archived bindings are listed instead. The player's
// search term narrows either list.
func (h *BindingHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, err := pathOwner(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	hidden := false
	if v := r.URL.Query().Get("hidden"); v != "" {
		hidden, err = strconv.ParseBool(v)
		if err != nil {
			WriteError(w, NewInvalidRequestError("hidden must be a boolean"))
			return
		}
	}

	var bs []model.Binding
	if hidden {
		bs, err = h.bindings.ListHidden(r.Context(), owner)
	} else {
		bs, err = h.bindings.List(r.Context(), owner)
	}
	if err != nil {
		WriteError(w, err)
		return
	}

	bs = h.session.Filter(owner, bs)
	out := make([]response.Binding, len(bs))
	for i, b := range bs {
		out[i] = h.toResponse(b)
	}
	response.JSON(w, http.StatusOK, response.BindingList{
		Owner:    owner.String(),
		Search:   h.session.Search(owner),
		Bindings: out,
	})
}

// Get handles GET /api/v1/players/{owner}/bindings/{token_id}
func (h *BindingHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, id, err := pathToken(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	b, err := h.bindings.Get(r.Context(), owner, id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, h.toResponse(b))
}

// Hide handles POST /api/v1/players/{owner}/bindings/{token_id}/hide
// The first click arms the confirmation, a second one inside the window
// archives the binding.
func (h *BindingHandler) Hide(w http.ResponseWriter, r *http.Request) {
	owner, id, err := pathToken(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	confirmed, err := h.bindings.ClickHide(r.Context(), owner, id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.HideResponse{TokenID: id.String(), Confirmed: confirmed})
}

// Unhide handles POST /api/v1/players/{owner}/bindings/{token_id}/unhide
func (h *BindingHandler) Unhide(w http.ResponseWriter, r *http.Request) {
	owner, id, err := pathToken(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.bindings.SetHidden(r.Context(), owner, id, false); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Retrieve handles POST /api/v1/players/{owner}/bindings/{token_id}/retrieve
func (h *BindingHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	owner, id, err := pathToken(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	res, err := h.reconcile.Retrieve(r.Context(), owner, id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RetrieveResponse{
		Binding: h.toResponse(res.Binding),
		Removed: res.Removed,
		Dropped: res.Dropped,
	})
}

// Resync handles POST /api/v1/players/{owner}/bindings/{token_id}/resync
func (h *BindingHandler) Resync(w http.ResponseWriter, r *http.Request) {
	owner, id, err := pathToken(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	n, err := h.reconcile.Resync(r.Context(), owner, id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ResyncResponse{TokenID: id.String(), Rewritten: n})
}

// Delete handles DELETE /api/v1/players/{owner}/bindings/{token_id}
func (h *BindingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, id, err := pathToken(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.bindings.Delete(r.Context(), owner, id); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Clear handles DELETE /api/v1/players/{owner}/bindings
func (h *BindingHandler) Clear(w http.ResponseWriter, r *http.Request) {
	owner, err := pathOwner(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.bindings.RemoveAllForOwner(r.Context(), owner); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}
