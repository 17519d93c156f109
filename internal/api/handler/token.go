package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mcoot/chargedblocks/internal/api/request"
	"github.com/mcoot/chargedblocks/internal/api/response"
	"github.com/mcoot/chargedblocks/internal/model"
	"github.com/mcoot/chargedblocks/internal/services/binding"
	"github.com/mcoot/chargedblocks/internal/services/reconcile"
	"github.com/mcoot/chargedblocks/internal/token"
	"github.com/mcoot/chargedblocks/internal/world"
)

// TokenHandler handles world events reported by the host for live tokens:
// minting, consumption, placement and breakage
type TokenHandler struct {
	bindings  *binding.Service
	reconcile *reconcile.Service
	codec     *token.Codec
	world     *world.World
	catalog   world.Catalog
}

// NewTokenHandler creates a new token handler
func NewTokenHandler(bindings *binding.Service, reconcile *reconcile.Service, codec *token.Codec, w *world.World, catalog world.Catalog) *TokenHandler {
	return &TokenHandler{
		bindings:  bindings,
		reconcile: reconcile,
		codec:     codec,
		world:     w,
		catalog:   catalog,
	}
}

// held resolves a token the caller is carrying and may use
func (h *TokenHandler) held(r *http.Request) (*world.Player, *token.Item, model.TokenID, error) {
	owner, id, err := pathToken(r)
	if err != nil {
		return nil, nil, id, err
	}
	p, item, err := h.world.Held(owner, id)
	if err != nil {
		return nil, nil, id, err
	}
	if err := h.bindings.Authorize(item, owner); err != nil {
		return nil, nil, id, err
	}
	return p, item, id, nil
}

// Mint handles POST /api/v1/players/{owner}/tokens
// The new token is bound to the caller and delivered to their inventory, or
// dropped at their feet when it is full.
func (h *TokenHandler) Mint(w http.ResponseWriter, r *http.Request) {
	owner, err := pathOwner(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.MintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	kind := model.Kind(strings.TrimSpace(req.Kind))
	if kind == "" {
		WriteError(w, NewInvalidRequestError("kind is required"))
		return
	}
	if _, ok := h.world.Player(owner); !ok {
		WriteError(w, world.ErrPlayerOffline)
		return
	}

	uses := h.codec.DefaultMax()
	if req.Uses != nil {
		uses = *req.Uses
	}
	item := token.New(kind)
	if err := h.codec.SetUses(item, uses); err != nil {
		WriteError(w, err)
		return
	}

	id, err := h.bindings.Bind(r.Context(), owner, item)
	if err != nil {
		WriteError(w, err)
		return
	}
	b, err := h.bindings.Get(r.Context(), owner, id)
	if err != nil {
		WriteError(w, err)
		return
	}

	given, err := h.world.Give(r.Context(), owner, item)
	if err != nil {
		WriteError(w, err)
		return
	}
	if !given {
		if _, err := h.world.Drop(r.Context(), owner, item); err != nil {
			WriteError(w, err)
			return
		}
	}

	response.JSON(w, http.StatusCreated, response.MintResponse{
		Binding: response.BindingFromModel(b, h.catalog.DisplayName(b.Kind)),
		Dropped: !given,
	})
}

// Consume handles POST /api/v1/players/{owner}/tokens/{token_id}/consume
// One charge is spent. A token left without charges is taken from the
// caller's inventory.
func (h *TokenHandler) Consume(w http.ResponseWriter, r *http.Request) {
	p, item, id, err := h.held(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	uses := h.codec.Decrement(r.Context(), item)
	depleted := uses <= 0 && !h.codec.IsInfinite(item)
	if depleted {
		p.Inventory.Remove(item)
	}

	response.JSON(w, http.StatusOK, response.ConsumeResponse{
		TokenID:  id.String(),
		Uses:     uses,
		Depleted: depleted,
	})
}

// Place handles POST /api/v1/players/{owner}/tokens/{token_id}/place
// The held token moves into a placed block in the caller's region.
func (h *TokenHandler) Place(w http.ResponseWriter, r *http.Request) {
	p, item, _, err := h.held(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.PlaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if !p.Inventory.Remove(item) {
		WriteError(w, world.ErrTokenNotHeld)
		return
	}
	h.world.Region(p.Region).PlaceBlock(world.Vec3i{X: req.X, Y: req.Y, Z: req.Z}, item)

	response.NoContent(w)
}

// Break handles POST /api/v1/players/{owner}/tokens/{token_id}/break
// The caller's placed token is broken. Its records go once no copy of the
// kind can be reached.
func (h *TokenHandler) Break(w http.ResponseWriter, r *http.Request) {
	owner, id, err := pathToken(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	res, err := h.reconcile.BreakPlaced(r.Context(), owner, id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.BreakResponse{
		TokenID:   id.String(),
		Broken:    res.Broken,
		Destroyed: res.Destroyed,
	})
}
