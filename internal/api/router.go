package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/chargedblocks/internal/api/handler"
	apimiddleware "github.com/mcoot/chargedblocks/internal/api/middleware"
	"github.com/mcoot/chargedblocks/internal/middleware"
	"github.com/mcoot/chargedblocks/internal/migration"
	"github.com/mcoot/chargedblocks/internal/services/binding"
	"github.com/mcoot/chargedblocks/internal/services/favorites"
	"github.com/mcoot/chargedblocks/internal/services/reconcile"
	"github.com/mcoot/chargedblocks/internal/session"
	"github.com/mcoot/chargedblocks/internal/token"
	"github.com/mcoot/chargedblocks/internal/world"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	Bindings    *binding.Service
	Reconcile   *reconcile.Service
	Favorites   *favorites.Service
	Session     *session.State
	Codec       *token.Codec
	World       *world.World
	Catalog     world.Catalog
	Migration   *migration.Engine
	StorageType string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	bindingHandler := handler.NewBindingHandler(cfg.Bindings, cfg.Reconcile, cfg.Session, cfg.Catalog)
	favoriteHandler := handler.NewFavoriteHandler(cfg.Favorites, cfg.Catalog)
	playerHandler := handler.NewPlayerHandler(cfg.World, cfg.Session)
	tokenHandler := handler.NewTokenHandler(cfg.Bindings, cfg.Reconcile, cfg.Codec, cfg.World, cfg.Catalog)
	regionHandler := handler.NewRegionHandler(cfg.World)
	systemHandler := handler.NewSystemHandler(cfg.Bindings, cfg.Migration, cfg.StorageType)

	// Create middleware
	actorMiddleware := apimiddleware.Actor()
	ownerMiddleware := apimiddleware.OwnerOnly()
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := apimiddleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Player routes (the caller must be the player in the path)
	players := api.PathPrefix("/players/{owner}").Subrouter()
	players.Use(actorMiddleware)
	players.Use(ownerMiddleware)

	players.HandleFunc("/presence", playerHandler.Join).Methods(http.MethodPut)
	players.HandleFunc("/presence", playerHandler.Leave).Methods(http.MethodDelete)
	players.HandleFunc("/search", playerHandler.SetSearch).Methods(http.MethodPut)

	players.HandleFunc("/bindings", bindingHandler.List).Methods(http.MethodGet)
	players.HandleFunc("/bindings", bindingHandler.Clear).Methods(http.MethodDelete)
	players.HandleFunc("/bindings/{token_id}", bindingHandler.Get).Methods(http.MethodGet)
	players.HandleFunc("/bindings/{token_id}", bindingHandler.Delete).Methods(http.MethodDelete)
	players.HandleFunc("/bindings/{token_id}/hide", bindingHandler.Hide).Methods(http.MethodPost)
	players.HandleFunc("/bindings/{token_id}/unhide", bindingHandler.Unhide).Methods(http.MethodPost)
	players.HandleFunc("/bindings/{token_id}/retrieve", bindingHandler.Retrieve).Methods(http.MethodPost)
	players.HandleFunc("/bindings/{token_id}/resync", bindingHandler.Resync).Methods(http.MethodPost)

	players.HandleFunc("/tokens", tokenHandler.Mint).Methods(http.MethodPost)
	players.HandleFunc("/tokens/{token_id}/consume", tokenHandler.Consume).Methods(http.MethodPost)
	players.HandleFunc("/tokens/{token_id}/place", tokenHandler.Place).Methods(http.MethodPost)
	players.HandleFunc("/tokens/{token_id}/break", tokenHandler.Break).Methods(http.MethodPost)

	players.HandleFunc("/favorites", favoriteHandler.List).Methods(http.MethodGet)
	players.HandleFunc("/favorites/{kind}/toggle", favoriteHandler.Toggle).Methods(http.MethodPost)

	// Operator routes
	api.HandleFunc("/migration/stats", systemHandler.MigrationStats).Methods(http.MethodGet)
	api.HandleFunc("/regions/{region}/loaded", regionHandler.Load).Methods(http.MethodPut)
	api.HandleFunc("/regions/{region}/loaded", regionHandler.Unload).Methods(http.MethodDelete)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", systemHandler.Health).Methods(http.MethodGet)

	return r
}
