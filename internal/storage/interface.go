package storage

import (
	"context"

	"github.com/mcoot/chargedblocks/internal/model"
)

// Bindings persists binding records keyed by (owner, token id).
// Implementations return every stored record; filtering, ordering and lazy
// cleanup belong to the binding service so all backends behave the same.
type Bindings interface {
	// InsertBinding stores a new record, failing with model.ErrAlreadyBound
	// if the key already exists
	InsertBinding(ctx context.Context, b model.Binding) error
	// SaveBinding inserts or overwrites a record
	SaveBinding(ctx context.Context, b model.Binding) error
	// SyncBinding inserts a record or overwrites its kind, counters and
	// owner name. An existing record keeps its hidden flag.
	SyncBinding(ctx context.Context, b model.Binding) error
	GetBinding(ctx context.Context, owner model.PlayerID, id model.TokenID) (model.Binding, error)
	ListBindings(ctx context.Context, owner model.PlayerID) ([]model.Binding, error)
	SetHidden(ctx context.Context, owner model.PlayerID, id model.TokenID, hidden bool) error
	DeleteBinding(ctx context.Context, owner model.PlayerID, id model.TokenID) error
	// DeleteBindingsByKind compares kinds in canonical form
	DeleteBindingsByKind(ctx context.Context, owner model.PlayerID, kind model.Kind) (int, error)
	// DeleteOwner removes the owner's whole namespace
	DeleteOwner(ctx context.Context, owner model.PlayerID) error
	Owners(ctx context.Context) ([]model.PlayerID, error)
}

// Favorites persists (owner, kind) membership pairs
type Favorites interface {
	// AddFavorite reports whether the pair was newly added
	AddFavorite(ctx context.Context, owner model.PlayerID, kind model.Kind) (bool, error)
	// RemoveFavorite reports whether the pair existed
	RemoveFavorite(ctx context.Context, owner model.PlayerID, kind model.Kind) (bool, error)
	IsFavorite(ctx context.Context, owner model.PlayerID, kind model.Kind) (bool, error)
	ListFavorites(ctx context.Context, owner model.PlayerID) ([]model.Kind, error)
}

// Storage is a backend serving both registries
type Storage interface {
	Bindings
	Favorites
	Close() error
}
