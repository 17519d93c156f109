package response

import (
	"github.com/mcoot/chargedblocks/internal/migration"
	"github.com/mcoot/chargedblocks/internal/model"
	"github.com/mcoot/chargedblocks/internal/token"
)

// Binding represents a binding record in API responses
type Binding struct {
	TokenID     string `json:"token_id"`
	Kind        string `json:"kind"`
	DisplayName string `json:"display_name"`
	Uses        int32  `json:"uses"`
	MaxUses     int32  `json:"max_uses"`
	Infinite    bool   `json:"infinite,omitempty"`
	Hidden      bool   `json:"hidden"`
}

// BindingFromModel converts model.Binding. name is the kind's display name.
func BindingFromModel(b model.Binding, name string) Binding {
	return Binding{
		TokenID:     b.TokenID.String(),
		Kind:        string(b.Kind),
		DisplayName: name,
		Uses:        b.Uses,
		MaxUses:     b.MaxUses,
		Infinite:    b.MaxUses == token.InfiniteUses,
		Hidden:      b.Hidden,
	}
}

// BindingList is the response for listing an owner's bindings
type BindingList struct {
	Owner    string    `json:"owner"`
	Search   string    `json:"search,omitempty"`
	Bindings []Binding `json:"bindings"`
}

// HideResponse is the response after a hide click. Confirmed is false when
// the click only armed the confirmation.
type HideResponse struct {
	TokenID   string `json:"token_id"`
	Confirmed bool   `json:"confirmed"`
}

// RetrieveResponse is the response after retrieving a token
type RetrieveResponse struct {
	Binding Binding `json:"binding"`
	Removed int     `json:"removed"`
	Dropped bool    `json:"dropped"`
}

// ResyncResponse is the response after resyncing a token's copies
type ResyncResponse struct {
	TokenID   string `json:"token_id"`
	Rewritten int    `json:"rewritten"`
}

// Favorite represents a favorited kind
type Favorite struct {
	Kind        string `json:"kind"`
	DisplayName string `json:"display_name"`
}

// FavoriteList is the response for listing an owner's favorites
type FavoriteList struct {
	Owner     string     `json:"owner"`
	Favorites []Favorite `json:"favorites"`
}

// ToggleResponse is the response after toggling a favorite
type ToggleResponse struct {
	Kind      string `json:"kind"`
	Favorited bool   `json:"favorited"`
}

// Presence is the response after a player comes online
type Presence struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Region   string `json:"region"`
}

// Health is the response for the health check
type Health struct {
	Status   string `json:"status"`
	Registry string `json:"registry"`
	Storage  string `json:"storage"`
}

// MigrationStats is the response for the migration stats endpoint
type MigrationStats struct {
	migration.Stats
	Valid bool `json:"valid"`
}

// MintResponse is the response after minting a bound token
type MintResponse struct {
	Binding Binding `json:"binding"`
	Dropped bool    `json:"dropped"`
}

// ConsumeResponse is the response after one charge of a token is used.
// Depleted tokens are taken out of the holder's inventory.
type ConsumeResponse struct {
	TokenID  string `json:"token_id"`
	Uses     int32  `json:"uses"`
	Depleted bool   `json:"depleted"`
}

// BreakResponse is the response after a placed token is broken
type BreakResponse struct {
	TokenID   string `json:"token_id"`
	Broken    int    `json:"broken"`
	Destroyed int    `json:"destroyed"`
}
