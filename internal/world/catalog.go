package world

import (
	"context"
	"strings"

	"github.com/mcoot/chargedblocks/internal/model"
)

// Catalog describes the kinds players may work with
type Catalog interface {
	// AllowedKinds returns the kinds the player may currently use
	AllowedKinds(ctx context.Context, player model.PlayerID) []model.Kind
	// DisplayName returns a human-readable name for a kind
	DisplayName(kind model.Kind) string
}

// StaticCatalog allows the same kinds to everyone
type StaticCatalog struct {
	kinds []model.Kind
	names map[model.Kind]string
}

// NewStaticCatalog creates a catalog from a kind list and optional display
// names
func NewStaticCatalog(kinds []model.Kind, names map[model.Kind]string) *StaticCatalog {
	c := &StaticCatalog{
		kinds: append([]model.Kind(nil), kinds...),
		names: make(map[model.Kind]string, len(names)),
	}
	for k, v := range names {
		c.names[k] = v
	}
	return c
}

func (c *StaticCatalog) AllowedKinds(context.Context, model.PlayerID) []model.Kind {
	return append([]model.Kind(nil), c.kinds...)
}

// DisplayName falls back to title-casing the identifier, DIAMOND_BLOCK
// becoming "Diamond Block"
func (c *StaticCatalog) DisplayName(kind model.Kind) string {
	if name, ok := c.names[kind]; ok {
		return name
	}
	words := strings.Fields(strings.ReplaceAll(strings.ToLower(string(kind)), "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
