package token

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/mcoot/chargedblocks/internal/model"
)

const (
	// InfiniteInput is the caller-facing value meaning "never runs out"
	InfiniteInput int32 = -1

	// InfiniteUses is stored for infinite tokens, as both current and max.
	// It sits below math.MaxInt32 so an accidental increment cannot overflow.
	// No finite max may equal it.
	InfiniteUses int32 = math.MaxInt32 - 1_000_000

	// MaxFiniteUses is the largest finite counter a token can hold
	MaxFiniteUses = InfiniteUses - 1
)

// DefaultMaxUses is used when no default is configured
const DefaultMaxUses int32 = 64

// Syncer receives counter changes for bound tokens
type Syncer interface {
	SyncMaterialAndCounts(ctx context.Context, item *Item) error
}

// Codec reads and writes the counters embedded in a token
type Codec struct {
	defaultMax int32
	syncer     Syncer
	logger     *slog.Logger
}

// NewCodec creates a codec that materialises defaultMax for tokens without an
// explicit max
func NewCodec(defaultMax int32, logger *slog.Logger) *Codec {
	if defaultMax <= 0 || defaultMax > MaxFiniteUses {
		defaultMax = DefaultMaxUses
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Codec{defaultMax: defaultMax, logger: logger}
}

// SetSyncer wires the store that mirrors bound tokens. Must be called before
// the codec is shared between goroutines.
func (c *Codec) SetSyncer(s Syncer) {
	c.syncer = s
}

// DefaultMax returns the configured default max
func (c *Codec) DefaultMax() int32 {
	return c.defaultMax
}

// SetUses stores n as the current counter. InfiniteInput stores the sentinel
// as both current and max. Otherwise max is only written if it is not set yet.
func (c *Codec) SetUses(item *Item, n int32) error {
	switch {
	case n == InfiniteInput:
		item.setIntTag(TagUses, InfiniteUses)
		item.setIntTag(TagMaxUses, InfiniteUses)
	case n < 0 || n > MaxFiniteUses:
		return fmt.Errorf("set uses %d: %w", n, model.ErrReservedUses)
	default:
		item.setIntTag(TagUses, n)
		if _, ok := item.intTag(TagMaxUses); !ok {
			item.setIntTag(TagMaxUses, n)
		}
	}
	c.Refresh(item)
	return nil
}

// ResetMaxUses overwrites max. This is the only way to change it once set.
func (c *Codec) ResetMaxUses(item *Item, n int32) error {
	if n == InfiniteInput {
		n = InfiniteUses
	} else if n <= 0 || n > MaxFiniteUses {
		return fmt.Errorf("reset max uses %d: %w", n, model.ErrReservedUses)
	}
	item.setIntTag(TagMaxUses, n)
	c.Refresh(item)
	return nil
}

// Uses returns the current counter, or 0 if the token has none
func (c *Codec) Uses(item *Item) int32 {
	n, _ := item.intTag(TagUses)
	return n
}

// MaxUses returns the max counter. A token without one gets the configured
// default written to it.
func (c *Codec) MaxUses(item *Item) int32 {
	if n, ok := item.intTag(TagMaxUses); ok {
		return n
	}
	item.setIntTag(TagMaxUses, c.defaultMax)
	return c.defaultMax
}

// IsInfinite reports whether the token is in the infinite state
func (c *Codec) IsInfinite(item *Item) bool {
	n, ok := item.intTag(TagMaxUses)
	return ok && n == InfiniteUses
}

// Decrement subtracts one charge and returns the new value. Bound, finite
// tokens have the new value mirrored into their binding record. Reaching zero
// is the caller's concern.
func (c *Codec) Decrement(ctx context.Context, item *Item) int32 {
	next := item.addIntTag(TagUses, -1)
	c.Refresh(item)

	if c.syncer == nil || !item.Bound() || c.IsInfinite(item) {
		return next
	}
	if err := c.syncer.SyncMaterialAndCounts(ctx, item); err != nil {
		c.logger.Warn("failed to sync decremented token",
			slog.String("kind", string(item.Kind)),
			slog.String("error", err.Error()),
		)
	}
	return next
}

// Mint builds a fresh item carrying the given counters
func (c *Codec) Mint(kind model.Kind, uses, maxUses int32) *Item {
	item := New(kind)
	item.setIntTag(TagUses, uses)
	item.setIntTag(TagMaxUses, maxUses)
	c.Refresh(item)
	return item
}

// Restore overwrites both counters of an existing item, bypassing the
// first-write rule for max
func (c *Codec) Restore(item *Item, uses, maxUses int32) {
	item.setIntTag(TagUses, uses)
	item.setIntTag(TagMaxUses, maxUses)
	c.Refresh(item)
}

// Refresh rewrites the usage and progress lines of the item's lore from its
// tags. Running it twice yields the same lore.
func (c *Codec) Refresh(item *Item) {
	uses, _ := item.intTag(TagUses)
	maxUses, ok := item.intTag(TagMaxUses)
	if !ok {
		maxUses = c.defaultMax
	}
	item.SetLore(renderLore(item.Lore(), uses, maxUses))
}
