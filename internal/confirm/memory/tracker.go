package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mcoot/chargedblocks/internal/confirm"
	"github.com/mcoot/chargedblocks/internal/dependencies/clock"
	"github.com/mcoot/chargedblocks/internal/model"
)

// Tracker keeps pending clicks in a per-owner, per-token map
type Tracker struct {
	mu      sync.Mutex
	clock   clock.Clock
	window  time.Duration
	pending map[model.PlayerID]map[model.TokenID]time.Time
}

// Ensure Tracker implements the interface
var _ confirm.Tracker = (*Tracker)(nil)

// New creates a tracker. A non-positive window uses confirm.DefaultWindow.
func New(clk clock.Clock, window time.Duration) *Tracker {
	if window <= 0 {
		window = confirm.DefaultWindow
	}
	return &Tracker{
		clock:   clk,
		window:  window,
		pending: make(map[model.PlayerID]map[model.TokenID]time.Time),
	}
}

func (t *Tracker) Click(ctx context.Context, owner model.PlayerID, id model.TokenID) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	owned := t.pending[owner]
	if at, ok := owned[id]; ok && clock.Within(t.clock, at, t.window) {
		delete(owned, id)
		if len(owned) == 0 {
			delete(t.pending, owner)
		}
		return true, nil
	}

	// Anything else pending for this owner is stale or superseded
	t.pending[owner] = map[model.TokenID]time.Time{id: t.clock.Now()}
	return false, nil
}

func (t *Tracker) Clear(ctx context.Context, owner model.PlayerID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, owner)
	return nil
}

// Close is a no-op
func (t *Tracker) Close() error {
	return nil
}

// Pending returns how many owners have an armed click
func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}
