// Package session holds per-player UI state that lives only as long as the
// process
package session

import (
	"context"
	"strings"
	"sync"

	"github.com/mcoot/chargedblocks/internal/confirm"
	"github.com/mcoot/chargedblocks/internal/model"
)

// State owns the confirmation tracker and each player's current search
// term. It is safe for concurrent use.
type State struct {
	Tracker confirm.Tracker

	mu     sync.RWMutex
	search map[model.PlayerID]string
}

// New creates session state around tracker
func New(tracker confirm.Tracker) *State {
	return &State{
		Tracker: tracker,
		search:  make(map[model.PlayerID]string),
	}
}

// SetSearch stores the player's search term. An empty term clears it.
func (s *State) SetSearch(owner model.PlayerID, term string) {
	term = strings.TrimSpace(term)
	s.mu.Lock()
	defer s.mu.Unlock()
	if term == "" {
		delete(s.search, owner)
		return
	}
	s.search[owner] = term
}

// Search returns the player's current search term
func (s *State) Search(owner model.PlayerID) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.search[owner]
}

// Filter keeps the bindings whose kind contains the player's search term,
// ignoring case. With no term set it returns bs unchanged.
func (s *State) Filter(owner model.PlayerID, bs []model.Binding) []model.Binding {
	term := strings.ToUpper(s.Search(owner))
	if term == "" {
		return bs
	}
	out := make([]model.Binding, 0, len(bs))
	for _, b := range bs {
		if strings.Contains(b.Kind.Canonical(), term) {
			out = append(out, b)
		}
	}
	return out
}

// Forget drops everything held for the player
func (s *State) Forget(ctx context.Context, owner model.PlayerID) error {
	s.SetSearch(owner, "")
	return s.Tracker.Clear(ctx, owner)
}

// Close releases the tracker
func (s *State) Close() error {
	return s.Tracker.Close()
}
