package memory

import (
	"context"
	"sync"

	"github.com/mcoot/chargedblocks/internal/model"
	"github.com/mcoot/chargedblocks/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	bindings  map[model.PlayerID]map[model.TokenID]model.Binding
	favorites map[model.PlayerID]map[model.Kind]struct{}
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		bindings:  make(map[model.PlayerID]map[model.TokenID]model.Binding),
		favorites: make(map[model.PlayerID]map[model.Kind]struct{}),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Close is a no-op
func (s *Storage) Close() error {
	return nil
}

// Binding operations

func (s *Storage) InsertBinding(ctx context.Context, b model.Binding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bindings[b.Owner][b.TokenID]; ok {
		return model.ErrAlreadyBound
	}
	s.putLocked(b)
	return nil
}

func (s *Storage) SaveBinding(ctx context.Context, b model.Binding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putLocked(b)
	return nil
}

func (s *Storage) SyncBinding(ctx context.Context, b model.Binding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.bindings[b.Owner][b.TokenID]; ok {
		b.Hidden = existing.Hidden
		if b.OwnerName == "" {
			b.OwnerName = existing.OwnerName
		}
	}
	s.putLocked(b)
	return nil
}

func (s *Storage) putLocked(b model.Binding) {
	owned, ok := s.bindings[b.Owner]
	if !ok {
		owned = make(map[model.TokenID]model.Binding)
		s.bindings[b.Owner] = owned
	}
	owned[b.TokenID] = b
}

func (s *Storage) GetBinding(ctx context.Context, owner model.PlayerID, id model.TokenID) (model.Binding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bindings[owner][id]
	if !ok {
		return model.Binding{}, model.ErrBindingNotFound
	}
	return b, nil
}

func (s *Storage) ListBindings(ctx context.Context, owner model.PlayerID) ([]model.Binding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Binding, 0, len(s.bindings[owner]))
	for _, b := range s.bindings[owner] {
		out = append(out, b)
	}
	return out, nil
}

func (s *Storage) SetHidden(ctx context.Context, owner model.PlayerID, id model.TokenID, hidden bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bindings[owner][id]
	if !ok {
		return model.ErrBindingNotFound
	}
	b.Hidden = hidden
	s.bindings[owner][id] = b
	return nil
}

func (s *Storage) DeleteBinding(ctx context.Context, owner model.PlayerID, id model.TokenID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bindings[owner], id)
	s.pruneLocked(owner)
	return nil
}

func (s *Storage) pruneLocked(owner model.PlayerID) {
	if owned, ok := s.bindings[owner]; ok && len(owned) == 0 {
		delete(s.bindings, owner)
	}
}

func (s *Storage) DeleteBindingsByKind(ctx context.Context, owner model.PlayerID, kind model.Kind) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := kind.Canonical()
	removed := 0
	for id, b := range s.bindings[owner] {
		if b.Kind.Canonical() == want {
			delete(s.bindings[owner], id)
			removed++
		}
	}
	s.pruneLocked(owner)
	return removed, nil
}

func (s *Storage) DeleteOwner(ctx context.Context, owner model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bindings, owner)
	return nil
}

func (s *Storage) Owners(ctx context.Context) ([]model.PlayerID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.PlayerID, 0, len(s.bindings))
	for owner := range s.bindings {
		out = append(out, owner)
	}
	return out, nil
}

// Favorite operations

func (s *Storage) AddFavorite(ctx context.Context, owner model.PlayerID, kind model.Kind) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.favorites[owner]
	if !ok {
		set = make(map[model.Kind]struct{})
		s.favorites[owner] = set
	}
	if _, exists := set[kind]; exists {
		return false, nil
	}
	set[kind] = struct{}{}
	return true, nil
}

func (s *Storage) RemoveFavorite(ctx context.Context, owner model.PlayerID, kind model.Kind) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.favorites[owner]
	if _, exists := set[kind]; !exists {
		return false, nil
	}
	delete(set, kind)
	if len(set) == 0 {
		delete(s.favorites, owner)
	}
	return true, nil
}

func (s *Storage) IsFavorite(ctx context.Context, owner model.PlayerID, kind model.Kind) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.favorites[owner][kind]
	return ok, nil
}

func (s *Storage) ListFavorites(ctx context.Context, owner model.PlayerID) ([]model.Kind, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Kind, 0, len(s.favorites[owner]))
	for kind := range s.favorites[owner] {
		out = append(out, kind)
	}
	return out, nil
}
