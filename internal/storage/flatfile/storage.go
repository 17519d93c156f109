package flatfile

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/mcoot/chargedblocks/internal/model"
	"github.com/mcoot/chargedblocks/internal/storage"
)

// Config holds the paths of the registry files
type Config struct {
	BindingsPath  string
	FavoritesPath string
}

// DefaultConfig returns the conventional file locations under dataDir
func DefaultConfig(dataDir string) Config {
	return Config{
		BindingsPath:  filepath.Join(dataDir, "bindings.yml"),
		FavoritesPath: filepath.Join(dataDir, "favorites.yml"),
	}
}

// Storage is a YAML-file implementation of the storage interface.
// Every mutation is a locked read-modify-write of the whole file, so the
// file on disk is always the source of truth. Files are not created until
// the first write.
type Storage struct {
	mu  sync.Mutex
	cfg Config
}

// New creates a flat-file storage instance
func New(cfg Config) (*Storage, error) {
	for _, p := range []string{cfg.BindingsPath, cfg.FavoritesPath} {
		if p == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, err
		}
	}
	return &Storage{cfg: cfg}, nil
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Close is a no-op, every write is already flushed
func (s *Storage) Close() error {
	return nil
}

// updateBindings applies fn to the current file contents and writes them
// back if fn reports a change
func (s *Storage) updateBindings(fn func(doc BindingDocument) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := ReadBindingDocument(s.cfg.BindingsPath)
	if err != nil {
		return err
	}
	changed, err := fn(doc)
	if err != nil || !changed {
		return err
	}
	return WriteBindingDocument(s.cfg.BindingsPath, doc)
}

func (s *Storage) readBindings() (BindingDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ReadBindingDocument(s.cfg.BindingsPath)
}

func toEntry(b model.Binding) BindingEntry {
	return BindingEntry{
		Material: string(b.Kind),
		Uses:     b.Uses,
		MaxUses:  b.MaxUses,
		Hidden:   b.Hidden,
	}
}

func fromEntry(owner model.PlayerID, id model.TokenID, e BindingEntry) model.Binding {
	return model.Binding{
		Owner:   owner,
		TokenID: id,
		Kind:    model.Kind(e.Material),
		Uses:    e.Uses,
		MaxUses: e.MaxUses,
		Hidden:  e.Hidden,
	}
}

func prune(doc BindingDocument, owner string) {
	if owned, ok := doc[owner]; ok && len(owned) == 0 {
		delete(doc, owner)
	}
}

func put(doc BindingDocument, b model.Binding) {
	owner := b.Owner.String()
	if doc[owner] == nil {
		doc[owner] = make(map[string]BindingEntry)
	}
	doc[owner][b.TokenID.String()] = toEntry(b)
}

// Binding operations

func (s *Storage) InsertBinding(ctx context.Context, b model.Binding) error {
	return s.updateBindings(func(doc BindingDocument) (bool, error) {
		if _, ok := doc[b.Owner.String()][b.TokenID.String()]; ok {
			return false, model.ErrAlreadyBound
		}
		put(doc, b)
		return true, nil
	})
}

func (s *Storage) SaveBinding(ctx context.Context, b model.Binding) error {
	return s.updateBindings(func(doc BindingDocument) (bool, error) {
		put(doc, b)
		return true, nil
	})
}

func (s *Storage) SyncBinding(ctx context.Context, b model.Binding) error {
	return s.updateBindings(func(doc BindingDocument) (bool, error) {
		if existing, ok := doc[b.Owner.String()][b.TokenID.String()]; ok {
			b.Hidden = existing.Hidden
		}
		put(doc, b)
		return true, nil
	})
}

func (s *Storage) GetBinding(ctx context.Context, owner model.PlayerID, id model.TokenID) (model.Binding, error) {
	doc, err := s.readBindings()
	if err != nil {
		return model.Binding{}, err
	}
	e, ok := doc[owner.String()][id.String()]
	if !ok {
		return model.Binding{}, model.ErrBindingNotFound
	}
	return fromEntry(owner, id, e), nil
}

func (s *Storage) ListBindings(ctx context.Context, owner model.PlayerID) ([]model.Binding, error) {
	doc, err := s.readBindings()
	if err != nil {
		return nil, err
	}
	owned := doc[owner.String()]
	out := make([]model.Binding, 0, len(owned))
	for key, e := range owned {
		id, err := uuid.Parse(key)
		if err != nil {
			continue // hand-edited garbage
		}
		out = append(out, fromEntry(owner, id, e))
	}
	return out, nil
}

func (s *Storage) SetHidden(ctx context.Context, owner model.PlayerID, id model.TokenID, hidden bool) error {
	return s.updateBindings(func(doc BindingDocument) (bool, error) {
		e, ok := doc[owner.String()][id.String()]
		if !ok {
			return false, model.ErrBindingNotFound
		}
		e.Hidden = hidden
		doc[owner.String()][id.String()] = e
		return true, nil
	})
}

func (s *Storage) DeleteBinding(ctx context.Context, owner model.PlayerID, id model.TokenID) error {
	return s.updateBindings(func(doc BindingDocument) (bool, error) {
		if _, ok := doc[owner.String()][id.String()]; !ok {
			return false, nil
		}
		delete(doc[owner.String()], id.String())
		prune(doc, owner.String())
		return true, nil
	})
}

func (s *Storage) DeleteBindingsByKind(ctx context.Context, owner model.PlayerID, kind model.Kind) (int, error) {
	want := kind.Canonical()
	removed := 0
	err := s.updateBindings(func(doc BindingDocument) (bool, error) {
		for key, e := range doc[owner.String()] {
			if model.Kind(e.Material).Canonical() == want {
				delete(doc[owner.String()], key)
				removed++
			}
		}
		prune(doc, owner.String())
		return removed > 0, nil
	})
	return removed, err
}

func (s *Storage) DeleteOwner(ctx context.Context, owner model.PlayerID) error {
	return s.updateBindings(func(doc BindingDocument) (bool, error) {
		if _, ok := doc[owner.String()]; !ok {
			return false, nil
		}
		delete(doc, owner.String())
		return true, nil
	})
}

func (s *Storage) Owners(ctx context.Context) ([]model.PlayerID, error) {
	doc, err := s.readBindings()
	if err != nil {
		return nil, err
	}
	out := make([]model.PlayerID, 0, len(doc))
	for key := range doc {
		id, err := uuid.Parse(key)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out, nil
}

// Favorite operations

func (s *Storage) updateFavorites(fn func(doc FavoriteDocument) (bool, error)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := ReadFavoriteDocument(s.cfg.FavoritesPath)
	if err != nil {
		return false, err
	}
	changed, err := fn(doc)
	if err != nil || !changed {
		return changed, err
	}
	return true, WriteFavoriteDocument(s.cfg.FavoritesPath, doc)
}

func indexOf(kinds []string, kind model.Kind) int {
	for i, k := range kinds {
		if k == string(kind) {
			return i
		}
	}
	return -1
}

func (s *Storage) AddFavorite(ctx context.Context, owner model.PlayerID, kind model.Kind) (bool, error) {
	return s.updateFavorites(func(doc FavoriteDocument) (bool, error) {
		key := owner.String()
		if indexOf(doc[key], kind) >= 0 {
			return false, nil
		}
		doc[key] = append(doc[key], string(kind))
		return true, nil
	})
}

func (s *Storage) RemoveFavorite(ctx context.Context, owner model.PlayerID, kind model.Kind) (bool, error) {
	return s.updateFavorites(func(doc FavoriteDocument) (bool, error) {
		key := owner.String()
		i := indexOf(doc[key], kind)
		if i < 0 {
			return false, nil
		}
		doc[key] = append(doc[key][:i], doc[key][i+1:]...)
		return true, nil
	})
}

func (s *Storage) IsFavorite(ctx context.Context, owner model.PlayerID, kind model.Kind) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := ReadFavoriteDocument(s.cfg.FavoritesPath)
	if err != nil {
		return false, err
	}
	return indexOf(doc[owner.String()], kind) >= 0, nil
}

func (s *Storage) ListFavorites(ctx context.Context, owner model.PlayerID) ([]model.Kind, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := ReadFavoriteDocument(s.cfg.FavoritesPath)
	if err != nil {
		return nil, err
	}
	kinds := doc[owner.String()]
	out := make([]model.Kind, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, model.Kind(k))
	}
	return out, nil
}
