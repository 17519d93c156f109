package favorites

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/mcoot/chargedblocks/internal/model"
	"github.com/mcoot/chargedblocks/internal/storage"
)

// Service manages per-owner favorite kinds.
// A Service built without a store is disabled and behaves like an empty one
// whose mutations fail with model.ErrStoreUnavailable.
type Service struct {
	store  storage.Favorites
	logger *slog.Logger
}

// New creates a favorites service
func New(store storage.Favorites, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Enabled reports whether the service has a working store
func (s *Service) Enabled() bool {
	return s.store != nil
}

func (s *Service) storeErr(op string, err error) error {
	s.logger.Error("favorites store operation failed",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
	return fmt.Errorf("%s: %w: %v", op, model.ErrStoreUnavailable, err)
}

// Toggle flips the kind's membership and reports whether it is now a
// favorite
func (s *Service) Toggle(ctx context.Context, owner model.PlayerID, kind model.Kind) (bool, error) {
	if !s.Enabled() {
		return false, model.ErrStoreUnavailable
	}
	removed, err := s.store.RemoveFavorite(ctx, owner, kind)
	if err != nil {
		return false, s.storeErr("toggle", err)
	}
	if removed {
		return false, nil
	}
	if _, err := s.store.AddFavorite(ctx, owner, kind); err != nil {
		return false, s.storeErr("toggle", err)
	}
	return true, nil
}

// IsFavorited reports whether the owner has favorited the kind
func (s *Service) IsFavorited(ctx context.Context, owner model.PlayerID, kind model.Kind) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	ok, err := s.store.IsFavorite(ctx, owner, kind)
	if err != nil {
		return false, s.storeErr("is favorited", err)
	}
	return ok, nil
}

// List returns the owner's favorites that appear in allowed, sorted by
// canonical kind. A nil allowed set filters nothing.
func (s *Service) List(ctx context.Context, owner model.PlayerID, allowed []model.Kind) ([]model.Kind, error) {
	if !s.Enabled() {
		return []model.Kind{}, nil
	}
	kinds, err := s.store.ListFavorites(ctx, owner)
	if err != nil {
		return nil, s.storeErr("list", err)
	}

	var permitted map[model.Kind]struct{}
	if allowed != nil {
		permitted = make(map[model.Kind]struct{}, len(allowed))
		for _, k := range allowed {
			permitted[k] = struct{}{}
		}
	}

	out := make([]model.Kind, 0, len(kinds))
	for _, k := range kinds {
		if permitted != nil {
			if _, ok := permitted[k]; !ok {
				continue
			}
		}
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		ci, cj := out[i].Canonical(), out[j].Canonical()
		if ci != cj {
			return ci < cj
		}
		return out[i] < out[j]
	})
	return out, nil
}
