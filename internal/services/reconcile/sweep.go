package reconcile

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/chargedblocks/internal/audit"
	"github.com/mcoot/chargedblocks/internal/model"
	"github.com/mcoot/chargedblocks/internal/token"
	"github.com/mcoot/chargedblocks/internal/world"
)

// Ensure Service hears about players and regions coming online
var _ world.Listener = (*Service)(nil)

type tokenKey struct {
	owner model.PlayerID
	id    model.TokenID
}

func bound(item *token.Item) bool {
	return item != nil && item.Bound()
}

// OnPlayerJoin refreshes the records of the bound tokens a player logged in
// with. It returns the number of records rewritten.
func (s *Service) OnPlayerJoin(ctx context.Context, p *world.Player) (int, error) {
	return s.syncFound(ctx, p.Inventory.Items())
}

// OnRegionLoaded refreshes the records of the bound tokens a region holds,
// catching up on what happened to them while it was unloaded. It returns the
// number of records rewritten.
func (s *Service) OnRegionLoaded(ctx context.Context, r *world.Region) (int, error) {
	locs := sweepRegion(r, bound)
	items := make([]*token.Item, len(locs))
	for i, l := range locs {
		items[i] = l.Item
	}
	return s.syncFound(ctx, items)
}

// syncFound writes each token's live state to its record when they differ.
// The first instance of a token wins. Records that were discarded are not
// brought back.
func (s *Service) syncFound(ctx context.Context, items []*token.Item) (int, error) {
	if !s.bindings.Enabled() {
		return 0, nil
	}

	seen := make(map[tokenKey]bool)
	synced := 0
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		owner, ok := item.Owner()
		if !ok {
			continue
		}
		id, ok := item.TokenID()
		if !ok {
			continue
		}
		k := tokenKey{owner, id}
		if seen[k] {
			continue
		}
		seen[k] = true

		rec, err := s.bindings.Get(ctx, owner, id)
		if errors.Is(err, model.ErrBindingNotFound) {
			continue
		}
		if err != nil {
			return synced, err
		}
		if rec.Kind == item.Kind && rec.Uses == s.codec.Uses(item) && rec.MaxUses == s.codec.MaxUses(item) {
			continue
		}
		if err := s.bindings.SyncMaterialAndCounts(ctx, item); err != nil {
			return synced, err
		}
		synced++
	}
	return synced, nil
}

// PlayerJoined implements world.Listener
func (s *Service) PlayerJoined(ctx context.Context, p *world.Player) {
	n, err := s.OnPlayerJoin(ctx, p)
	if err != nil {
		s.logger.Warn("join sweep failed",
			slog.String("player", p.ID.String()),
			slog.String("error", err.Error()),
		)
		return
	}
	if n > 0 {
		s.logger.Debug("join sweep refreshed bindings",
			slog.String("player", p.ID.String()),
			slog.Int("synced", n),
		)
	}
}

// RegionLoaded implements world.Listener
func (s *Service) RegionLoaded(ctx context.Context, r *world.Region) {
	n, err := s.OnRegionLoaded(ctx, r)
	if err != nil {
		s.logger.Warn("region sweep failed",
			slog.String("region", r.Name),
			slog.String("error", err.Error()),
		)
		return
	}
	if n > 0 {
		s.logger.Debug("region sweep refreshed bindings",
			slog.String("region", r.Name),
			slog.Int("synced", n),
		)
	}
}

// BreakResult describes a broken placed token
type BreakResult struct {
	Binding model.Binding
	// Broken counts the placed instances removed
	Broken int
	// Destroyed counts the records deleted because no copy was left
	Destroyed int
}

// BreakPlaced removes the owner's placed instances of the token, then deletes
// the owner's records of its kind if no other copy can be reached.
func (s *Service) BreakPlaced(ctx context.Context, owner model.PlayerID, id model.TokenID) (BreakResult, error) {
	rec, err := s.bindings.Get(ctx, owner, id)
	if err != nil {
		return BreakResult{}, err
	}
	locs, err := s.Locate(ctx, owner, rec.Kind, id)
	if err != nil {
		return BreakResult{}, err
	}

	res := BreakResult{Binding: rec}
	for _, loc := range locs {
		if loc.Holder == HolderPlaced && loc.remove() {
			res.Broken++
		}
	}
	if res.Broken == 0 {
		return BreakResult{}, world.ErrTokenNotPlaced
	}

	res.Destroyed, err = s.DestroyLastCopy(ctx, owner, rec.Kind)
	if err != nil {
		return BreakResult{}, err
	}
	if res.Destroyed == 0 {
		s.journal.Record(ctx, audit.ForBinding(audit.ActionBreak, rec))
	}
	return res, nil
}
