package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/mcoot/chargedblocks/internal/audit"
	"github.com/mcoot/chargedblocks/internal/model"
	"github.com/mcoot/chargedblocks/internal/services/binding"
	"github.com/mcoot/chargedblocks/internal/token"
	"github.com/mcoot/chargedblocks/internal/world"
)

// World is the live state reconciliation can sweep
type World interface {
	OnlinePlayers() []*world.Player
	LoadedRegions() []*world.Region
}

// Delivery hands freshly minted tokens to players
type Delivery interface {
	// Give reports false when the player has no room
	Give(ctx context.Context, player model.PlayerID, item *token.Item) (bool, error)
	Drop(ctx context.Context, player model.PlayerID, item *token.Item) (*world.ItemEntity, error)
}

// Notifier tells a player something happened to a token they held
type Notifier interface {
	Notify(ctx context.Context, player model.PlayerID, msg string)
}

// HolderKind says where a located instance lives
type HolderKind string

const (
	HolderInventory HolderKind = "inventory"
	HolderEntity    HolderKind = "entity"
	HolderContainer HolderKind = "container"
	HolderPlaced    HolderKind = "placed"
)

// Location is one live instance of a bound token
type Location struct {
	Holder HolderKind
	Item   *token.Item

	// Player is set for inventory holders
	Player model.PlayerID

	// Region and Pos are set for world holders
	Region   *world.Region
	Pos      world.Vec3i
	EntityID string
	Inv      *world.Inventory
}

// remove takes the instance out of the world. Already-absent instances are
// left alone.
func (l Location) remove() bool {
	switch l.Holder {
	case HolderInventory, HolderContainer:
		return l.Inv.Remove(l.Item)
	case HolderEntity:
		return l.Region.RemoveEntity(l.EntityID)
	case HolderPlaced:
		return l.Region.BreakBlock(l.Pos, l.Item)
	}
	return false
}

// RetrieveResult describes a completed retrieval
type RetrieveResult struct {
	Item    *token.Item
	Removed int
	Dropped bool
	Binding model.Binding
}

// Service reconciles binding records with live token instances. The live
// instance is authoritative whenever one can be reached; the registry is
// authoritative otherwise.
type Service struct {
	bindings *binding.Service
	codec    *token.Codec
	world    World
	delivery Delivery
	notifier Notifier
	catalog  world.Catalog
	journal  audit.Journal
	logger   *slog.Logger
}

// New creates a reconciliation service. journal may be nil.
func New(
	bindings *binding.Service,
	codec *token.Codec,
	w World,
	delivery Delivery,
	notifier Notifier,
	catalog world.Catalog,
	journal audit.Journal,
	logger *slog.Logger,
) *Service {
	if journal == nil {
		journal = audit.Nop{}
	}
	return &Service{
		bindings: bindings,
		codec:    codec,
		world:    w,
		delivery: delivery,
		notifier: notifier,
		catalog:  catalog,
		journal:  journal,
		logger:   logger,
	}
}

// matcher selects the owner's instances of kind. A zero id matches any
// token id; otherwise instances carrying another id are skipped.
func matcher(owner model.PlayerID, kind model.Kind, id model.TokenID) func(*token.Item) bool {
	want := kind.Canonical()
	return func(item *token.Item) bool {
		if item == nil || item.Kind.Canonical() != want {
			return false
		}
		if o, ok := item.Owner(); !ok || o != owner {
			return false
		}
		if id == (model.TokenID{}) {
			return true
		}
		tid, ok := item.TokenID()
		return !ok || tid == id
	}
}

// Locate finds every reachable instance of the owner's token across online
// inventories and the dropped items, containers and placed blocks of loaded
// regions. Unloaded regions are not visited. Results are ordered players
// first (by id), then regions (by name).
func (s *Service) Locate(ctx context.Context, owner model.PlayerID, kind model.Kind, id model.TokenID) ([]Location, error) {
	match := matcher(owner, kind, id)
	players := s.world.OnlinePlayers()
	regions := s.world.LoadedRegions()

	found := make([][]Location, len(players)+len(regions))
	g, gctx := errgroup.WithContext(ctx)

	for i, p := range players {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for _, item := range p.Inventory.Items() {
				if match(item) {
					found[i] = append(found[i], Location{
						Holder: HolderInventory, Item: item, Player: p.ID, Inv: p.Inventory,
					})
				}
			}
			return nil
		})
	}
	for j, r := range regions {
		slot := len(players) + j
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			found[slot] = sweepRegion(r, match)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Location
	for _, locs := range found {
		out = append(out, locs...)
	}
	return out, nil
}

func sweepRegion(r *world.Region, match func(*token.Item) bool) []Location {
	var out []Location
	for _, e := range r.Entities() {
		if match(e.Item) {
			out = append(out, Location{
				Holder: HolderEntity, Item: e.Item, Region: r, Pos: e.Pos, EntityID: e.EntityID,
			})
		}
	}
	for _, c := range r.Containers() {
		for _, item := range c.Inventory.Items() {
			if match(item) {
				out = append(out, Location{
					Holder: HolderContainer, Item: item, Region: r, Pos: c.Pos, Inv: c.Inventory,
				})
			}
		}
	}
	for _, b := range r.Placed() {
		if match(b.Item) {
			out = append(out, Location{
				Holder: HolderPlaced, Item: b.Item, Region: r, Pos: b.Pos,
			})
		}
	}
	return out
}

// Retrieve collapses every live copy of the requester's token into one
// freshly minted instance delivered to the requester. The first located
// copy supplies the counters (the record does when none is reachable), every
// copy is removed with holders other than the requester told, and the new
// token keeps the token id and is written back to the record. A full inventory gets the token dropped at the
// requester's feet.
func (s *Service) Retrieve(ctx context.Context, requester model.PlayerID, id model.TokenID) (RetrieveResult, error) {
	holder, ok := s.onlinePlayer(requester)
	if !ok {
		return RetrieveResult{}, world.ErrPlayerOffline
	}
	rec, err := s.bindings.Get(ctx, requester, id)
	if err != nil {
		return RetrieveResult{}, err
	}

	locs, err := s.Locate(ctx, requester, rec.Kind, id)
	if err != nil {
		return RetrieveResult{}, err
	}
	if len(locs) > 0 {
		rec.Uses = s.codec.Uses(locs[0].Item)
		rec.MaxUses = s.codec.MaxUses(locs[0].Item)
	}

	removed := 0
	for _, loc := range locs {
		if !loc.remove() {
			continue
		}
		removed++
		if loc.Holder == HolderInventory && loc.Player != requester {
			s.notifier.Notify(ctx, loc.Player, fmt.Sprintf("A %s you were holding was retrieved by its owner.",
				s.catalog.DisplayName(rec.Kind)))
		}
	}

	item := s.codec.Mint(rec.Kind, rec.Uses, rec.MaxUses)
	item.TagOwnership(requester, id)
	if holder.Name != "" {
		token.SetOwnerLine(item, holder.Name)
		s.codec.Refresh(item)
	}
	if err := s.bindings.SyncMaterialAndCounts(ctx, item); err != nil {
		s.logger.Warn("failed to update binding on retrieval",
			slog.String("token_id", id.String()),
			slog.String("error", err.Error()),
		)
	}

	result := RetrieveResult{Item: item, Removed: removed, Binding: rec}
	given, err := s.delivery.Give(ctx, requester, item)
	if err != nil {
		return RetrieveResult{}, fmt.Errorf("deliver token: %w", err)
	}
	if !given {
		if _, err := s.delivery.Drop(ctx, requester, item); err != nil {
			return RetrieveResult{}, fmt.Errorf("drop token: %w", err)
		}
		result.Dropped = true
	}

	s.journal.Record(ctx, audit.ForBinding(audit.ActionRetrieve, rec))
	s.logger.Info("token retrieved",
		slog.String("owner", requester.String()),
		slog.String("token_id", id.String()),
		slog.Int("removed", removed),
		slog.Bool("dropped", result.Dropped),
	)
	return result, nil
}

func (s *Service) onlinePlayer(id model.PlayerID) (*world.Player, bool) {
	for _, p := range s.world.OnlinePlayers() {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// DestroyLastCopy deletes the owner's records of kind once no live instance
// of it can be reached. It returns how many records went; zero means copies
// remain or nothing was recorded.
func (s *Service) DestroyLastCopy(ctx context.Context, owner model.PlayerID, kind model.Kind) (int, error) {
	locs, err := s.Locate(ctx, owner, kind, model.TokenID{})
	if err != nil {
		return 0, err
	}
	if len(locs) > 0 {
		return 0, nil
	}
	return s.bindings.RemoveMatching(ctx, owner, kind)
}

// Resync makes every reachable copy and the record agree. The first located
// copy supplies the counters and is written back to the record. It returns
// the number of other copies rewritten.
func (s *Service) Resync(ctx context.Context, owner model.PlayerID, id model.TokenID) (int, error) {
	rec, err := s.bindings.Get(ctx, owner, id)
	if err != nil {
		return 0, err
	}
	locs, err := s.Locate(ctx, owner, rec.Kind, id)
	if err != nil {
		return 0, err
	}
	if len(locs) == 0 {
		return 0, nil
	}

	uses, maxUses := s.codec.Uses(locs[0].Item), s.codec.MaxUses(locs[0].Item)
	if err := s.bindings.SyncMaterialAndCounts(ctx, locs[0].Item); err != nil && !errors.Is(err, model.ErrNotBound) {
		return 0, err
	}
	rewritten := 0
	for _, loc := range locs[1:] {
		if s.codec.Uses(loc.Item) == uses && s.codec.MaxUses(loc.Item) == maxUses {
			continue
		}
		s.codec.Restore(loc.Item, uses, maxUses)
		rewritten++
	}
	return rewritten, nil
}
