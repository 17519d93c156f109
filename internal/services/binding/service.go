package binding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/mcoot/chargedblocks/internal/audit"
	"github.com/mcoot/chargedblocks/internal/confirm"
	"github.com/mcoot/chargedblocks/internal/dependencies/random"
	"github.com/mcoot/chargedblocks/internal/model"
	"github.com/mcoot/chargedblocks/internal/storage"
	"github.com/mcoot/chargedblocks/internal/token"
)

// NameResolver looks up a player's display name
type NameResolver interface {
	PlayerName(ctx context.Context, id model.PlayerID) string
}

// Service owns binding records: creation, mirroring of live counters,
// listing with cleanup, hiding and removal.
//
// A Service built without a store is disabled: reads return nothing and
// mutations fail with model.ErrStoreUnavailable.
type Service struct {
	store   storage.Bindings
	codec   *token.Codec
	tracker confirm.Tracker
	journal audit.Journal
	names   NameResolver
	random  random.Random
	logger  *slog.Logger
}

// Ensure Service can mirror codec decrements
var _ token.Syncer = (*Service)(nil)

// New creates a binding service. names and journal may be nil.
func New(
	store storage.Bindings,
	codec *token.Codec,
	tracker confirm.Tracker,
	journal audit.Journal,
	names NameResolver,
	random random.Random,
	logger *slog.Logger,
) *Service {
	if journal == nil {
		journal = audit.Nop{}
	}
	return &Service{
		store:   store,
		codec:   codec,
		tracker: tracker,
		journal: journal,
		names:   names,
		random:  random,
		logger:  logger,
	}
}

// Enabled reports whether the service has a working store
func (s *Service) Enabled() bool {
	return s.store != nil
}

func (s *Service) storeErr(op string, err error) error {
	s.logger.Error("binding store operation failed",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
	return fmt.Errorf("%s: %w: %v", op, model.ErrStoreUnavailable, err)
}

func (s *Service) playerName(ctx context.Context, owner model.PlayerID) string {
	if s.names == nil {
		return ""
	}
	return s.names.PlayerName(ctx, owner)
}

// Bind claims the item for owner, writes its record and tags it with the
// owner and a fresh token id. An item that already carries an owner is
// rejected with model.ErrAlreadyBound and left untouched.
func (s *Service) Bind(ctx context.Context, owner model.PlayerID, item *token.Item) (model.TokenID, error) {
	if item.Bound() {
		return model.TokenID{}, model.ErrAlreadyBound
	}
	if !s.Enabled() {
		return model.TokenID{}, model.ErrStoreUnavailable
	}

	id := s.random.UUID()
	name := s.playerName(ctx, owner)

	release := item.Claim()
	defer release()

	// Another handler may have bound the item since the first check
	if item.Bound() {
		return model.TokenID{}, model.ErrAlreadyBound
	}

	b := model.Binding{
		Owner:     owner,
		TokenID:   id,
		Kind:      item.Kind,
		Uses:      s.codec.Uses(item),
		MaxUses:   s.codec.MaxUses(item),
		OwnerName: name,
	}
	if err := s.store.InsertBinding(ctx, b); err != nil {
		if errors.Is(err, model.ErrAlreadyBound) {
			return model.TokenID{}, err
		}
		return model.TokenID{}, s.storeErr("bind", err)
	}

	if !item.TagOwnership(owner, id) {
		// Tagged outside the service; drop the record written for it
		if err := s.store.DeleteBinding(ctx, owner, id); err != nil {
			s.logger.Warn("failed to drop record of a token bound elsewhere",
				slog.String("owner", owner.String()),
				slog.String("token_id", id.String()),
				slog.String("error", err.Error()),
			)
		}
		return model.TokenID{}, model.ErrAlreadyBound
	}
	if name != "" {
		token.SetOwnerLine(item, name)
	}
	s.codec.Refresh(item)

	s.journal.Record(ctx, audit.ForBinding(audit.ActionBind, b))
	s.logger.Debug("token bound",
		slog.String("owner", owner.String()),
		slog.String("token_id", id.String()),
		slog.String("kind", string(b.Kind)),
	)
	return id, nil
}

// IsBound reports whether the item carries an owner tag
func (s *Service) IsBound(item *token.Item) bool {
	return item.Bound()
}

// Owner returns the owner the item is bound to
func (s *Service) Owner(item *token.Item) (model.PlayerID, bool) {
	return item.Owner()
}

// Authorize fails with model.ErrNotOwner when the item is bound to someone
// other than actor. Unbound items are free for anyone.
func (s *Service) Authorize(item *token.Item, actor model.PlayerID) error {
	owner, ok := item.Owner()
	if !ok || owner == actor {
		return nil
	}
	return model.ErrNotOwner
}

// SyncMaterialAndCounts overwrites the item's record with its live kind and
// counters. Unbound items are ignored. The stored hidden flag is kept by the
// store in the same write, so a concurrent hide is never reverted.
func (s *Service) SyncMaterialAndCounts(ctx context.Context, item *token.Item) error {
	owner, ok := item.Owner()
	if !ok {
		return nil
	}
	id, ok := item.TokenID()
	if !ok {
		return model.ErrNotBound
	}
	if !s.Enabled() {
		return model.ErrStoreUnavailable
	}

	b := model.Binding{
		Owner:     owner,
		TokenID:   id,
		Kind:      item.Kind,
		Uses:      s.codec.Uses(item),
		MaxUses:   s.codec.MaxUses(item),
		OwnerName: s.playerName(ctx, owner),
	}
	if err := s.store.SyncBinding(ctx, b); err != nil {
		return s.storeErr("sync", err)
	}
	s.journal.Record(ctx, audit.ForBinding(audit.ActionSync, b))
	return nil
}

// List returns the owner's visible records ordered by kind, then token id.
//
// List is not read-only: records with no uses left are deleted before the
// result is built, and an owner left without any record (hidden ones
// included) loses its namespace entirely.
func (s *Service) List(ctx context.Context, owner model.PlayerID) ([]model.Binding, error) {
	all, err := s.collect(ctx, owner)
	if err != nil {
		return nil, err
	}
	out := make([]model.Binding, 0, len(all))
	for _, b := range all {
		if !b.Hidden {
			out = append(out, b)
		}
	}
	return out, nil
}

// ListHidden returns the owner's archived records, with the same cleanup
// and ordering as List
func (s *Service) ListHidden(ctx context.Context, owner model.PlayerID) ([]model.Binding, error) {
	all, err := s.collect(ctx, owner)
	if err != nil {
		return nil, err
	}
	out := make([]model.Binding, 0)
	for _, b := range all {
		if b.Hidden {
			out = append(out, b)
		}
	}
	return out, nil
}

// collect loads every record of the owner and applies the depleted-record
// cleanup
func (s *Service) collect(ctx context.Context, owner model.PlayerID) ([]model.Binding, error) {
	if !s.Enabled() {
		return []model.Binding{}, nil
	}
	all, err := s.store.ListBindings(ctx, owner)
	if err != nil {
		return nil, s.storeErr("list", err)
	}

	live := make([]model.Binding, 0, len(all))
	removed := 0
	for _, b := range all {
		if !b.Depleted() {
			live = append(live, b)
			continue
		}
		if err := s.store.DeleteBinding(ctx, owner, b.TokenID); err != nil {
			return nil, s.storeErr("list cleanup", err)
		}
		removed++
	}
	if len(live) == 0 && len(all) > 0 {
		if err := s.store.DeleteOwner(ctx, owner); err != nil {
			return nil, s.storeErr("list cleanup", err)
		}
	}
	if removed > 0 {
		s.journal.Record(ctx, audit.Entry{Action: audit.ActionGC, Owner: owner, Count: removed})
		s.logger.Debug("removed depleted bindings",
			slog.String("owner", owner.String()),
			slog.Int("count", removed),
		)
	}

	sortBindings(live)
	return live, nil
}

func sortBindings(bs []model.Binding) {
	sort.Slice(bs, func(i, j int) bool {
		ki, kj := bs[i].Kind.Canonical(), bs[j].Kind.Canonical()
		if ki != kj {
			return ki < kj
		}
		return bs[i].TokenID.String() < bs[j].TokenID.String()
	})
}

// Get returns a single record
func (s *Service) Get(ctx context.Context, owner model.PlayerID, id model.TokenID) (model.Binding, error) {
	if !s.Enabled() {
		return model.Binding{}, model.ErrBindingNotFound
	}
	b, err := s.store.GetBinding(ctx, owner, id)
	if err != nil {
		if errors.Is(err, model.ErrBindingNotFound) {
			return model.Binding{}, err
		}
		return model.Binding{}, s.storeErr("get", err)
	}
	return b, nil
}

// SetHidden archives or restores a record
func (s *Service) SetHidden(ctx context.Context, owner model.PlayerID, id model.TokenID, hidden bool) error {
	if !s.Enabled() {
		return model.ErrStoreUnavailable
	}
	if err := s.store.SetHidden(ctx, owner, id, hidden); err != nil {
		if errors.Is(err, model.ErrBindingNotFound) {
			return err
		}
		return s.storeErr("set hidden", err)
	}

	action := audit.ActionHide
	if !hidden {
		action = audit.ActionUnhide
	}
	tid := id
	s.journal.Record(ctx, audit.Entry{Action: action, Owner: owner, TokenID: &tid})
	return nil
}

// ClickHide handles one click of the two-click hide. The first click arms
// the confirmation; a second click on the same record inside the window
// hides it. It reports whether the record is now hidden.
func (s *Service) ClickHide(ctx context.Context, owner model.PlayerID, id model.TokenID) (bool, error) {
	if !s.Enabled() {
		return false, model.ErrStoreUnavailable
	}
	if _, err := s.Get(ctx, owner, id); err != nil {
		return false, err
	}

	confirmed, err := s.tracker.Click(ctx, owner, id)
	if err != nil {
		return false, fmt.Errorf("hide click: %w", err)
	}
	if !confirmed {
		return false, nil
	}
	if err := s.SetHidden(ctx, owner, id, true); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveAllForOwner wipes every record of the owner
func (s *Service) RemoveAllForOwner(ctx context.Context, owner model.PlayerID) error {
	if !s.Enabled() {
		return model.ErrStoreUnavailable
	}
	if err := s.store.DeleteOwner(ctx, owner); err != nil {
		return s.storeErr("remove all", err)
	}
	s.journal.Record(ctx, audit.Entry{Action: audit.ActionClear, Owner: owner})
	if s.tracker != nil {
		_ = s.tracker.Clear(ctx, owner)
	}
	return nil
}

// RemoveMatching deletes every record of the owner with the given kind and
// returns how many went
func (s *Service) RemoveMatching(ctx context.Context, owner model.PlayerID, kind model.Kind) (int, error) {
	if !s.Enabled() {
		return 0, model.ErrStoreUnavailable
	}
	n, err := s.store.DeleteBindingsByKind(ctx, owner, kind)
	if err != nil {
		return 0, s.storeErr("remove matching", err)
	}
	if n > 0 {
		s.journal.Record(ctx, audit.Entry{Action: audit.ActionDestroy, Owner: owner, Kind: kind, Count: n})
	}
	return n, nil
}

// Delete removes a single record. Deleting an absent record is not an error.
func (s *Service) Delete(ctx context.Context, owner model.PlayerID, id model.TokenID) error {
	if !s.Enabled() {
		return model.ErrStoreUnavailable
	}
	if err := s.store.DeleteBinding(ctx, owner, id); err != nil {
		return s.storeErr("delete", err)
	}
	tid := id
	s.journal.Record(ctx, audit.Entry{Action: audit.ActionDelete, Owner: owner, TokenID: &tid})
	return nil
}

// Owners lists every owner with at least one record
func (s *Service) Owners(ctx context.Context) ([]model.PlayerID, error) {
	if !s.Enabled() {
		return []model.PlayerID{}, nil
	}
	owners, err := s.store.Owners(ctx)
	if err != nil {
		return nil, s.storeErr("owners", err)
	}
	sort.Slice(owners, func(i, j int) bool {
		return owners[i].String() < owners[j].String()
	})
	return owners, nil
}
