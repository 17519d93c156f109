// Package storagetest holds the behaviour every storage backend must share.
// Backend packages embed Suite and provide New.
package storagetest

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/chargedblocks/internal/model"
	"github.com/mcoot/chargedblocks/internal/storage"
)

// Suite runs the shared scenarios against a backend
type Suite struct {
	suite.Suite

	// New returns a fresh, empty backend for each test
	New func() storage.Storage

	Store storage.Storage
	Ctx   context.Context
}

func (s *Suite) SetupTest() {
	s.Require().NotNil(s.New, "storagetest.Suite requires New")
	s.Store = s.New()
	s.Ctx = context.Background()
}

func (s *Suite) TearDownTest() {
	if s.Store != nil {
		s.NoError(s.Store.Close())
	}
}

func binding(owner model.PlayerID, kind model.Kind, uses, maxUses int32) model.Binding {
	return model.Binding{
		Owner:   owner,
		TokenID: uuid.New(),
		Kind:    kind,
		Uses:    uses,
		MaxUses: maxUses,
	}
}

// strip clears fields that only some backends keep
func strip(bs []model.Binding) []model.Binding {
	out := make([]model.Binding, len(bs))
	for i, b := range bs {
		b.OwnerName = ""
		out[i] = b
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].TokenID.String() < out[j].TokenID.String()
	})
	return out
}

// Binding tests

func (s *Suite) TestInsertAndGetBinding() {
	owner := uuid.New()
	b := binding(owner, "DIAMOND_BLOCK", 10, 10)

	s.Require().NoError(s.Store.InsertBinding(s.Ctx, b))

	got, err := s.Store.GetBinding(s.Ctx, owner, b.TokenID)
	s.Require().NoError(err)
	s.Equal(b.Kind, got.Kind)
	s.Equal(int32(10), got.Uses)
	s.Equal(int32(10), got.MaxUses)
	s.False(got.Hidden)
}

func (s *Suite) TestInsertExistingKeyIsRejected() {
	owner := uuid.New()
	b := binding(owner, "DIAMOND_BLOCK", 10, 10)
	s.Require().NoError(s.Store.InsertBinding(s.Ctx, b))

	again := b
	again.Uses = 3
	again.Kind = "GOLD_BLOCK"
	err := s.Store.InsertBinding(s.Ctx, again)
	s.ErrorIs(err, model.ErrAlreadyBound)

	got, err := s.Store.GetBinding(s.Ctx, owner, b.TokenID)
	s.Require().NoError(err)
	s.Equal(model.Kind("DIAMOND_BLOCK"), got.Kind)
	s.Equal(int32(10), got.Uses)
}

func (s *Suite) TestGetBindingNotFound() {
	_, err := s.Store.GetBinding(s.Ctx, uuid.New(), uuid.New())
	s.ErrorIs(err, model.ErrBindingNotFound)
}

func (s *Suite) TestSaveBindingUpserts() {
	owner := uuid.New()
	b := binding(owner, "DIAMOND_BLOCK", 10, 10)

	s.Require().NoError(s.Store.SaveBinding(s.Ctx, b))
	b.Uses = 4
	b.Kind = "EMERALD_BLOCK"
	s.Require().NoError(s.Store.SaveBinding(s.Ctx, b))

	got, err := s.Store.GetBinding(s.Ctx, owner, b.TokenID)
	s.Require().NoError(err)
	s.Equal(int32(4), got.Uses)
	s.Equal(model.Kind("EMERALD_BLOCK"), got.Kind)
}

func (s *Suite) TestSyncBindingKeepsHidden() {
	owner := uuid.New()
	b := binding(owner, "DIAMOND_BLOCK", 10, 10)
	s.Require().NoError(s.Store.InsertBinding(s.Ctx, b))

	// A hide landing between a counter read and its write-back
	s.Require().NoError(s.Store.SetHidden(s.Ctx, owner, b.TokenID, true))
	b.Uses = 9
	b.Hidden = false
	s.Require().NoError(s.Store.SyncBinding(s.Ctx, b))

	got, err := s.Store.GetBinding(s.Ctx, owner, b.TokenID)
	s.Require().NoError(err)
	s.True(got.Hidden)
	s.Equal(int32(9), got.Uses)
	s.Equal(int32(10), got.MaxUses)
}

func (s *Suite) TestSyncBindingInsertsMissingRecord() {
	owner := uuid.New()
	b := binding(owner, "GOLD_BLOCK", 3, 8)

	s.Require().NoError(s.Store.SyncBinding(s.Ctx, b))

	got, err := s.Store.GetBinding(s.Ctx, owner, b.TokenID)
	s.Require().NoError(err)
	s.False(got.Hidden)
	s.Equal(model.Kind("GOLD_BLOCK"), got.Kind)
	s.Equal(int32(3), got.Uses)
}

func (s *Suite) TestListBindingsReturnsOnlyOwnersRecords() {
	alice, bob := uuid.New(), uuid.New()
	a1 := binding(alice, "DIAMOND_BLOCK", 5, 5)
	a2 := binding(alice, "GOLD_BLOCK", 0, 5)
	b1 := binding(bob, "DIAMOND_BLOCK", 5, 5)
	for _, b := range []model.Binding{a1, a2, b1} {
		s.Require().NoError(s.Store.InsertBinding(s.Ctx, b))
	}

	got, err := s.Store.ListBindings(s.Ctx, alice)
	s.Require().NoError(err)
	s.Equal(strip([]model.Binding{a1, a2}), strip(got))
}

func (s *Suite) TestListBindingsUnknownOwnerIsEmpty() {
	got, err := s.Store.ListBindings(s.Ctx, uuid.New())
	s.Require().NoError(err)
	s.Empty(got)
}

func (s *Suite) TestSetHidden() {
	owner := uuid.New()
	b := binding(owner, "DIAMOND_BLOCK", 5, 5)
	s.Require().NoError(s.Store.InsertBinding(s.Ctx, b))

	s.Require().NoError(s.Store.SetHidden(s.Ctx, owner, b.TokenID, true))
	got, err := s.Store.GetBinding(s.Ctx, owner, b.TokenID)
	s.Require().NoError(err)
	s.True(got.Hidden)

	s.Require().NoError(s.Store.SetHidden(s.Ctx, owner, b.TokenID, false))
	got, err = s.Store.GetBinding(s.Ctx, owner, b.TokenID)
	s.Require().NoError(err)
	s.False(got.Hidden)
}

func (s *Suite) TestSetHiddenNotFound() {
	err := s.Store.SetHidden(s.Ctx, uuid.New(), uuid.New(), true)
	s.ErrorIs(err, model.ErrBindingNotFound)
}

func (s *Suite) TestDeleteBinding() {
	owner := uuid.New()
	keep := binding(owner, "DIAMOND_BLOCK", 5, 5)
	drop := binding(owner, "DIAMOND_BLOCK", 2, 5)
	s.Require().NoError(s.Store.InsertBinding(s.Ctx, keep))
	s.Require().NoError(s.Store.InsertBinding(s.Ctx, drop))

	s.Require().NoError(s.Store.DeleteBinding(s.Ctx, owner, drop.TokenID))

	_, err := s.Store.GetBinding(s.Ctx, owner, drop.TokenID)
	s.ErrorIs(err, model.ErrBindingNotFound)
	_, err = s.Store.GetBinding(s.Ctx, owner, keep.TokenID)
	s.NoError(err)
}

func (s *Suite) TestDeleteAbsentBindingIsNoop() {
	s.NoError(s.Store.DeleteBinding(s.Ctx, uuid.New(), uuid.New()))
}

func (s *Suite) TestDeleteLastBindingRemovesOwner() {
	owner := uuid.New()
	b := binding(owner, "DIAMOND_BLOCK", 5, 5)
	s.Require().NoError(s.Store.InsertBinding(s.Ctx, b))

	s.Require().NoError(s.Store.DeleteBinding(s.Ctx, owner, b.TokenID))

	owners, err := s.Store.Owners(s.Ctx)
	s.Require().NoError(err)
	s.NotContains(owners, owner)
}

func (s *Suite) TestDeleteBindingsByKind() {
	owner := uuid.New()
	d1 := binding(owner, "DIAMOND_BLOCK", 5, 5)
	d2 := binding(owner, "DIAMOND_BLOCK", 1, 5)
	g1 := binding(owner, "GOLD_BLOCK", 5, 5)
	for _, b := range []model.Binding{d1, d2, g1} {
		s.Require().NoError(s.Store.InsertBinding(s.Ctx, b))
	}

	n, err := s.Store.DeleteBindingsByKind(s.Ctx, owner, "DIAMOND_BLOCK")
	s.Require().NoError(err)
	s.Equal(2, n)

	got, err := s.Store.ListBindings(s.Ctx, owner)
	s.Require().NoError(err)
	s.Equal(strip([]model.Binding{g1}), strip(got))
}

func (s *Suite) TestDeleteBindingsByKindMatchesCanonicalKind() {
	owner := uuid.New()
	stored := binding(owner, "diamond_block", 5, 5)
	other := binding(owner, "GOLD_BLOCK", 5, 5)
	s.Require().NoError(s.Store.InsertBinding(s.Ctx, stored))
	s.Require().NoError(s.Store.InsertBinding(s.Ctx, other))

	n, err := s.Store.DeleteBindingsByKind(s.Ctx, owner, " DIAMOND_BLOCK")
	s.Require().NoError(err)
	s.Equal(1, n)

	_, err = s.Store.GetBinding(s.Ctx, owner, stored.TokenID)
	s.ErrorIs(err, model.ErrBindingNotFound)
}

func (s *Suite) TestDeleteOwner() {
	alice, bob := uuid.New(), uuid.New()
	s.Require().NoError(s.Store.InsertBinding(s.Ctx, binding(alice, "DIAMOND_BLOCK", 5, 5)))
	s.Require().NoError(s.Store.InsertBinding(s.Ctx, binding(alice, "GOLD_BLOCK", 5, 5)))
	s.Require().NoError(s.Store.InsertBinding(s.Ctx, binding(bob, "GOLD_BLOCK", 5, 5)))

	s.Require().NoError(s.Store.DeleteOwner(s.Ctx, alice))

	got, err := s.Store.ListBindings(s.Ctx, alice)
	s.Require().NoError(err)
	s.Empty(got)

	owners, err := s.Store.Owners(s.Ctx)
	s.Require().NoError(err)
	s.ElementsMatch([]model.PlayerID{bob}, owners)
}

func (s *Suite) TestOwners() {
	alice, bob := uuid.New(), uuid.New()
	s.Require().NoError(s.Store.InsertBinding(s.Ctx, binding(alice, "DIAMOND_BLOCK", 5, 5)))
	s.Require().NoError(s.Store.InsertBinding(s.Ctx, binding(alice, "GOLD_BLOCK", 5, 5)))
	s.Require().NoError(s.Store.InsertBinding(s.Ctx, binding(bob, "GOLD_BLOCK", 5, 5)))

	owners, err := s.Store.Owners(s.Ctx)
	s.Require().NoError(err)
	s.ElementsMatch([]model.PlayerID{alice, bob}, owners)
}

// Favorite tests

func (s *Suite) TestAddAndRemoveFavorite() {
	owner := uuid.New()

	added, err := s.Store.AddFavorite(s.Ctx, owner, "DIAMOND_BLOCK")
	s.Require().NoError(err)
	s.True(added)

	fav, err := s.Store.IsFavorite(s.Ctx, owner, "DIAMOND_BLOCK")
	s.Require().NoError(err)
	s.True(fav)

	removed, err := s.Store.RemoveFavorite(s.Ctx, owner, "DIAMOND_BLOCK")
	s.Require().NoError(err)
	s.True(removed)

	fav, err = s.Store.IsFavorite(s.Ctx, owner, "DIAMOND_BLOCK")
	s.Require().NoError(err)
	s.False(fav)
}

func (s *Suite) TestAddFavoriteTwiceReportsExisting() {
	owner := uuid.New()
	_, err := s.Store.AddFavorite(s.Ctx, owner, "DIAMOND_BLOCK")
	s.Require().NoError(err)

	added, err := s.Store.AddFavorite(s.Ctx, owner, "DIAMOND_BLOCK")
	s.Require().NoError(err)
	s.False(added)

	kinds, err := s.Store.ListFavorites(s.Ctx, owner)
	s.Require().NoError(err)
	s.Equal([]model.Kind{"DIAMOND_BLOCK"}, kinds)
}

func (s *Suite) TestRemoveAbsentFavorite() {
	removed, err := s.Store.RemoveFavorite(s.Ctx, uuid.New(), "DIAMOND_BLOCK")
	s.Require().NoError(err)
	s.False(removed)
}

func (s *Suite) TestListFavoritesPerOwner() {
	alice, bob := uuid.New(), uuid.New()
	for _, k := range []model.Kind{"GOLD_BLOCK", "DIAMOND_BLOCK"} {
		_, err := s.Store.AddFavorite(s.Ctx, alice, k)
		s.Require().NoError(err)
	}
	_, err := s.Store.AddFavorite(s.Ctx, bob, "IRON_BLOCK")
	s.Require().NoError(err)

	kinds, err := s.Store.ListFavorites(s.Ctx, alice)
	s.Require().NoError(err)
	s.ElementsMatch([]model.Kind{"GOLD_BLOCK", "DIAMOND_BLOCK"}, kinds)

	kinds, err = s.Store.ListFavorites(s.Ctx, uuid.New())
	s.Require().NoError(err)
	s.Empty(kinds)
}
