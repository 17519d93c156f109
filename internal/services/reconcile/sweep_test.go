package reconcile

import (
	"github.com/google/uuid"

	"github.com/mcoot/chargedblocks/internal/model"
	"github.com/mcoot/chargedblocks/internal/token"
	"github.com/mcoot/chargedblocks/internal/world"
)

// Join and region sweeps

func (s *ServiceSuite) TestJoinSweepRefreshesRecords() {
	item, id := s.bound(s.alice, "DIAMOND_BLOCK", 10)
	// Spent while the registry was not watching
	item.SetTag(token.TagUses, "3")
	s.world.SetListener(s.service)

	s.world.Join(s.ctx, model.Player{ID: s.alice.ID, Name: "Alice"}, "overworld", world.Vec3i{}, item)

	b, err := s.storage.GetBinding(s.ctx, s.alice.ID, id)
	s.Require().NoError(err)
	s.Equal(int32(3), b.Uses)
}

func (s *ServiceSuite) TestJoinSweepCountsOnlyChangedRecords() {
	fresh, _ := s.bound(s.alice, "DIAMOND_BLOCK", 10)
	stale, _ := s.bound(s.bob, "GOLD_BLOCK", 6)
	stale.SetTag(token.TagUses, "1")
	s.alice.Inventory.Add(fresh)
	s.alice.Inventory.Add(stale)
	s.alice.Inventory.Add(stale.Clone())
	s.alice.Inventory.Add(token.New("STONE"))

	n, err := s.service.OnPlayerJoin(s.ctx, s.alice)
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *ServiceSuite) TestJoinSweepDoesNotResurrectDiscardedRecords() {
	item, id := s.bound(s.alice, "DIAMOND_BLOCK", 10)
	s.Require().NoError(s.bindings.Delete(s.ctx, s.alice.ID, id))
	s.alice.Inventory.Add(item)

	n, err := s.service.OnPlayerJoin(s.ctx, s.alice)
	s.Require().NoError(err)
	s.Zero(n)

	_, err = s.storage.GetBinding(s.ctx, s.alice.ID, id)
	s.ErrorIs(err, model.ErrBindingNotFound)
}

func (s *ServiceSuite) TestRegionLoadSweepsHeldTokens() {
	s.world.SetListener(s.service)
	far := s.world.Region("nether")
	far.SetLoaded(s.ctx, false)

	placed, placedID := s.bound(s.alice, "DIAMOND_BLOCK", 10)
	chested, chestedID := s.bound(s.bob, "EMERALD_BLOCK", 4)
	far.PlaceBlock(world.Vec3i{Y: 12}, placed)
	chest := &world.Container{Type: "CHEST", Inventory: world.NewInventory(27)}
	chest.Inventory.Add(chested)
	far.PlaceContainer(chest)

	// Both changed while the region was unloaded
	placed.SetTag(token.TagUses, "7")
	chested.Kind = "DIAMOND_BLOCK"

	far.SetLoaded(s.ctx, true)

	b, err := s.storage.GetBinding(s.ctx, s.alice.ID, placedID)
	s.Require().NoError(err)
	s.Equal(int32(7), b.Uses)
	b, err = s.storage.GetBinding(s.ctx, s.bob.ID, chestedID)
	s.Require().NoError(err)
	s.Equal(model.Kind("DIAMOND_BLOCK"), b.Kind)
}

func (s *ServiceSuite) TestRegionSweepKeepsHiddenFlag() {
	item, id := s.bound(s.alice, "DIAMOND_BLOCK", 10)
	s.Require().NoError(s.bindings.SetHidden(s.ctx, s.alice.ID, id, true))
	item.SetTag(token.TagUses, "2")
	region := s.world.Region("overworld")
	region.AddEntity(&world.ItemEntity{EntityID: "e1", Item: item})

	n, err := s.service.OnRegionLoaded(s.ctx, region)
	s.Require().NoError(err)
	s.Equal(1, n)

	b, err := s.storage.GetBinding(s.ctx, s.alice.ID, id)
	s.Require().NoError(err)
	s.True(b.Hidden)
	s.Equal(int32(2), b.Uses)
}

// Break tests

func (s *ServiceSuite) TestBreakLastPlacedCopyDestroysRecord() {
	item, id := s.bound(s.alice, "DIAMOND_BLOCK", 10)
	region := s.world.Region("overworld")
	region.PlaceBlock(world.Vec3i{X: 3}, item)

	res, err := s.service.BreakPlaced(s.ctx, s.alice.ID, id)
	s.Require().NoError(err)
	s.Equal(1, res.Broken)
	s.Equal(1, res.Destroyed)
	s.Empty(region.Placed())

	_, err = s.storage.GetBinding(s.ctx, s.alice.ID, id)
	s.ErrorIs(err, model.ErrBindingNotFound)
}

func (s *ServiceSuite) TestBreakWithCopyElsewhereKeepsRecord() {
	item, id := s.bound(s.alice, "DIAMOND_BLOCK", 10)
	s.world.Region("overworld").PlaceBlock(world.Vec3i{X: 3}, item)
	s.bob.Inventory.Add(item.Clone())

	res, err := s.service.BreakPlaced(s.ctx, s.alice.ID, id)
	s.Require().NoError(err)
	s.Equal(1, res.Broken)
	s.Zero(res.Destroyed)

	_, err = s.storage.GetBinding(s.ctx, s.alice.ID, id)
	s.NoError(err)
}

func (s *ServiceSuite) TestBreakUnplacedToken() {
	item, id := s.bound(s.alice, "DIAMOND_BLOCK", 10)
	s.alice.Inventory.Add(item)

	_, err := s.service.BreakPlaced(s.ctx, s.alice.ID, id)
	s.ErrorIs(err, world.ErrTokenNotPlaced)
	s.Len(s.alice.Inventory.Items(), 1)

	_, err = s.service.BreakPlaced(s.ctx, s.alice.ID, uuid.New())
	s.ErrorIs(err, model.ErrBindingNotFound)
}
