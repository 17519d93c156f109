package world

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/chargedblocks/internal/dependencies/mocks"
	"github.com/mcoot/chargedblocks/internal/model"
	"github.com/mcoot/chargedblocks/internal/token"
)

type WorldSuite struct {
	suite.Suite
	random *mocks.MockRandom
	world  *World
	ctx    context.Context
}

func TestWorldSuite(t *testing.T) {
	suite.Run(t, new(WorldSuite))
}

func (s *WorldSuite) SetupTest() {
	s.random = mocks.NewMockRandom()
	s.world = New(s.random)
	s.ctx = context.Background()
}

func (s *WorldSuite) TestGiveFallsShortWhenFull() {
	p := s.world.Join(s.ctx, model.Player{ID: uuid.New(), Name: "Alice"}, "overworld", Vec3i{})
	for i := 0; i < DefaultInventorySize; i++ {
		s.Require().True(p.Inventory.Add(token.New("STONE")))
	}

	ok, err := s.world.Give(s.ctx, p.ID, token.New("DIAMOND_BLOCK"))
	s.Require().NoError(err)
	s.False(ok)
}

func (s *WorldSuite) TestDropLandsAtPlayer() {
	id := uuid.New()
	s.random.QueueUUID(id)
	p := s.world.Join(s.ctx, model.Player{ID: uuid.New(), Name: "Alice"}, "overworld", Vec3i{X: 1, Y: 64, Z: -3})

	e, err := s.world.Drop(s.ctx, p.ID, token.New("DIAMOND_BLOCK"))
	s.Require().NoError(err)
	s.Equal(id.String(), e.EntityID)
	s.Equal(Vec3i{X: 1, Y: 64, Z: -3}, e.Pos)
	s.Len(s.world.Region("overworld").Entities(), 1)
}

func (s *WorldSuite) TestOfflinePlayer() {
	_, err := s.world.Give(s.ctx, uuid.New(), token.New("STONE"))
	s.ErrorIs(err, ErrPlayerOffline)
	_, err = s.world.Drop(s.ctx, uuid.New(), token.New("STONE"))
	s.ErrorIs(err, ErrPlayerOffline)
	s.Equal("", s.world.PlayerName(s.ctx, uuid.New()))
}

func (s *WorldSuite) TestLoadedRegions() {
	s.world.Region("b")
	s.world.Region("a")
	s.world.Region("c").SetLoaded(s.ctx, false)

	var names []string
	for _, r := range s.world.LoadedRegions() {
		names = append(names, r.Name)
	}
	s.Equal([]string{"a", "b"}, names)
}

func (s *WorldSuite) TestRemovalsAreIdempotent() {
	r := s.world.Region("overworld")
	item := token.New("DIAMOND_BLOCK")
	r.PlaceBlock(Vec3i{X: 1}, item)
	r.AddEntity(&ItemEntity{EntityID: "e1", Item: item})

	s.True(r.BreakBlock(Vec3i{X: 1}, item))
	s.False(r.BreakBlock(Vec3i{X: 1}, item))
	s.True(r.RemoveEntity("e1"))
	s.False(r.RemoveEntity("e1"))

	inv := NewInventory(2)
	inv.Add(item)
	s.True(inv.Remove(item))
	s.False(inv.Remove(item))
}

func (s *WorldSuite) TestBreakBlockKeepsReplacement() {
	r := s.world.Region("overworld")
	old, replacement := token.New("STONE"), token.New("STONE")
	r.PlaceBlock(Vec3i{}, old)
	r.PlaceBlock(Vec3i{}, replacement)

	s.False(r.BreakBlock(Vec3i{}, old))
	s.Len(r.Placed(), 1)
}

func (s *WorldSuite) TestCatalogDisplayName() {
	c := NewStaticCatalog([]model.Kind{"DIAMOND_BLOCK"}, map[model.Kind]string{"BEACON": "Signal Beacon"})
	s.Equal("Diamond Block", c.DisplayName("DIAMOND_BLOCK"))
	s.Equal("Signal Beacon", c.DisplayName("BEACON"))
	s.Equal([]model.Kind{"DIAMOND_BLOCK"}, c.AllowedKinds(s.ctx, uuid.New()))
}

type recordingListener struct {
	joined []string
	loaded []string
}

func (l *recordingListener) PlayerJoined(_ context.Context, p *Player) {
	l.joined = append(l.joined, p.Name)
}

func (l *recordingListener) RegionLoaded(_ context.Context, r *Region) {
	l.loaded = append(l.loaded, r.Name)
}

func (s *WorldSuite) TestListenerSeesJoinWithItems() {
	l := &recordingListener{}
	s.world.SetListener(l)

	p := s.world.Join(s.ctx, model.Player{ID: uuid.New(), Name: "Alice"}, "overworld", Vec3i{}, token.New("STONE"))

	s.Equal([]string{"Alice"}, l.joined)
	s.Len(p.Inventory.Items(), 1)
}

func (s *WorldSuite) TestListenerSeesOnlyLoadTransitions() {
	l := &recordingListener{}
	s.world.SetListener(l)
	r := s.world.Region("nether")

	r.SetLoaded(s.ctx, true)
	s.Empty(l.loaded, "already loaded")

	r.SetLoaded(s.ctx, false)
	r.SetLoaded(s.ctx, true)
	r.SetLoaded(s.ctx, true)
	s.Equal([]string{"nether"}, l.loaded)
}

func (s *WorldSuite) TestHeld() {
	p := s.world.Join(s.ctx, model.Player{ID: uuid.New(), Name: "Alice"}, "overworld", Vec3i{})
	item := token.New("STONE")
	id := uuid.New()
	item.TagOwnership(p.ID, id)
	p.Inventory.Add(item)

	_, got, err := s.world.Held(p.ID, id)
	s.Require().NoError(err)
	s.Same(item, got)

	_, _, err = s.world.Held(p.ID, uuid.New())
	s.ErrorIs(err, ErrTokenNotHeld)
	_, _, err = s.world.Held(uuid.New(), id)
	s.ErrorIs(err, ErrPlayerOffline)
}
