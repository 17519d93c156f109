package factory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/chargedblocks/internal/config"
	confirmmem "github.com/mcoot/chargedblocks/internal/confirm/memory"
	"github.com/mcoot/chargedblocks/internal/model"
	"github.com/mcoot/chargedblocks/internal/storage/flatfile"
	"github.com/mcoot/chargedblocks/internal/testutil"
	"github.com/mcoot/chargedblocks/internal/token"
	"github.com/mcoot/chargedblocks/internal/world"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

func (s *IntegrationSuite) TearDownTest() {
	s.NoError(s.app.Close())
}

// Test: bind, spend charges, archive, then collapse copies back to the owner
func (s *IntegrationSuite) TestTokenLifecycle() {
	alice := s.app.JoinPlayer("Alice")
	bob := s.app.JoinPlayer("Bob")

	// Step 1: Bind a fresh token
	item := token.New("DIAMOND_BLOCK")
	s.Require().NoError(s.app.Codec.SetUses(item, 5))
	id, err := s.app.Bindings.Bind(s.ctx, alice.ID, item)
	s.Require().NoError(err)
	alice.Inventory.Add(item)

	// Step 2: Spending charges mirrors into the record
	s.app.Codec.Decrement(s.ctx, item)
	s.app.Codec.Decrement(s.ctx, item)
	list, err := s.app.Bindings.List(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(int32(3), list[0].Uses)

	// Step 3: Bob ends up holding a copy and someone places another
	bob.Inventory.Add(item.Clone())
	s.app.World.Region("overworld").PlaceBlock(world.Vec3i{Y: 64}, item.Clone())

	// Step 4: Retrieval collapses every copy into one in Alice's inventory
	res, err := s.app.Reconcile.Retrieve(s.ctx, alice.ID, id)
	s.Require().NoError(err)
	s.Equal(3, res.Removed)
	s.Empty(bob.Inventory.Items())
	s.Len(bob.Messages(), 1)
	s.Require().Len(alice.Inventory.Items(), 1)
	s.Equal(int32(3), s.app.Codec.Uses(alice.Inventory.Items()[0]))

	// Step 5: Double click archives it
	ok, err := s.app.Bindings.ClickHide(s.ctx, alice.ID, id)
	s.Require().NoError(err)
	s.False(ok)
	s.app.MockClock.Advance(200 * time.Millisecond)
	ok, err = s.app.Bindings.ClickHide(s.ctx, alice.ID, id)
	s.Require().NoError(err)
	s.True(ok)

	list, err = s.app.Bindings.List(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Empty(list)
	hidden, err := s.app.Bindings.ListHidden(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Len(hidden, 1)
}

// Test: spent tokens disappear from the registry once the last copy is gone
func (s *IntegrationSuite) TestSpentTokenIsCollected() {
	alice := s.app.JoinPlayer("Alice")

	item := token.New("GOLD_BLOCK")
	s.Require().NoError(s.app.Codec.SetUses(item, 1))
	_, err := s.app.Bindings.Bind(s.ctx, alice.ID, item)
	s.Require().NoError(err)

	s.Equal(int32(0), s.app.Codec.Decrement(s.ctx, item))

	list, err := s.app.Bindings.List(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Empty(list)

	owners, err := s.app.Bindings.Owners(s.ctx)
	s.Require().NoError(err)
	s.Empty(owners)
}

// Test: favorites filter through the catalog allow-list
func (s *IntegrationSuite) TestFavoritesRespectCatalog() {
	alice := s.app.JoinPlayer("Alice")

	for _, kind := range []model.Kind{"GOLD_BLOCK", "DIAMOND_BLOCK"} {
		on, err := s.app.Favorites.Toggle(s.ctx, alice.ID, kind)
		s.Require().NoError(err)
		s.True(on)
	}

	allowed := s.app.Catalog.AllowedKinds(s.ctx, alice.ID)
	favs, err := s.app.Favorites.List(s.ctx, alice.ID, allowed)
	s.Require().NoError(err)
	s.Equal([]model.Kind{"DIAMOND_BLOCK", "GOLD_BLOCK"}, favs)
}

// Test: a registry without storage refuses writes and reads as empty
func (s *IntegrationSuite) TestDisabledRegistry() {
	app := NewTestAppWithStorage(nil)
	defer app.Close()
	alice := app.JoinPlayer("Alice")

	s.False(app.Bindings.Enabled())
	_, err := app.Bindings.Bind(s.ctx, alice.ID, token.New("STONE"))
	s.ErrorIs(err, model.ErrStoreUnavailable)

	list, err := app.Bindings.List(s.ctx, alice.ID)
	s.NoError(err)
	s.Empty(list)

	_, err = app.Favorites.Toggle(s.ctx, alice.ID, "STONE")
	s.ErrorIs(err, model.ErrStoreUnavailable)
}

type FactorySuite struct {
	suite.Suite
	dir      string
	settings config.Config
	ctx      context.Context
}

func TestFactorySuite(t *testing.T) {
	suite.Run(t, new(FactorySuite))
}

func (s *FactorySuite) SetupTest() {
	s.dir = s.T().TempDir()
	s.settings = config.Default()
	s.settings.DataDir = s.dir
	s.ctx = context.Background()
}

func (s *FactorySuite) open() *App {
	app, err := New(s.ctx, Config{Settings: s.settings, Logger: testutil.NopLogger()})
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = app.Close() })
	return app
}

func (s *FactorySuite) TestFlatFileMigratesLegacyOnStartup() {
	legacy := "6f1c1c52-8d53-4d5e-9a3e-2b1b6c3b1a01:\n" +
		"  1a2b3c4d-0000-4000-8000-000000000001:\n" +
		"    material: DIAMOND_BLOCK\n    uses: 7\n    max_uses: 9\n"
	s.Require().NoError(os.WriteFile(filepath.Join(s.dir, "data.yml"), []byte(legacy), 0o644))

	app := s.open()
	s.IsType(&flatfile.Storage{}, app.Storage)
	s.FileExists(filepath.Join(s.dir, "data.yml.backup"))

	owners, err := app.Bindings.Owners(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(owners, 1)
	list, err := app.Bindings.List(s.ctx, owners[0])
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(int32(7), list[0].Uses)
}

func (s *FactorySuite) TestBrokenLegacyDisablesRegistry() {
	s.Require().NoError(os.WriteFile(filepath.Join(s.dir, "data.yml"), []byte("- nope\n"), 0o644))

	app := s.open()
	s.Nil(app.Storage)
	s.False(app.Bindings.Enabled())
	s.FileExists(filepath.Join(s.dir, "data.yml"))
}

func (s *FactorySuite) TestSQLite() {
	s.settings.Storage.Type = config.StorageSQL

	app := s.open()
	s.NotNil(app.Storage)
	s.True(app.Bindings.Enabled())
	s.FileExists(filepath.Join(s.dir, "registry.db"))
}

func (s *FactorySuite) TestUnreachableDatabaseDisablesRegistry() {
	s.settings.Storage.Type = config.StorageSQL
	s.settings.Storage.SQL.Driver = "postgres"
	s.settings.Storage.SQL.DSN = "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1"
	s.settings.Storage.SQL.QueryTimeout = time.Second

	app := s.open()
	s.Nil(app.Storage)
	s.False(app.Favorites.Enabled())
}

func (s *FactorySuite) TestUnreachableRedisFallsBack() {
	s.settings.Storage.Type = config.StorageMemory
	s.settings.Confirm.Type = config.ConfirmRedis
	s.settings.Confirm.RedisURL = "redis://127.0.0.1:1"

	app := s.open()
	s.IsType(&confirmmem.Tracker{}, app.Session.Tracker)
}

func (s *FactorySuite) TestInvalidSettings() {
	s.settings.Storage.Type = "tape"
	_, err := New(s.ctx, Config{Settings: s.settings})
	s.Error(err)
}
