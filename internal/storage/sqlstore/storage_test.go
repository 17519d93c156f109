package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/chargedblocks/internal/dependencies/mocks"
	"github.com/mcoot/chargedblocks/internal/model"
	"github.com/mcoot/chargedblocks/internal/storage"
	"github.com/mcoot/chargedblocks/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.Suite
	dir string
}

func TestStorageSuite(t *testing.T) {
	s := new(StorageSuite)
	s.New = func() storage.Storage {
		s.dir = t.TempDir()
		cfg := DefaultConfig()
		cfg.DSN = filepath.Join(s.dir, "registry.db")
		st, err := New(context.Background(), cfg, mocks.NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
		if err != nil {
			t.Fatalf("open sqlite storage: %v", err)
		}
		return st
	}
	suite.Run(t, s)
}

func (s *StorageSuite) TestPlayerNameKeptWhenUpdateOmitsIt() {
	owner := uuid.New()
	b := model.Binding{Owner: owner, TokenID: uuid.New(), Kind: "DIAMOND_BLOCK", Uses: 5, MaxUses: 5, OwnerName: "alice"}
	s.Require().NoError(s.Store.InsertBinding(s.Ctx, b))

	b.OwnerName = ""
	b.Uses = 4
	s.Require().NoError(s.Store.SaveBinding(s.Ctx, b))

	got, err := s.Store.GetBinding(s.Ctx, owner, b.TokenID)
	s.Require().NoError(err)
	s.Equal("alice", got.OwnerName)
	s.Equal(int32(4), got.Uses)
}

func (s *StorageSuite) TestSchemaInitIsIdempotent() {
	cfg := DefaultConfig()
	cfg.DSN = filepath.Join(s.dir, "registry.db")
	s.Require().NoError(s.Store.Close())

	reopened, err := New(s.Ctx, cfg, mocks.NewMockClock(time.Now()))
	s.Require().NoError(err)
	s.Store = reopened

	owners, err := reopened.Owners(s.Ctx)
	s.Require().NoError(err)
	s.Empty(owners)
}

func TestRebind(t *testing.T) {
	suite.Run(t, new(RebindSuite))
}

type RebindSuite struct {
	suite.Suite
}

func (s *RebindSuite) TestSQLiteUnchanged() {
	s.Equal("SELECT ? , ?", rebind(DriverSQLite, "SELECT ? , ?"))
}

func (s *RebindSuite) TestPostgresNumbered() {
	s.Equal("SELECT $1 , $2", rebind(DriverPostgres, "SELECT ? , ?"))
}
