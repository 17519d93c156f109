package memory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/chargedblocks/internal/model"
	"github.com/mcoot/chargedblocks/internal/storage"
	"github.com/mcoot/chargedblocks/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.Suite
}

func TestStorageSuite(t *testing.T) {
	s := new(StorageSuite)
	s.New = func() storage.Storage { return New() }
	suite.Run(t, s)
}

func (s *StorageSuite) TestListReturnsCopies() {
	owner := uuid.New()
	b := model.Binding{Owner: owner, TokenID: uuid.New(), Kind: "DIAMOND_BLOCK", Uses: 5, MaxUses: 5}
	s.Require().NoError(s.Store.InsertBinding(s.Ctx, b))

	got, err := s.Store.ListBindings(s.Ctx, owner)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	got[0].Uses = 99

	again, err := s.Store.ListBindings(s.Ctx, owner)
	s.Require().NoError(err)
	s.Equal(int32(5), again[0].Uses)
}
