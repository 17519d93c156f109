package favorites

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/chargedblocks/internal/model"
	"github.com/mcoot/chargedblocks/internal/storage/flatfile"
	"github.com/mcoot/chargedblocks/internal/storage/memory"
	"github.com/mcoot/chargedblocks/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	service *Service
	owner   model.PlayerID
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.service = New(memory.New(), testutil.NopLogger())
	s.owner = uuid.New()
	s.ctx = context.Background()
}

func (s *ServiceSuite) TestToggleIsItsOwnInverse() {
	on, err := s.service.Toggle(s.ctx, s.owner, "DIAMOND_BLOCK")
	s.Require().NoError(err)
	s.True(on)

	on, err = s.service.Toggle(s.ctx, s.owner, "DIAMOND_BLOCK")
	s.Require().NoError(err)
	s.False(on)

	fav, err := s.service.IsFavorited(s.ctx, s.owner, "DIAMOND_BLOCK")
	s.Require().NoError(err)
	s.False(fav)
}

func (s *ServiceSuite) TestListSortedAndFiltered() {
	for _, k := range []model.Kind{"stone", "GOLD_BLOCK", "DIAMOND_BLOCK", "BEACON"} {
		_, err := s.service.Toggle(s.ctx, s.owner, k)
		s.Require().NoError(err)
	}

	kinds, err := s.service.List(s.ctx, s.owner, []model.Kind{"stone", "GOLD_BLOCK", "DIAMOND_BLOCK"})
	s.Require().NoError(err)
	s.Equal([]model.Kind{"DIAMOND_BLOCK", "GOLD_BLOCK", "stone"}, kinds)
}

func (s *ServiceSuite) TestListWithoutAllowListReturnsAll() {
	_, _ = s.service.Toggle(s.ctx, s.owner, "GOLD_BLOCK")
	_, _ = s.service.Toggle(s.ctx, s.owner, "BEACON")

	kinds, err := s.service.List(s.ctx, s.owner, nil)
	s.Require().NoError(err)
	s.Equal([]model.Kind{"BEACON", "GOLD_BLOCK"}, kinds)
}

func (s *ServiceSuite) TestEmptyAllowListFiltersEverything() {
	_, _ = s.service.Toggle(s.ctx, s.owner, "GOLD_BLOCK")

	kinds, err := s.service.List(s.ctx, s.owner, []model.Kind{})
	s.Require().NoError(err)
	s.Empty(kinds)
}

func (s *ServiceSuite) TestDisabled() {
	disabled := New(nil, testutil.NopLogger())

	_, err := disabled.Toggle(s.ctx, s.owner, "GOLD_BLOCK")
	s.ErrorIs(err, model.ErrStoreUnavailable)

	fav, err := disabled.IsFavorited(s.ctx, s.owner, "GOLD_BLOCK")
	s.NoError(err)
	s.False(fav)

	kinds, err := disabled.List(s.ctx, s.owner, nil)
	s.NoError(err)
	s.Empty(kinds)
}

func (s *ServiceSuite) TestBackendsAgree() {
	file, err := flatfile.New(flatfile.DefaultConfig(s.T().TempDir()))
	s.Require().NoError(err)
	services := []*Service{s.service, New(file, testutil.NopLogger())}

	ops := []model.Kind{"GOLD_BLOCK", "stone", "GOLD_BLOCK", "BEACON", "stone", "IRON_BLOCK"}
	var results [][]model.Kind
	for _, svc := range services {
		for _, k := range ops {
			_, err := svc.Toggle(s.ctx, s.owner, k)
			s.Require().NoError(err)
		}
		kinds, err := svc.List(s.ctx, s.owner, nil)
		s.Require().NoError(err)
		results = append(results, kinds)
	}
	s.Equal([]model.Kind{"BEACON", "IRON_BLOCK"}, results[0])
	s.Equal(results[0], results[1])
}
