package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

type TrackerSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	tracker *Tracker
	ctx     context.Context
}

func TestTrackerSuite(t *testing.T) {
	suite.Run(t, new(TrackerSuite))
}

func (s *TrackerSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.Window = 500 * time.Millisecond

	s.tracker = NewWithClient(client, cfg)
	s.ctx = context.Background()
}

func (s *TrackerSuite) TearDownTest() {
	_ = s.tracker.Close()
}

func (s *TrackerSuite) TestFirstClickArms() {
	owner, id := uuid.New(), uuid.New()

	ok, err := s.tracker.Click(s.ctx, owner, id)
	s.Require().NoError(err)
	s.False(ok)

	s.True(s.mini.Exists(pendingKey(owner)))
	s.Equal(500*time.Millisecond, s.mini.TTL(pendingKey(owner)))
}

func (s *TrackerSuite) TestSecondClickWithinWindowConfirms() {
	owner, id := uuid.New(), uuid.New()
	_, err := s.tracker.Click(s.ctx, owner, id)
	s.Require().NoError(err)
	s.mini.FastForward(200 * time.Millisecond)

	ok, err := s.tracker.Click(s.ctx, owner, id)
	s.Require().NoError(err)
	s.True(ok)
	s.False(s.mini.Exists(pendingKey(owner)))
}

func (s *TrackerSuite) TestSecondClickAfterWindowRearms() {
	owner, id := uuid.New(), uuid.New()
	_, err := s.tracker.Click(s.ctx, owner, id)
	s.Require().NoError(err)
	s.mini.FastForward(time.Second)

	ok, err := s.tracker.Click(s.ctx, owner, id)
	s.Require().NoError(err)
	s.False(ok)
	s.True(s.mini.Exists(pendingKey(owner)))
}

func (s *TrackerSuite) TestClickOnOtherTokenSupersedes() {
	owner, first, second := uuid.New(), uuid.New(), uuid.New()
	_, _ = s.tracker.Click(s.ctx, owner, first)
	_, _ = s.tracker.Click(s.ctx, owner, second)

	ok, err := s.tracker.Click(s.ctx, owner, first)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *TrackerSuite) TestClear() {
	owner, id := uuid.New(), uuid.New()
	_, _ = s.tracker.Click(s.ctx, owner, id)

	s.Require().NoError(s.tracker.Clear(s.ctx, owner))
	s.False(s.mini.Exists(pendingKey(owner)))
}

func (s *TrackerSuite) TestClickFailsWhenServerDown() {
	s.mini.Close()

	_, err := s.tracker.Click(s.ctx, uuid.New(), uuid.New())
	s.Error(err)
}
