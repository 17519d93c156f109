package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/chargedblocks/internal/dependencies/mocks"
	"github.com/mcoot/chargedblocks/internal/model"
)

type WriterSuite struct {
	suite.Suite
	dir    string
	clock  *mocks.MockClock
	writer *Writer
	errs   []error
	ctx    context.Context
}

func TestWriterSuite(t *testing.T) {
	suite.Run(t, new(WriterSuite))
}

func (s *WriterSuite) SetupTest() {
	s.dir = s.T().TempDir()
	s.clock = mocks.NewMockClock(time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC))
	s.errs = nil
	s.writer = NewWriter(s.dir, s.clock, func(err error) { s.errs = append(s.errs, err) })
	s.ctx = context.Background()
}

func (s *WriterSuite) sample(owner model.PlayerID) model.Binding {
	return model.Binding{Owner: owner, TokenID: uuid.New(), Kind: "DIAMOND_BLOCK", Uses: 7, MaxUses: 10}
}

func (s *WriterSuite) TestRoundTrip() {
	owner := uuid.New()
	b := s.sample(owner)
	s.writer.Record(s.ctx, ForBinding(ActionBind, b))
	s.writer.Record(s.ctx, Entry{Action: ActionClear, Owner: owner, Count: 3})
	s.Require().NoError(s.writer.Close())
	s.Empty(s.errs)

	entries, err := ReadFile(filepath.Join(s.dir, "audit-2024-03-01-10.jsonl.zst"))
	s.Require().NoError(err)
	s.Require().Len(entries, 2)

	s.Equal(ActionBind, entries[0].Action)
	s.Equal(owner, entries[0].Owner)
	s.Require().NotNil(entries[0].TokenID)
	s.Equal(b.TokenID, *entries[0].TokenID)
	s.Equal(int32(7), *entries[0].Uses)
	s.True(s.clock.Now().Equal(entries[0].At))

	s.Equal(ActionClear, entries[1].Action)
	s.Nil(entries[1].TokenID)
	s.Equal(3, entries[1].Count)
}

func (s *WriterSuite) TestRotatesHourly() {
	owner := uuid.New()
	s.writer.Record(s.ctx, ForBinding(ActionBind, s.sample(owner)))
	s.clock.Advance(time.Hour)
	s.writer.Record(s.ctx, ForBinding(ActionSync, s.sample(owner)))
	s.Require().NoError(s.writer.Close())

	files, err := Files(s.dir)
	s.Require().NoError(err)
	s.Equal([]string{
		filepath.Join(s.dir, "audit-2024-03-01-10.jsonl.zst"),
		filepath.Join(s.dir, "audit-2024-03-01-11.jsonl.zst"),
	}, files)
}

func (s *WriterSuite) TestReopenAppendsFrame() {
	owner := uuid.New()
	s.writer.Record(s.ctx, ForBinding(ActionBind, s.sample(owner)))
	s.Require().NoError(s.writer.Close())

	again := NewWriter(s.dir, s.clock, nil)
	again.Record(s.ctx, ForBinding(ActionDelete, s.sample(owner)))
	s.Require().NoError(again.Close())

	entries, err := ReadFile(filepath.Join(s.dir, "audit-2024-03-01-10.jsonl.zst"))
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(ActionDelete, entries[1].Action)
}
