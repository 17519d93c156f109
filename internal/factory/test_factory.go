package factory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/chargedblocks/internal/audit"
	"github.com/mcoot/chargedblocks/internal/config"
	confirmmem "github.com/mcoot/chargedblocks/internal/confirm/memory"
	"github.com/mcoot/chargedblocks/internal/dependencies/mocks"
	"github.com/mcoot/chargedblocks/internal/model"
	"github.com/mcoot/chargedblocks/internal/storage"
	"github.com/mcoot/chargedblocks/internal/storage/memory"
	"github.com/mcoot/chargedblocks/internal/testutil"
	"github.com/mcoot/chargedblocks/internal/world"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
// and in-memory storage
func NewTestApp() *TestApp {
	return NewTestAppWithStorage(memory.New())
}

// NewTestAppWithStorage is NewTestApp over the given store. A nil store
// builds a disabled registry.
func NewTestAppWithStorage(store storage.Storage) *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	settings := config.Default()
	settings.DataDir = ""
	tracker := confirmmem.New(mockClock, settings.Confirm.Window)

	app := newWithDependencies(settings, store, tracker, audit.Nop{}, mockClock, mockRandom, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}

// JoinPlayer brings a new player online in the overworld
func (t *TestApp) JoinPlayer(name string) *world.Player {
	return t.World.Join(context.Background(), model.Player{ID: uuid.New(), Name: name}, "overworld", world.Vec3i{})
}
