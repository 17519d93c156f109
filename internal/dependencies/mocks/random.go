package mocks

import (
	"sync"

	"github.com/google/uuid"

	"github.com/mcoot/chargedblocks/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing
type MockRandom struct {
	mu sync.Mutex

	// UUIDResults is a queue of results to return from UUID
	UUIDResults []uuid.UUID
	uuidIndex   int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// UUID returns the next queued result, or a fresh random UUID if none remain
func (r *MockRandom) UUID() uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.uuidIndex >= len(r.UUIDResults) {
		return uuid.New()
	}
	result := r.UUIDResults[r.uuidIndex]
	r.uuidIndex++
	return result
}

// QueueUUID adds values to the UUID result queue
func (r *MockRandom) QueueUUID(values ...uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.UUIDResults = append(r.UUIDResults, values...)
}

// Reset clears all queued results
func (r *MockRandom) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.UUIDResults = nil
	r.uuidIndex = 0
}
