package random

import (
	"github.com/google/uuid"
)

// Random provides identifier generation that can be mocked for testing
type Random interface {
	// UUID returns a new random (version 4) UUID
	UUID() uuid.UUID
}

// UUIDRandom implements Random using google/uuid backed by crypto/rand
type UUIDRandom struct{}

// New creates a new UUIDRandom
func New() *UUIDRandom {
	return &UUIDRandom{}
}

// UUID returns a fresh random UUID
func (r *UUIDRandom) UUID() uuid.UUID {
	return uuid.New()
}
