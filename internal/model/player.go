package model

import (
	"strings"

	"github.com/google/uuid"
)

// PlayerID uniquely identifies a player across the system
type PlayerID = uuid.UUID

// TokenID is assigned to a token when it is first bound and joins it to its
// registry record
type TokenID = uuid.UUID

// Kind is a material/type identifier such as "DIAMOND_BLOCK"
type Kind string

// Canonical returns the kind in the form used for ordering and comparison
func (k Kind) Canonical() string {
	return strings.ToUpper(strings.TrimSpace(string(k)))
}

// Player is an online participant as seen by the core
type Player struct {
	ID   PlayerID
	Name string
}
