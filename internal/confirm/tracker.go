// Package confirm holds the session-scoped state behind two-click confirmations
package confirm

import (
	"context"
	"time"

	"github.com/mcoot/chargedblocks/internal/model"
)

// DefaultWindow is how long a first click stays armed
const DefaultWindow = 500 * time.Millisecond

// Tracker arms and commits per (owner, token) confirmations.
// State is never persisted; a pending click that is not followed up in time
// is simply superseded by the next one.
type Tracker interface {
	// Click records a click on the pair and reports whether it confirms an
	// earlier click made within the window. A confirming click clears the
	// pending state; any other click arms it.
	Click(ctx context.Context, owner model.PlayerID, id model.TokenID) (bool, error)

	// Clear drops every pending click of the owner
	Clear(ctx context.Context, owner model.PlayerID) error

	Close() error
}
