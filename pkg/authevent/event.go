package authevent

import (
	"time"

	"github.com/google/uuid"

	"github.com/workdeck/workdeck/pkg/broadcast"
)

// Type classifies a session-identity change.
type Type string

const (
	// SignedIn fires after a user authenticates.
	SignedIn Type = "signed_in"
	// SignedOut fires after a user's session is revoked.
	SignedOut Type = "signed_out"
)

// Event describes a session-identity change for one user.
type Event struct {
	Type   Type
	UserID uuid.UUID
	At     time.Time
}

// Bus carries auth events between the auth module (publisher) and tenant
// context providers (subscribers).
type Bus = broadcast.Broadcaster[Event]

// NewBus creates an in-process auth event bus.
func NewBus() Bus {
	return broadcast.NewMemoryBroadcaster[Event](16)
}
