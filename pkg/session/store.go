package session

import (
	"context"
	"time"
)

// Store defines the interface for session persistence.
type Store interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// Get retrieves a session by token. Returns ErrSessionNotFound when the
	// token is unknown.
	Get(ctx context.Context, token string) (*Session, error)

	// Touch extends a session's expiry. Unknown tokens return
	// ErrSessionNotFound.
	Touch(ctx context.Context, token string, expiresAt time.Time) error

	// Delete removes a session by token.
	Delete(ctx context.Context, token string) error

	// DeleteExpired removes all expired sessions.
	DeleteExpired(ctx context.Context) error
}
