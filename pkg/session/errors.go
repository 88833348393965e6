package session

import "errors"

var (
	// ErrSessionNotFound indicates no session was found for a token.
	ErrSessionNotFound = errors.New("session: not found")

	// ErrSessionExpired indicates the session has expired.
	ErrSessionExpired = errors.New("session: expired")

	// ErrNoToken indicates the request carries no session cookie.
	ErrNoToken = errors.New("session: no token")

	// ErrTokenGeneration indicates token generation failed.
	ErrTokenGeneration = errors.New("session: token generation failed")
)
