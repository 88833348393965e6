// Package httpserver wraps net/http's Server with graceful shutdown on
// context cancellation, functional options, and a combined
// liveness/readiness health handler. Signal handling belongs to the
// caller; the entrypoint cancels the Run context via signal.NotifyContext.
package httpserver
