// Package access implements the tenant authorization pipeline: hostname →
// tenant → membership → role → decision.
//
// The Evaluator is the single authorization code path. The Middleware runs
// it at the edge, classifying public paths, redirecting denials to their
// terminal pages, and annotating authorized requests with tenant context for
// downstream handlers. Handler-level checks call the same evaluator through
// the values it injects into the request context.
//
// Absence and failure are never conflated: an unknown tenant or a missing
// membership row is a deny decision, while a backend error during either
// lookup surfaces as a retryable failure (ErrLookupFailed) and a 503 at the
// edge.
package access
