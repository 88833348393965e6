// Package tenantctx keeps a per-session tenant context current.
//
// A Provider is created per session, seeded with the snapshot the edge
// already computed, and then re-resolves tenant and role on its own:
// once at start, and again on every sign-in event. Sign-out resets the
// snapshot and redirects to the sign-in page. Readers observe immutable
// snapshots via Current; stale resolutions are discarded by generation.
package tenantctx
