// Package broadcast provides a generic publish/subscribe primitive.
//
// The auth module broadcasts session-change events through it, and the
// tenantctx provider subscribes to react to sign-in and sign-out without a
// direct dependency between the two.
package broadcast
