// Package session provides cookie-based server-side sessions: an opaque
// random token in an HttpOnly cookie pointing at a stored session record.
//
// The Manager's Principal adapter is how the access interceptor learns the
// current user for a request.
package session
