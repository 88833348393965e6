// Package auth serves the authentication endpoints: sign-up, sign-in,
// sign-out, current user, and the unauthorized terminal page. Successful
// sign-in and sign-out publish events on the auth event bus.
package auth
