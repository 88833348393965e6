// Package authevent defines the session-change notification stream: the
// auth module publishes sign-in/sign-out events, tenant context providers
// subscribe and re-resolve.
package authevent
