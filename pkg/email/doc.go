// Package email sends transactional emails through a provider-agnostic
// Sender interface, backed by Postmark in production and a filesystem
// writer in development.
package email
