// Package storage provides the pgx-backed persistence layer: tenants,
// memberships, users, projects and sessions. Each store maps absence to the
// owning package's sentinel error so callers never have to inspect driver
// errors.
package storage
