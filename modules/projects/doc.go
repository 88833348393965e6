// Package projects serves tenant-scoped project CRUD behind the access
// interceptor.
package projects
