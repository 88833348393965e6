// Package workspace serves workspace management: creating workspaces,
// listing the caller's workspaces, and managing members within the current
// tenant.
package workspace
