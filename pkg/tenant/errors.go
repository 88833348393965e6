package tenant

import "errors"

var (
	// ErrTenantNotFound is returned when no tenant matches a slug.
	// It is a normal outcome, not a failure; callers branch on it.
	ErrTenantNotFound = errors.New("tenant: not found")

	// ErrNoTenantInContext is returned when no tenant is present in a context
	// that requires one.
	ErrNoTenantInContext = errors.New("tenant: no tenant in context")
)
