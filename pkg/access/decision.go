package access

import (
	"github.com/workdeck/workdeck/pkg/membership"
	"github.com/workdeck/workdeck/pkg/tenant"
)

// DenyReason explains why access was denied. Each reason maps to exactly one
// terminal outcome at the edge.
type DenyReason string

const (
	// DenyNoTenant: the request host carries no tenant slug.
	DenyNoTenant DenyReason = "no_tenant"
	// DenyUnauthenticated: no session principal is present.
	DenyUnauthenticated DenyReason = "unauthenticated"
	// DenyTenantNotFound: the slug resolves to no tenant.
	DenyTenantNotFound DenyReason = "tenant_not_found"
	// DenyNotAMember: the user holds no membership in the tenant.
	DenyNotAMember DenyReason = "not_a_member"
)

// Decision is the outcome of evaluating whether a user may act within a
// tenant. A decision is a pure value: evaluating twice against unchanged
// backing data yields identical decisions.
type Decision struct {
	Allowed bool
	Reason  DenyReason

	// Tenant and Role are set only on allowed decisions. An authorized
	// decision always carries a non-nil tenant and a valid role.
	Tenant *tenant.Tenant
	Role   membership.Role
}

// Allow builds an authorized decision carrying the resolved tenant and role.
func Allow(t *tenant.Tenant, role membership.Role) Decision {
	return Decision{Allowed: true, Tenant: t, Role: role}
}

// Deny builds a denial with the given reason.
func Deny(reason DenyReason) Decision {
	return Decision{Reason: reason}
}
