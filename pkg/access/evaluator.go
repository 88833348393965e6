package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/workdeck/workdeck/pkg/membership"
	"github.com/workdeck/workdeck/pkg/tenant"
)

// Evaluator combines the tenant directory and the membership store into a
// single allow/deny decision. It is the one authorization code path in the
// system: the edge interceptor and handler-level checks both call it rather
// than duplicating lookups ad hoc.
type Evaluator struct {
	directory tenant.Directory
	members   membership.Store
}

// NewEvaluator wires a directory and a membership store into an evaluator.
func NewEvaluator(directory tenant.Directory, members membership.Store) *Evaluator {
	if directory == nil {
		panic("access: nil tenant directory")
	}
	if members == nil {
		panic("access: nil membership store")
	}
	return &Evaluator{directory: directory, members: members}
}

// Evaluate decides whether the user identified by userID may act within the
// tenant addressed by host. A zero userID means "no authenticated user".
//
// Expected absences (unknown tenant, no membership) come back as deny
// decisions with a nil error. A non-nil error means a transient backend
// failure, wrapped in ErrLookupFailed; it is retryable and must never be
// interpreted as access denied.
//
// Tenant resolution always happens before membership resolution: the role
// lookup needs the resolved tenant id.
func (e *Evaluator) Evaluate(ctx context.Context, host string, userID uuid.UUID) (Decision, error) {
	slug := tenant.SlugFromHost(host)
	if slug == "" {
		return Deny(DenyNoTenant), nil
	}

	if userID == uuid.Nil {
		return Deny(DenyUnauthenticated), nil
	}

	t, err := e.directory.BySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, tenant.ErrTenantNotFound) {
			return Deny(DenyTenantNotFound), nil
		}
		return Decision{}, fmt.Errorf("%w: resolving tenant %q: %w", ErrLookupFailed, slug, err)
	}

	role, err := e.members.Role(ctx, t.ID, userID)
	if err != nil {
		if errors.Is(err, membership.ErrNotMember) {
			return Deny(DenyNotAMember), nil
		}
		return Decision{}, fmt.Errorf("%w: resolving role for tenant %q: %w", ErrLookupFailed, slug, err)
	}

	return Allow(t, role), nil
}
