package membership

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Membership grants a user a role within a tenant. The store enforces at
// most one row per (tenant, user) pair.
type Membership struct {
	TenantID  uuid.UUID `json:"tenant_id"`
	UserID    uuid.UUID `json:"user_id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Store resolves the role a user holds within a tenant.
//
// Role performs an exact two-key lookup. Absence of a membership row is the
// sentinel ErrNotMember and means "no access"; any other error is a
// transient backend failure and must be kept distinct so that callers can
// surface a retryable failure instead of silently denying access.
type Store interface {
	Role(ctx context.Context, tenantID, userID uuid.UUID) (Role, error)
}
