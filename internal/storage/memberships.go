package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workdeck/workdeck/pkg/membership"
	"github.com/workdeck/workdeck/pkg/pg"
	"github.com/workdeck/workdeck/pkg/tenant"
)

// UserTenant pairs a tenant with the role the user holds in it.
type UserTenant struct {
	Tenant tenant.Tenant   `json:"tenant"`
	Role   membership.Role `json:"role"`
}

// Member is one row of a tenant's member list.
type Member struct {
	UserID   uuid.UUID       `json:"user_id"`
	Email    string          `json:"email"`
	Role     membership.Role `json:"role"`
	JoinedAt time.Time       `json:"joined_at"`
}

// MembershipStore persists tenant memberships and serves role lookups for
// access evaluation. The unique (tenant_id, user_id) constraint enforces at
// most one membership per user per tenant.
type MembershipStore struct {
	db *pgxpool.Pool
}

var _ membership.Store = (*MembershipStore)(nil)

// NewMembershipStore creates a membership store over the given pool.
func NewMembershipStore(db *pgxpool.Pool) *MembershipStore {
	return &MembershipStore{db: db}
}

// Role resolves the role a user holds in a tenant. Absence is
// membership.ErrNotMember.
func (s *MembershipStore) Role(ctx context.Context, tenantID, userID uuid.UUID) (membership.Role, error) {
	query := `
		SELECT role
		FROM tenant_users
		WHERE tenant_id = $1 AND user_id = $2
	`
	var raw string
	err := s.db.QueryRow(ctx, query, tenantID, userID).Scan(&raw)
	if pg.IsNotFoundError(err) {
		return "", membership.ErrNotMember
	}
	if err != nil {
		return "", fmt.Errorf("select membership role: %w", err)
	}
	return membership.ParseRole(raw)
}

// Add inserts a membership. A second membership for the same (tenant, user)
// pair surfaces as membership.ErrAlreadyMember.
func (s *MembershipStore) Add(ctx context.Context, m *membership.Membership) error {
	query := `
		INSERT INTO tenant_users (tenant_id, user_id, role, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.db.Exec(ctx, query, m.TenantID, m.UserID, m.Role, m.CreatedAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return membership.ErrAlreadyMember
		}
		return fmt.Errorf("insert membership: %w", err)
	}
	return nil
}

// Remove deletes a membership. Removing a non-member is
// membership.ErrNotMember.
func (s *MembershipStore) Remove(ctx context.Context, tenantID, userID uuid.UUID) error {
	query := `DELETE FROM tenant_users WHERE tenant_id = $1 AND user_id = $2`
	tag, err := s.db.Exec(ctx, query, tenantID, userID)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return membership.ErrNotMember
	}
	return nil
}

// ListByUser returns every tenant the user belongs to, with their role,
// ordered by tenant name.
func (s *MembershipStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]UserTenant, error) {
	query := `
		SELECT t.id, t.name, t.slug, t.created_at, tu.role
		FROM tenant_users tu
		JOIN tenants t ON t.id = tu.tenant_id
		WHERE tu.user_id = $1
		ORDER BY t.name
	`
	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list tenants by user: %w", err)
	}
	defer rows.Close()

	var out []UserTenant
	for rows.Next() {
		var ut UserTenant
		var raw string
		if err := rows.Scan(&ut.Tenant.ID, &ut.Tenant.Name, &ut.Tenant.Slug, &ut.Tenant.CreatedAt, &raw); err != nil {
			return nil, fmt.Errorf("scan user tenant: %w", err)
		}
		role, err := membership.ParseRole(raw)
		if err != nil {
			return nil, err
		}
		ut.Role = role
		out = append(out, ut)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tenants by user: %w", err)
	}
	return out, nil
}

// ListMembers returns every member of a tenant with their email and role,
// ordered by join time.
func (s *MembershipStore) ListMembers(ctx context.Context, tenantID uuid.UUID) ([]Member, error) {
	query := `
		SELECT u.id, u.email, tu.role, tu.created_at
		FROM tenant_users tu
		JOIN users u ON u.id = tu.user_id
		WHERE tu.tenant_id = $1
		ORDER BY tu.created_at
	`
	rows, err := s.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var out []Member
	for rows.Next() {
		var m Member
		var raw string
		if err := rows.Scan(&m.UserID, &m.Email, &raw, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		role, err := membership.ParseRole(raw)
		if err != nil {
			return nil, err
		}
		m.Role = role
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return out, nil
}
