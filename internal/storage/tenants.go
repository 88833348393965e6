package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workdeck/workdeck/pkg/membership"
	"github.com/workdeck/workdeck/pkg/pg"
	"github.com/workdeck/workdeck/pkg/tenant"
)

// TenantStore persists tenants and serves as the tenant directory for
// access evaluation.
type TenantStore struct {
	db *pgxpool.Pool
}

var _ tenant.Directory = (*TenantStore)(nil)

// NewTenantStore creates a tenant store over the given pool.
func NewTenantStore(db *pgxpool.Pool) *TenantStore {
	return &TenantStore{db: db}
}

// BySlug resolves a tenant by its exact slug. Unknown slugs return
// tenant.ErrTenantNotFound.
func (s *TenantStore) BySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	query := `
		SELECT id, name, slug, created_at
		FROM tenants
		WHERE slug = $1
	`
	t := &tenant.Tenant{}
	err := s.db.QueryRow(ctx, query, slug).Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt)
	if pg.IsNotFoundError(err) {
		return nil, tenant.ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select tenant by slug: %w", err)
	}
	return t, nil
}

// ByID retrieves a tenant by id.
func (s *TenantStore) ByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	query := `
		SELECT id, name, slug, created_at
		FROM tenants
		WHERE id = $1
	`
	t := &tenant.Tenant{}
	err := s.db.QueryRow(ctx, query, id).Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt)
	if pg.IsNotFoundError(err) {
		return nil, tenant.ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select tenant by id: %w", err)
	}
	return t, nil
}

// CreateWithOwner inserts a tenant together with its owner membership in a
// single transaction. Every tenant is born with an owner; either both rows
// exist afterwards or neither does, so a failed creation never leaves an
// ownerless tenant holding the slug. Slug collisions surface as
// ErrSlugTaken.
func (s *TenantStore) CreateWithOwner(ctx context.Context, t *tenant.Tenant, ownerID uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tenant creation: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	insertTenant := `
		INSERT INTO tenants (id, name, slug, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.Exec(ctx, insertTenant, t.ID, t.Name, t.Slug, t.CreatedAt); err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrSlugTaken
		}
		return fmt.Errorf("insert tenant: %w", err)
	}

	insertOwner := `
		INSERT INTO tenant_users (tenant_id, user_id, role, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.Exec(ctx, insertOwner, t.ID, ownerID, membership.RoleOwner, t.CreatedAt); err != nil {
		return fmt.Errorf("insert owner membership: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tenant creation: %w", err)
	}
	return nil
}
