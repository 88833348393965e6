package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workdeck/workdeck/pkg/pg"
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectArchived  ProjectStatus = "archived"
)

// ValidProjectStatus reports whether s is one of the known statuses.
func ValidProjectStatus(s ProjectStatus) bool {
	switch s {
	case ProjectActive, ProjectCompleted, ProjectArchived:
		return true
	}
	return false
}

// Project is a tenant-scoped work item.
type Project struct {
	ID          uuid.UUID     `json:"id"`
	TenantID    uuid.UUID     `json:"tenant_id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Status      ProjectStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// ProjectStore persists projects. Every query is scoped by tenant id so a
// project is never visible outside its tenant.
type ProjectStore struct {
	db *pgxpool.Pool
}

// NewProjectStore creates a project store over the given pool.
func NewProjectStore(db *pgxpool.Pool) *ProjectStore {
	return &ProjectStore{db: db}
}

// Create inserts a new project.
func (s *ProjectStore) Create(ctx context.Context, p *Project) error {
	query := `
		INSERT INTO projects (id, tenant_id, name, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.Exec(ctx, query,
		p.ID, p.TenantID, p.Name, p.Description, p.Status, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// ByID retrieves a project within a tenant.
func (s *ProjectStore) ByID(ctx context.Context, tenantID, id uuid.UUID) (*Project, error) {
	query := `
		SELECT id, tenant_id, name, description, status, created_at, updated_at
		FROM projects
		WHERE tenant_id = $1 AND id = $2
	`
	p := &Project{}
	err := s.db.QueryRow(ctx, query, tenantID, id).Scan(
		&p.ID, &p.TenantID, &p.Name, &p.Description, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if pg.IsNotFoundError(err) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select project: %w", err)
	}
	return p, nil
}

// List returns all projects of a tenant, newest first.
func (s *ProjectStore) List(ctx context.Context, tenantID uuid.UUID) ([]Project, error) {
	query := `
		SELECT id, tenant_id, name, description, status, created_at, updated_at
		FROM projects
		WHERE tenant_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &p.Description, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return out, nil
}

// Update rewrites a project's mutable fields.
func (s *ProjectStore) Update(ctx context.Context, p *Project) error {
	query := `
		UPDATE projects
		SET name = $3, description = $4, status = $5, updated_at = $6
		WHERE tenant_id = $1 AND id = $2
	`
	tag, err := s.db.Exec(ctx, query,
		p.TenantID, p.ID, p.Name, p.Description, p.Status, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProjectNotFound
	}
	return nil
}

// Delete removes a project within a tenant.
func (s *ProjectStore) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM projects WHERE tenant_id = $1 AND id = $2`
	tag, err := s.db.Exec(ctx, query, tenantID, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProjectNotFound
	}
	return nil
}
