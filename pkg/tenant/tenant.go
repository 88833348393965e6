package tenant

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Tenant is an isolated workspace identified by a unique slug, which doubles
// as its subdomain label. The slug is immutable after creation.
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// Directory resolves tenant slugs to tenant records.
//
// BySlug performs an exact, case-consistent lookup: slugs are stored
// lowercase and the input is expected lowercase. Absence is the sentinel
// ErrTenantNotFound, which callers branch on as a normal outcome; any other
// error is a transient backend failure and must never be treated as
// "tenant does not exist".
type Directory interface {
	BySlug(ctx context.Context, slug string) (*Tenant, error)
}
