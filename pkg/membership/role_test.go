package membership_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workdeck/workdeck/pkg/membership"
)

func TestParseRole(t *testing.T) {
	t.Parallel()

	t.Run("accepts closed set", func(t *testing.T) {
		t.Parallel()

		for _, s := range []string{"owner", "admin", "member"} {
			role, err := membership.ParseRole(s)
			require.NoError(t, err)
			assert.Equal(t, s, role.String())
			assert.True(t, role.Valid())
		}
	})

	t.Run("rejects everything else", func(t *testing.T) {
		t.Parallel()

		for _, s := range []string{"", "Owner", "superadmin", "guest"} {
			_, err := membership.ParseRole(s)
			assert.ErrorIs(t, err, membership.ErrInvalidRole, s)
		}
	})
}

func TestRole_AtLeast(t *testing.T) {
	t.Parallel()

	assert.True(t, membership.RoleOwner.AtLeast(membership.RoleAdmin))
	assert.True(t, membership.RoleOwner.AtLeast(membership.RoleOwner))
	assert.True(t, membership.RoleAdmin.AtLeast(membership.RoleMember))
	assert.False(t, membership.RoleMember.AtLeast(membership.RoleAdmin))
	assert.False(t, membership.RoleAdmin.AtLeast(membership.RoleOwner))

	// Unknown roles satisfy no threshold.
	assert.False(t, membership.Role("guest").AtLeast(membership.RoleMember))
}

func TestRoleContext(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		ctx := membership.WithRole(context.Background(), membership.RoleAdmin)
		role, ok := membership.RoleFromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, membership.RoleAdmin, role)
	})

	t.Run("require fails on empty context", func(t *testing.T) {
		t.Parallel()

		_, err := membership.RequireRole(context.Background())
		assert.ErrorIs(t, err, membership.ErrNoRoleInContext)
	})
}
