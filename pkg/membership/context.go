package membership

import "context"

type roleCtxKey struct{}

// WithRole stores the resolved role in the context.
func WithRole(ctx context.Context, role Role) context.Context {
	return context.WithValue(ctx, roleCtxKey{}, role)
}

// RoleFromContext retrieves the resolved role from the context.
func RoleFromContext(ctx context.Context) (Role, bool) {
	role, ok := ctx.Value(roleCtxKey{}).(Role)
	return role, ok
}

// RequireRole returns the role from context or ErrNoRoleInContext.
func RequireRole(ctx context.Context) (Role, error) {
	role, ok := RoleFromContext(ctx)
	if !ok {
		return "", ErrNoRoleInContext
	}
	return role, nil
}
