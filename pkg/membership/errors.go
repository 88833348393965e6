package membership

import "errors"

var (
	// ErrNotMember is returned when no membership row exists for a
	// (tenant, user) pair. A normal outcome, resolved to access denial.
	ErrNotMember = errors.New("membership: not a member")

	// ErrAlreadyMember is returned when inserting a membership that would
	// violate the one-row-per-(tenant, user) invariant.
	ErrAlreadyMember = errors.New("membership: already a member")

	// ErrInvalidRole is returned when a raw role string is outside the
	// closed enumeration.
	ErrInvalidRole = errors.New("membership: invalid role")

	// ErrNoRoleInContext is returned when no role is present in a context
	// that requires one.
	ErrNoRoleInContext = errors.New("membership: no role in context")
)
