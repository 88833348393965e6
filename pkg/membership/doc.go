// Package membership defines the relation granting a user a role within a
// tenant, the closed role enumeration, and the store contract used by the
// access evaluator to resolve (tenant, user) pairs to roles.
package membership
