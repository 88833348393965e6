package storage

import "errors"

var (
	// ErrUserNotFound is returned when no user row matches the lookup.
	ErrUserNotFound = errors.New("storage: user not found")

	// ErrEmailTaken is returned when creating a user with an email that is
	// already registered.
	ErrEmailTaken = errors.New("storage: email already registered")

	// ErrSlugTaken is returned when creating a tenant whose slug collides
	// with an existing one.
	ErrSlugTaken = errors.New("storage: slug already taken")

	// ErrProjectNotFound is returned when no project row matches the
	// (tenant, project) pair.
	ErrProjectNotFound = errors.New("storage: project not found")
)
