package auth

import (
	"context"
	"errors"
)

// UserRepository defines operations for account persistence and retrieval.
// We provide an in-memory implementation for tests and two database-backed
// ones (MongoDB, MariaDB); this interface allows swapping between them
// without touching the rest of the code.
//
// Uniqueness of username and email is a store-level invariant: every
// implementation must reject duplicate creates atomically (unique index or
// equivalent), even when two registrations race. Callers may pre-check for
// an existing email as a fast path, but the store is the source of truth.
type UserRepository interface {
	// GetUserByEmail returns a user by email. If the user is not found,
	// (nil, ErrUserNotFound) is returned.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// GetUserByID returns a user by ID. If the user is not found,
	// (nil, ErrUserNotFound) is returned.
	GetUserByID(ctx context.Context, id uint64) (*User, error)

	// CreateUser creates a new user and returns the stored instance with its
	// assigned ID. Caller is expected to pass a bcrypt-hashed password.
	// Implementations must return ErrUserExists if either the username or
	// the email is already taken.
	CreateUser(ctx context.Context, username, email, passwordHash string) (*User, error)

	// DeleteUserByID removes the user record. Deleting an id that does not
	// exist is not an error: the post-condition (no record with this id)
	// already holds, so implementations report success.
	DeleteUserByID(ctx context.Context, id uint64) error
}

// Domain-level errors returned by the repository.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)
