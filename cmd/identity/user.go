package identity

import (
	"context"
	"time"
)

// User is classhub's canonical security principal.
//
// PasswordHash is the bcrypt hash of the user's password. It must never
// appear in API responses or logs; transport layers are expected to map
// User into a response type that omits it.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string

	CreatedAt time.Time
	Status    Status
}

// Status is the soft-delete lifecycle of a user row.
//
// A user is either active or deleted at a known instant. Rows are never
// hard-deleted; the zero value is the active state.
type Status struct {
	deletedAt *time.Time
}

// Active reports whether the user has not been soft-deleted.
func (s Status) Active() bool { return s.deletedAt == nil }

// DeletedAt returns the deletion instant, or the zero time when active.
func (s Status) DeletedAt() (time.Time, bool) {
	if s.deletedAt == nil {
		return time.Time{}, false
	}
	return *s.deletedAt, true
}

// StatusActive returns the active lifecycle state.
func StatusActive() Status { return Status{} }

// StatusDeleted returns the deleted lifecycle state for the given instant.
func StatusDeleted(at time.Time) Status {
	at = at.UTC()
	return Status{deletedAt: &at}
}

// statusFromRow converts a nullable deleted_at column into a Status.
func statusFromRow(deletedAt *time.Time) Status {
	if deletedAt == nil {
		return StatusActive()
	}
	return StatusDeleted(*deletedAt)
}

// CreateUserInput describes a user registration.
// The password is already hashed by the caller; this layer never sees plaintext.
type CreateUserInput struct {
	Name         string
	Email        string
	PasswordHash string
	Now          time.Time
}

// UpdateUserInput describes a partial account update.
// Nil fields are left unchanged. PasswordHash, when set, is already hashed.
type UpdateUserInput struct {
	UserID       string
	Name         *string
	Email        *string
	PasswordHash *string
	Now          time.Time
}

// Store is the user persistence boundary.
//
// Lookups by email only consider active (non-deleted) users; lookups by
// ID return the row regardless of lifecycle so callers can inspect Status.
type Store interface {
	CreateUser(ctx context.Context, in CreateUserInput) (User, error)
	GetUserByID(ctx context.Context, userID string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	UpdateUser(ctx context.Context, in UpdateUserInput) (User, error)

	// SoftDeleteUser marks the user deleted without removing the row.
	SoftDeleteUser(ctx context.Context, userID string, now time.Time) (User, error)
}
