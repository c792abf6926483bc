package session

import (
	"context"
	"time"
)

// Record mirrors the tokens row: the single refresh credential the store
// keeps per user.
type Record struct {
	UserID       string
	RefreshToken string

	IssuedAt  time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// Active reports whether the record is the currently valid refresh
// credential for its user at the given instant.
func (r Record) Active(now time.Time) bool {
	return r.RevokedAt == nil && r.ExpiresAt.After(now)
}

// Store abstracts persistence for refresh-token state.
//
// Implementations must make Replace atomic: concurrent logins or
// refreshes for the same user serialize at the store and the last
// writer wins, with no window holding two active records.
type Store interface {
	// Replace installs token as the sole refresh credential for userID,
	// overwriting any existing record in place and clearing revocation.
	Replace(ctx context.Context, now time.Time, userID, token string, expiresAt time.Time) error

	// GetActiveByToken returns the non-revoked record holding token.
	// Returns ErrInvalidToken when no such record exists.
	GetActiveByToken(ctx context.Context, token string) (Record, error)

	// Revoke marks the active record matching (userID, token) revoked.
	// Returns ErrInvalidToken when no active record matches.
	Revoke(ctx context.Context, now time.Time, userID, token string) error

	// RevokeUser revokes the user's record whatever token it holds.
	// Idempotent; revoking a user with no active record is not an error.
	RevokeUser(ctx context.Context, now time.Time, userID string) error
}
