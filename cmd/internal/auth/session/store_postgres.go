package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store using PostgreSQL (tokens table).
//
// The table is keyed by user_id, so the single-active-token-per-user
// invariant is enforced by the database: Replace is one upsert
// statement, never a read-then-write pair.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed token store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Replace upserts the refresh-token row for userID.
func (s *PostgresStore) Replace(ctx context.Context, now time.Time, userID, token string, expiresAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tokens (user_id, refresh_token, issued_at, expires_at, revoked_at)
		VALUES ($1, $2, $3, $4, NULL)
		ON CONFLICT (user_id) DO UPDATE
		SET refresh_token = EXCLUDED.refresh_token,
		    issued_at = EXCLUDED.issued_at,
		    expires_at = EXCLUDED.expires_at,
		    revoked_at = NULL
	`, userID, token, now, expiresAt)
	return err
}

// GetActiveByToken loads the non-revoked row holding token.
func (s *PostgresStore) GetActiveByToken(ctx context.Context, token string) (Record, error) {
	var rec Record

	err := s.pool.QueryRow(ctx, `
		SELECT user_id, refresh_token, issued_at, expires_at, revoked_at
		FROM tokens
		WHERE refresh_token = $1 AND revoked_at IS NULL
	`, token).Scan(
		&rec.UserID,
		&rec.RefreshToken,
		&rec.IssuedAt,
		&rec.ExpiresAt,
		&rec.RevokedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrInvalidToken
	}
	if err != nil {
		return Record{}, err
	}

	return rec, nil
}

// Revoke marks the active row matching (userID, token) revoked.
// The row is kept; revoked_at is the audit trail.
func (s *PostgresStore) Revoke(ctx context.Context, now time.Time, userID, token string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE tokens
		SET revoked_at = $3
		WHERE user_id = $1 AND refresh_token = $2 AND revoked_at IS NULL
	`, userID, token, now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidToken
	}
	return nil
}

// RevokeUser revokes the user's record regardless of token (idempotent).
func (s *PostgresStore) RevokeUser(ctx context.Context, now time.Time, userID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE tokens
		SET revoked_at = COALESCE(revoked_at, $2)
		WHERE user_id = $1
	`, userID, now)
	return err
}
