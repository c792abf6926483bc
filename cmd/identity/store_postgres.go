package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store over PostgreSQL.
//
// Design notes:
//   - The pgx pool is owned by the caller; this store must NOT close it.
//   - Email uniqueness among active users is enforced by a partial unique
//     index (WHERE deleted_at IS NULL); violations map to ConflictError.
//   - Rows are soft-deleted only; deleted_at is never cleared.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed user store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, errors.New("identity: nil pool")
	}
	return &PostgresStore{pool: pool}, nil
}

const userColumns = `id, name, email, password_hash, created_at, deleted_at`

// CreateUser inserts a new active user row.
func (s *PostgresStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" || in.PasswordHash == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput}
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := NewULID(now)
	if err != nil {
		return User{}, OpError{Op: op, Kind: err}
	}

	var u User
	var deletedAt *time.Time
	err = s.pool.QueryRow(ctx, `
		INSERT INTO users (id, name, email, password_hash, created_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, NULL)
		RETURNING `+userColumns+`
	`, id, in.Name, in.Email, in.PasswordHash, now).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &deletedAt,
	)
	if err != nil {
		if field, ok := pgClassifyUniqueViolation(err); ok {
			return User{}, ConflictError{Op: op, Field: field}
		}
		return User{}, OpError{Op: op, Kind: err}
	}

	u.Status = statusFromRow(deletedAt)
	return u, nil
}

// GetUserByID loads a user row by ID, regardless of lifecycle.
func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	const op = "identity.GetUserByID"

	row := s.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, userID)

	return scanUser(op, row)
}

// GetUserByEmail loads an active user row by email.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	const op = "identity.GetUserByEmail"

	row := s.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1 AND deleted_at IS NULL
	`, email)

	return scanUser(op, row)
}

// UpdateUser applies a partial update to an active user row.
func (s *PostgresStore) UpdateUser(ctx context.Context, in UpdateUserInput) (User, error) {
	const op = "identity.UpdateUser"

	if in.UserID == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput}
	}

	row := s.pool.QueryRow(ctx, `
		UPDATE users
		SET
			name = COALESCE($2, name),
			email = COALESCE($3, email),
			password_hash = COALESCE($4, password_hash)
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+userColumns+`
	`, in.UserID, in.Name, in.Email, in.PasswordHash)

	u, err := scanUser(op, row)
	if err != nil {
		if field, ok := pgClassifyUniqueViolation(err); ok {
			return User{}, ConflictError{Op: op, Field: field}
		}
		return User{}, err
	}
	return u, nil
}

// SoftDeleteUser marks an active user deleted (idempotence is the
// caller's concern; deleting an already-deleted user is ErrNotFound).
func (s *PostgresStore) SoftDeleteUser(ctx context.Context, userID string, now time.Time) (User, error) {
	const op = "identity.SoftDeleteUser"

	if now.IsZero() {
		now = time.Now().UTC()
	}

	row := s.pool.QueryRow(ctx, `
		UPDATE users
		SET deleted_at = $2
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING `+userColumns+`
	`, userID, now)

	return scanUser(op, row)
}

func scanUser(op string, row pgx.Row) (User, error) {
	var u User
	var deletedAt *time.Time

	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &deletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, OpError{Op: op, Kind: ErrNotFound}
	}
	if err != nil {
		return User{}, OpError{Op: op, Kind: err}
	}

	u.Status = statusFromRow(deletedAt)
	return u, nil
}

func pgClassifyUniqueViolation(err error) (field string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	if pgErr.Code != "23505" { // unique_violation
		return "", false
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "email"):
		return "email", true
	default:
		return pgErr.ConstraintName, true
	}
}
