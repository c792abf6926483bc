package classes

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"classhub/cmd/identity"
)

// PostgresStore implements Store over PostgreSQL (classes and
// participants tables). The pool is owned by the caller.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed class store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, errors.New("classes: nil pool")
	}
	return &PostgresStore{pool: pool}, nil
}

const classColumns = `id, creator_id, title, description, status, capacity, start_date, created_at`

// ListClasses returns all classes, newest start date first, each with
// its participants attached.
func (s *PostgresStore) ListClasses(ctx context.Context) ([]Class, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+classColumns+`
		FROM classes
		ORDER BY start_date DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Class
	index := map[string]int{}
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		index[c.ID] = len(out)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	parts, err := s.listParticipants(ctx, nil)
	if err != nil {
		return nil, err
	}
	for _, p := range parts {
		if i, ok := index[p.ClassID]; ok {
			out[i].Participants = append(out[i].Participants, p)
		}
	}

	return out, nil
}

// GetClass returns one class with its participants.
func (s *PostgresStore) GetClass(ctx context.Context, classID string) (Class, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+classColumns+`
		FROM classes
		WHERE id = $1
	`, classID)

	c, err := scanClass(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Class{}, ErrNotFound
	}
	if err != nil {
		return Class{}, err
	}

	parts, err := s.listParticipants(ctx, &classID)
	if err != nil {
		return Class{}, err
	}
	c.Participants = parts

	return c, nil
}

// CreateClass inserts a new class.
func (s *PostgresStore) CreateClass(ctx context.Context, in CreateClassInput) (Class, error) {
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := identity.NewULID(now)
	if err != nil {
		return Class{}, err
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO classes (id, creator_id, title, description, status, capacity, start_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+classColumns+`
	`, id, in.CreatorID, in.Title, in.Description, in.Status, in.Capacity, in.StartDate, now)

	return scanClass(row)
}

// UpdateClass replaces the mutable fields of a class.
func (s *PostgresStore) UpdateClass(ctx context.Context, in UpdateClassInput) (Class, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE classes
		SET title = $2, description = $3, status = $4, capacity = $5, start_date = $6
		WHERE id = $1
		RETURNING `+classColumns+`
	`, in.ClassID, in.Title, in.Description, in.Status, in.Capacity, in.StartDate)

	c, err := scanClass(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Class{}, ErrNotFound
	}
	return c, err
}

// CreateReservation checks the reservation rules and inserts a pending
// reservation.
func (s *PostgresStore) CreateReservation(ctx context.Context, now time.Time, userID, classID string) (Participant, error) {
	var creatorID string
	err := s.pool.QueryRow(ctx, `
		SELECT creator_id FROM classes WHERE id = $1
	`, classID).Scan(&creatorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Participant{}, ErrNotFound
	}
	if err != nil {
		return Participant{}, err
	}
	if creatorID == userID {
		return Participant{}, ErrOwnClass
	}

	var existing int
	err = s.pool.QueryRow(ctx, `
		SELECT count(*) FROM participants WHERE user_id = $1 AND class_id = $2
	`, userID, classID).Scan(&existing)
	if err != nil {
		return Participant{}, err
	}
	if existing > 0 {
		return Participant{}, ErrDuplicateReservation
	}

	if now.IsZero() {
		now = time.Now().UTC()
	}
	id, err := identity.NewULID(now)
	if err != nil {
		return Participant{}, err
	}

	var p Participant
	err = s.pool.QueryRow(ctx, `
		INSERT INTO participants (id, class_id, user_id, status, reserved_at)
		VALUES ($1, $2, $3, 'pending', $4)
		RETURNING id, class_id, user_id, status, reserved_at
	`, id, classID, userID, now).Scan(&p.ID, &p.ClassID, &p.UserID, &p.Status, &p.ReservedAt)
	if err != nil {
		return Participant{}, err
	}

	return p, nil
}

// UpdateReservation moves an existing reservation to another user/class.
func (s *PostgresStore) UpdateReservation(ctx context.Context, reservationID, userID, classID string) (Participant, error) {
	var exists int
	if err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM classes WHERE id = $1
	`, classID).Scan(&exists); err != nil {
		return Participant{}, err
	}
	if exists == 0 {
		return Participant{}, ErrNotFound
	}

	var p Participant
	err := s.pool.QueryRow(ctx, `
		UPDATE participants
		SET user_id = $2, class_id = $3
		WHERE id = $1
		RETURNING id, class_id, user_id, status, reserved_at
	`, reservationID, userID, classID).Scan(&p.ID, &p.ClassID, &p.UserID, &p.Status, &p.ReservedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Participant{}, ErrNotFound
	}
	if err != nil {
		return Participant{}, err
	}

	return p, nil
}

// DeleteReservation removes a reservation.
func (s *PostgresStore) DeleteReservation(ctx context.Context, reservationID string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM participants WHERE id = $1
	`, reservationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) listParticipants(ctx context.Context, classID *string) ([]Participant, error) {
	query := `
		SELECT id, class_id, user_id, status, reserved_at
		FROM participants
	`
	args := []any{}
	if classID != nil {
		query += ` WHERE class_id = $1`
		args = append(args, *classID)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Participant{}
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.ID, &p.ClassID, &p.UserID, &p.Status, &p.ReservedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanClass(row pgx.Row) (Class, error) {
	var c Class
	err := row.Scan(
		&c.ID, &c.CreatorID, &c.Title, &c.Description,
		&c.Status, &c.Capacity, &c.StartDate, &c.CreatedAt,
	)
	if err != nil {
		return Class{}, err
	}
	c.Participants = []Participant{}
	return c, nil
}
