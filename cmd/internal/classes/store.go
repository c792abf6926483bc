// Package classes implements the class catalog and reservation flows.
//
// The routes are plain parameterized-query wrappers; the only rules are
// existence checks and the reservation constraints (a class must exist,
// its creator cannot reserve it, and a user reserves a class at most
// once).
package classes

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a class or reservation does not exist.
	ErrNotFound = errors.New("not found")

	// ErrOwnClass is returned when a user tries to reserve their own class.
	ErrOwnClass = errors.New("cannot reserve own class")

	// ErrDuplicateReservation is returned when the user already holds a
	// reservation for the class.
	ErrDuplicateReservation = errors.New("class already reserved")
)

// Class is a bookable class with its reservations attached.
type Class struct {
	ID          string    `json:"id"`
	CreatorID   string    `json:"creator_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Capacity    int       `json:"capacity"`
	StartDate   time.Time `json:"start_date"`
	CreatedAt   time.Time `json:"created_at"`

	// Participants is never null on the wire; empty means no reservations.
	Participants []Participant `json:"participants"`
}

// Participant is one user's reservation on a class.
type Participant struct {
	ID         string    `json:"participant_id"`
	ClassID    string    `json:"-"`
	UserID     string    `json:"user_id"`
	Status     string    `json:"status"`
	ReservedAt time.Time `json:"reserved_at"`
}

// CreateClassInput describes a new class.
type CreateClassInput struct {
	CreatorID   string
	Title       string
	Description string
	Status      string
	Capacity    int
	StartDate   time.Time
	Now         time.Time
}

// UpdateClassInput replaces the mutable fields of a class.
type UpdateClassInput struct {
	ClassID     string
	Title       string
	Description string
	Status      string
	Capacity    int
	StartDate   time.Time
}

// Store is the class/reservation persistence boundary.
type Store interface {
	ListClasses(ctx context.Context) ([]Class, error)
	GetClass(ctx context.Context, classID string) (Class, error)
	CreateClass(ctx context.Context, in CreateClassInput) (Class, error)
	UpdateClass(ctx context.Context, in UpdateClassInput) (Class, error)

	// CreateReservation enforces the reservation rules and inserts a
	// pending reservation.
	CreateReservation(ctx context.Context, now time.Time, userID, classID string) (Participant, error)
	UpdateReservation(ctx context.Context, reservationID, userID, classID string) (Participant, error)
	DeleteReservation(ctx context.Context, reservationID string) error
}
