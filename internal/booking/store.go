package booking

import (
	"context"

	"github.com/iliyamo/bus-reservation/internal/model"
)

// Store abstracts the persistence layer behind the engine.  Every
// engine operation runs inside exactly one transaction obtained from
// WithinTx; the availability read and the dependent write therefore
// always see the same snapshot and commit or roll back together.
// Implementations must serialize concurrent capacity checks on the same
// trip (the MySQL store locks the trip row with SELECT ... FOR UPDATE).
type Store interface {
	// WithinTx runs fn inside a transaction.  When fn returns an
	// error the transaction is rolled back and the error returned
	// unchanged; otherwise the transaction is committed.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of persistence operations available inside a booking
// transaction.  It exposes exactly what the engine needs and nothing
// more, so the invariant logic stays independently testable with an
// in-memory fake.
type Tx interface {
	// TripCapacityForUpdate loads the trip joined with its bus,
	// locking the trip row for the remainder of the transaction.
	// Returns ErrTripNotFound when the trip is absent or either the
	// trip or its bus is inactive.
	TripCapacityForUpdate(ctx context.Context, tripID uint64) (*model.TripCapacity, error)

	// ConfirmedSeats sums seat_count over confirmed reservations on
	// the trip, excluding the reservation with excludeID (0 excludes
	// nothing).  Cancelled reservations never count.
	ConfirmedSeats(ctx context.Context, tripID, excludeID uint64) (uint32, error)

	// GetReservation loads a reservation by id, returning
	// ErrReservationNotFound when absent.
	GetReservation(ctx context.Context, id uint64) (*model.Reservation, error)

	// InsertReservation persists a new reservation row and populates
	// the generated ID and timestamps.  Returns ErrCodeTaken when the
	// code collides with an existing row.
	InsertReservation(ctx context.Context, res *model.Reservation) error

	// InsertSeats creates n child seat rows for the reservation.
	InsertSeats(ctx context.Context, reservationID uint64, n uint32) error

	// UpdateReservation writes all mutable fields of the reservation
	// (everything but id and code).
	UpdateReservation(ctx context.Context, res *model.Reservation) error

	// ReplaceSeats deletes the reservation's seat rows and recreates n
	// of them.  Used when an update changes the seat count.
	ReplaceSeats(ctx context.Context, reservationID uint64, n uint32) error

	// DeleteSeats removes all seat rows owned by the reservation.
	DeleteSeats(ctx context.Context, reservationID uint64) error

	// DeleteReservation removes the reservation row itself.
	DeleteReservation(ctx context.Context, reservationID uint64) error
}
