package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/bus-reservation/internal/booking"
	"github.com/iliyamo/bus-reservation/internal/model"
)

// BookingStore is the MySQL implementation of booking.Store.  Each
// engine operation maps to one transaction; the trip row is locked
// with SELECT ... FOR UPDATE so that two concurrent confirmations on
// the same trip serialize on the capacity check.  Plain transaction
// wrapping alone would leave a window where both read "available"
// before either commits.
type BookingStore struct {
	db *sql.DB
}

// NewBookingStore returns a BookingStore bound to the given database.
func NewBookingStore(db *sql.DB) *BookingStore { return &BookingStore{db: db} }

// WithinTx opens a transaction, runs fn and commits; any error from fn
// rolls the transaction back and is returned unchanged.
func (s *BookingStore) WithinTx(ctx context.Context, fn func(tx booking.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&bookingTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

type bookingTx struct {
	tx *sql.Tx
}

// TripCapacityForUpdate loads the trip joined with its bus and locks
// the trip row for the remainder of the transaction.  Inactive trips
// and trips on inactive buses are reported as not found; the engine
// treats both the same way.
func (t *bookingTx) TripCapacityForUpdate(ctx context.Context, tripID uint64) (*model.TripCapacity, error) {
	const q = `SELECT t.id, b.id, b.capacity, t.price_cents, (t.is_active AND b.is_active)
               FROM trips t
               JOIN buses b ON b.id = t.bus_id
               WHERE t.id = ?
               FOR UPDATE`
	var tc model.TripCapacity
	err := t.tx.QueryRowContext(ctx, q, tripID).Scan(&tc.TripID, &tc.BusID, &tc.BusCapacity, &tc.PriceCents, &tc.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrTripNotFound
		}
		return nil, err
	}
	if !tc.IsActive {
		return nil, booking.ErrTripNotFound
	}
	return &tc, nil
}

// ConfirmedSeats sums seat counts over confirmed reservations on the
// trip.  Cancelled reservations never contribute; excludeID leaves one
// reservation out of the sum (0 excludes nothing).
func (t *bookingTx) ConfirmedSeats(ctx context.Context, tripID, excludeID uint64) (uint32, error) {
	const q = `SELECT COALESCE(SUM(seat_count), 0)
               FROM reservations
               WHERE trip_id = ? AND status = 'CONFIRMED' AND id <> ?`
	var sum uint32
	if err := t.tx.QueryRowContext(ctx, q, tripID, excludeID).Scan(&sum); err != nil {
		return 0, err
	}
	return sum, nil
}

func (t *bookingTx) GetReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT id, code, user_id, trip_id, seat_count, total_price_cents, status,
                      reserved_at, cancelled_at, created_at, updated_at
               FROM reservations WHERE id = ?`
	var res model.Reservation
	var cancelledAt sql.NullTime
	err := t.tx.QueryRowContext(ctx, q, id).Scan(
		&res.ID, &res.Code, &res.UserID, &res.TripID, &res.SeatCount, &res.TotalPriceCents,
		&res.Status, &res.ReservedAt, &cancelledAt, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrReservationNotFound
		}
		return nil, err
	}
	if cancelledAt.Valid {
		at := cancelledAt.Time
		res.CancelledAt = &at
	}
	return &res, nil
}

// InsertReservation persists a new reservation and reads the row back
// to populate generated defaults.  A duplicate key error on the code
// column is mapped to booking.ErrCodeTaken so the engine can retry
// with a fresh code.
func (t *bookingTx) InsertReservation(ctx context.Context, res *model.Reservation) error {
	const q = `INSERT INTO reservations (code, user_id, trip_id, seat_count, total_price_cents, status, reserved_at, cancelled_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	var cancelledAt interface{}
	if res.CancelledAt != nil {
		cancelledAt = res.CancelledAt.UTC()
	}
	result, err := t.tx.ExecContext(ctx, q,
		res.Code, res.UserID, res.TripID, res.SeatCount, res.TotalPriceCents,
		res.Status, res.ReservedAt.UTC(), cancelledAt,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return booking.ErrCodeTaken
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	const sel = `SELECT created_at, updated_at FROM reservations WHERE id = ?`
	return t.tx.QueryRowContext(ctx, sel, res.ID).Scan(&res.CreatedAt, &res.UpdatedAt)
}

// InsertSeats creates n child seat rows in one statement.
func (t *bookingTx) InsertSeats(ctx context.Context, reservationID uint64, n uint32) error {
	if n == 0 {
		return nil
	}
	query := `INSERT INTO reservation_seats (reservation_id, seat_no) VALUES `
	args := make([]interface{}, 0, n*2)
	for i := uint32(1); i <= n; i++ {
		if i > 1 {
			query += ","
		}
		query += "(?, ?)"
		args = append(args, reservationID, i)
	}
	_, err := t.tx.ExecContext(ctx, query, args...)
	return err
}

// UpdateReservation writes all mutable columns.  The code column is
// deliberately absent: reservation codes are immutable.
func (t *bookingTx) UpdateReservation(ctx context.Context, res *model.Reservation) error {
	const q = `UPDATE reservations
               SET user_id = ?, trip_id = ?, seat_count = ?, total_price_cents = ?,
                   status = ?, reserved_at = ?, cancelled_at = ?, updated_at = CURRENT_TIMESTAMP
               WHERE id = ?`
	var cancelledAt interface{}
	if res.CancelledAt != nil {
		cancelledAt = res.CancelledAt.UTC()
	}
	result, err := t.tx.ExecContext(ctx, q,
		res.UserID, res.TripID, res.SeatCount, res.TotalPriceCents,
		res.Status, res.ReservedAt.UTC(), cancelledAt, res.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		// the row may exist with identical values; confirm before reporting not found
		var one int
		if err := t.tx.QueryRowContext(ctx, `SELECT 1 FROM reservations WHERE id = ? LIMIT 1`, res.ID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return booking.ErrReservationNotFound
			}
			return err
		}
	}
	return nil
}

// ReplaceSeats rebuilds the child seat rows after a seat count change.
func (t *bookingTx) ReplaceSeats(ctx context.Context, reservationID uint64, n uint32) error {
	if err := t.DeleteSeats(ctx, reservationID); err != nil {
		return err
	}
	return t.InsertSeats(ctx, reservationID, n)
}

func (t *bookingTx) DeleteSeats(ctx context.Context, reservationID uint64) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM reservation_seats WHERE reservation_id = ?`, reservationID)
	return err
}

func (t *bookingTx) DeleteReservation(ctx context.Context, reservationID uint64) error {
	result, err := t.tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, reservationID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return booking.ErrReservationNotFound
	}
	return nil
}
