package booking

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/bus-reservation/internal/model"
)

// MaxSeatsPerBooking caps how many seats a single reservation may hold.
const MaxSeatsPerBooking = 10

// maxCodeAttempts bounds the regenerate-and-retry loop on code
// collisions before giving up with ErrCodeExhausted.
const maxCodeAttempts = 5

// Engine executes reservation lifecycle operations against the
// capacity invariant: the sum of seat counts over confirmed
// reservations on a trip never exceeds the capacity of the trip's bus.
// Every operation runs in a single transaction; the availability read
// and the dependent write cannot be separated by a concurrent
// confirmation because the store locks the trip row for the duration.
type Engine struct {
	store Store
	now   func() time.Time
}

// NewEngine constructs an Engine.  The clock may be nil, in which case
// UTC wall time is used; tests inject a fixed clock for determinism.
func NewEngine(store Store, now func() time.Time) *Engine {
	if store == nil {
		panic("nil store passed to NewEngine")
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Engine{store: store, now: now}
}

// CreateInput carries the fields for a new reservation.  Optional
// fields fall back to sensible defaults: Status to CONFIRMED,
// ReservedAt to the engine clock, TotalPriceCents to seat count × trip
// price at booking time.
type CreateInput struct {
	UserID          uint64
	TripID          uint64
	SeatCount       uint32
	TotalPriceCents *uint64
	Status          string
	ReservedAt      *time.Time
	CancelledAt     *time.Time
}

// UpdateInput carries the full target state for an existing
// reservation.  The reservation code is immutable and not part of the
// input.  A nil TotalPriceCents keeps the stored total unless the trip
// or seat count changes, in which case it is recalculated from the
// trip price.
type UpdateInput struct {
	UserID          uint64
	TripID          uint64
	SeatCount       uint32
	TotalPriceCents *uint64
	Status          string
	ReservedAt      *time.Time
	CancelledAt     *time.Time
}

// validate checks the field constraints shared by Create and Update.
// It normalizes an empty status to CONFIRMED and returns the effective
// status.
func validate(userID, tripID uint64, seatCount uint32, status string, cancelledAt *time.Time) (string, error) {
	if userID == 0 {
		return "", &ValidationError{Field: "user_id", Reason: "required"}
	}
	if tripID == 0 {
		return "", &ValidationError{Field: "trip_id", Reason: "required"}
	}
	if seatCount == 0 {
		return "", &ValidationError{Field: "seat_count", Reason: "must be positive"}
	}
	if seatCount > MaxSeatsPerBooking {
		return "", &ValidationError{Field: "seat_count", Reason: "exceeds per-booking limit"}
	}
	switch status {
	case "":
		status = model.StatusConfirmed
	case model.StatusConfirmed, model.StatusCancelled:
	default:
		return "", &ValidationError{Field: "status", Reason: "must be CONFIRMED or CANCELLED"}
	}
	if status == model.StatusCancelled && cancelledAt == nil {
		return "", &ValidationError{Field: "cancelled_at", Reason: "required for cancelled reservations"}
	}
	return status, nil
}

// Create validates and persists a new reservation.  Confirmed
// reservations are checked against the seats still available on the
// trip; creating a reservation that is already cancelled (administrative
// backfill) skips the capacity check entirely since it consumes no
// capacity.  On a code collision the insert is retried with a fresh
// code up to maxCodeAttempts times.
func (e *Engine) Create(ctx context.Context, in CreateInput) (*model.Reservation, error) {
	status, err := validate(in.UserID, in.TripID, in.SeatCount, in.Status, in.CancelledAt)
	if err != nil {
		return nil, err
	}

	var out *model.Reservation
	err = e.store.WithinTx(ctx, func(tx Tx) error {
		tc, err := tx.TripCapacityForUpdate(ctx, in.TripID)
		if err != nil {
			return err
		}
		if status == model.StatusConfirmed {
			taken, err := tx.ConfirmedSeats(ctx, in.TripID, 0)
			if err != nil {
				return err
			}
			avail := available(tc.BusCapacity, taken)
			if in.SeatCount > avail {
				return &InsufficientSeatsError{Requested: in.SeatCount, Available: avail}
			}
		}

		total := uint64(in.SeatCount) * tc.PriceCents
		if in.TotalPriceCents != nil {
			total = *in.TotalPriceCents
		}
		reservedAt := e.now()
		if in.ReservedAt != nil {
			reservedAt = in.ReservedAt.UTC()
		}
		res := &model.Reservation{
			UserID:          in.UserID,
			TripID:          in.TripID,
			SeatCount:       in.SeatCount,
			TotalPriceCents: total,
			Status:          status,
			ReservedAt:      reservedAt,
		}
		if status == model.StatusCancelled {
			at := in.CancelledAt.UTC()
			res.CancelledAt = &at
		}

		if err := e.insertWithCode(ctx, tx, res); err != nil {
			return err
		}
		if err := tx.InsertSeats(ctx, res.ID, res.SeatCount); err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// insertWithCode generates a code and inserts the reservation,
// regenerating on a unique-constraint collision.
func (e *Engine) insertWithCode(ctx context.Context, tx Tx, res *model.Reservation) error {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := NewCode()
		if err != nil {
			return err
		}
		res.Code = code
		err = tx.InsertReservation(ctx, res)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrCodeTaken) {
			return err
		}
	}
	return ErrCodeExhausted
}

// Update applies the target state to an existing reservation.  The
// capacity invariant is re-validated only when it can be violated: when
// the trip or seat count changes, or when a cancelled reservation is
// reactivated into CONFIRMED.  The reservation under edit is excluded
// from the committed-seat sum so its prior allocation is not counted
// twice.  A transition into CANCELLED never requires available seats,
// but a changed trip must still exist and be active regardless of the
// target status.  The reservation code is immutable across updates.
func (e *Engine) Update(ctx context.Context, reservationID uint64, in UpdateInput) (*model.Reservation, error) {
	status, err := validate(in.UserID, in.TripID, in.SeatCount, in.Status, in.CancelledAt)
	if err != nil {
		return nil, err
	}

	var out *model.Reservation
	err = e.store.WithinTx(ctx, func(tx Tx) error {
		res, err := tx.GetReservation(ctx, reservationID)
		if err != nil {
			return err
		}

		tripChanged := in.TripID != res.TripID
		seatsChanged := in.SeatCount != res.SeatCount
		reactivating := res.Status == model.StatusCancelled && status == model.StatusConfirmed
		loadTrip := tripChanged || seatsChanged || reactivating

		var priceCents uint64
		tripLoaded := false
		if loadTrip {
			tc, err := tx.TripCapacityForUpdate(ctx, in.TripID)
			if err != nil {
				return err
			}
			// A cancelled target consumes no capacity, so only the
			// availability comparison is skipped, never the trip load.
			if status != model.StatusCancelled {
				taken, err := tx.ConfirmedSeats(ctx, in.TripID, res.ID)
				if err != nil {
					return err
				}
				avail := available(tc.BusCapacity, taken)
				if in.SeatCount > avail {
					return &InsufficientSeatsError{Requested: in.SeatCount, Available: avail}
				}
			}
			priceCents = tc.PriceCents
			tripLoaded = true
		}

		res.UserID = in.UserID
		res.TripID = in.TripID
		res.Status = status
		if in.TotalPriceCents != nil {
			res.TotalPriceCents = *in.TotalPriceCents
		} else if tripLoaded && (tripChanged || seatsChanged) {
			res.TotalPriceCents = uint64(in.SeatCount) * priceCents
		}
		if in.ReservedAt != nil {
			res.ReservedAt = in.ReservedAt.UTC()
		}
		// cancelled_at coherence: non-null iff cancelled.
		if status == model.StatusCancelled {
			at := in.CancelledAt.UTC()
			res.CancelledAt = &at
		} else {
			res.CancelledAt = nil
		}

		if seatsChanged {
			if err := tx.ReplaceSeats(ctx, res.ID, in.SeatCount); err != nil {
				return err
			}
		}
		res.SeatCount = in.SeatCount
		if err := tx.UpdateReservation(ctx, res); err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Cancel transitions a reservation into CANCELLED at the given time,
// freeing its seats atomically.  Cancelling an already cancelled
// reservation leaves it unchanged.
func (e *Engine) Cancel(ctx context.Context, reservationID uint64, cancelledAt time.Time) (*model.Reservation, error) {
	var out *model.Reservation
	err := e.store.WithinTx(ctx, func(tx Tx) error {
		res, err := tx.GetReservation(ctx, reservationID)
		if err != nil {
			return err
		}
		if res.Status == model.StatusCancelled {
			out = res
			return nil
		}
		at := cancelledAt.UTC()
		res.Status = model.StatusCancelled
		res.CancelledAt = &at
		if err := tx.UpdateReservation(ctx, res); err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete hard-deletes a reservation: its seat child rows first, then
// the reservation row, in one transaction.  No capacity validation is
// needed since deleting only ever frees capacity.
func (e *Engine) Delete(ctx context.Context, reservationID uint64) error {
	return e.store.WithinTx(ctx, func(tx Tx) error {
		if _, err := tx.GetReservation(ctx, reservationID); err != nil {
			return err
		}
		if err := tx.DeleteSeats(ctx, reservationID); err != nil {
			return err
		}
		return tx.DeleteReservation(ctx, reservationID)
	})
}

// AvailableSeats reports how many seats may still be confirmed on the
// trip.  excludeID, when non-zero, leaves that reservation's seats out
// of the committed sum; update paths use it so a reservation's own
// prior allocation is not held against it.
func (e *Engine) AvailableSeats(ctx context.Context, tripID, excludeID uint64) (uint32, error) {
	var avail uint32
	err := e.store.WithinTx(ctx, func(tx Tx) error {
		tc, err := tx.TripCapacityForUpdate(ctx, tripID)
		if err != nil {
			return err
		}
		taken, err := tx.ConfirmedSeats(ctx, tripID, excludeID)
		if err != nil {
			return err
		}
		avail = available(tc.BusCapacity, taken)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return avail, nil
}

// available clamps capacity minus taken at zero; a trip whose bus was
// swapped for a smaller one may already hold more confirmed seats than
// capacity, and availability must never go negative.
func available(capacity, taken uint32) uint32 {
	if taken >= capacity {
		return 0
	}
	return capacity - taken
}
