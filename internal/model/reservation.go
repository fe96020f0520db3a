package model

import "time"

// Reservation status values.  A confirmed reservation holds seats
// against the trip's bus capacity; a cancelled one never does.
const (
	StatusConfirmed = "CONFIRMED"
	StatusCancelled = "CANCELLED"
)

// Reservation records a user's booking of one or more seats on a trip.
// The code is generated once at creation and never changes.  CancelledAt
// is non-nil if and only if Status is CANCELLED.
//
// Fields:
//  ID              – primary key identifier.
//  Code            – unique booking reference ("RES-" + 8 alphanumerics).
//  UserID          – user who made the reservation.
//  TripID          – trip being reserved.
//  SeatCount       – number of seats held (positive).
//  TotalPriceCents – seat count × trip price at booking time, in cents.
//  Status          – CONFIRMED or CANCELLED.
//  ReservedAt      – when the booking was made (UTC).
//  CancelledAt     – when the booking was cancelled (nil unless cancelled).
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Reservation struct {
	ID              uint64     // reservations.id
	Code            string     // reservations.code
	UserID          uint64     // reservations.user_id
	TripID          uint64     // reservations.trip_id
	SeatCount       uint32     // reservations.seat_count
	TotalPriceCents uint64     // reservations.total_price_cents
	Status          string     // reservations.status
	ReservedAt      time.Time  // reservations.reserved_at
	CancelledAt     *time.Time // reservations.cancelled_at (nullable)
	CreatedAt       time.Time  // reservations.created_at
	UpdatedAt       time.Time  // reservations.updated_at
}

// ReservationSeat is a per-seat child row of a reservation.  It exists
// only for cascade bookkeeping: seat rows are deleted when and only
// when their parent reservation is deleted.
//
// Fields:
//  ID            – primary key identifier.
//  ReservationID – owning reservation.
//  SeatNo        – ordinal of the seat within the booking (1..SeatCount).
//  CreatedAt     – creation timestamp.
type ReservationSeat struct {
	ID            uint64    // reservation_seats.id
	ReservationID uint64    // reservation_seats.reservation_id
	SeatNo        uint32    // reservation_seats.seat_no
	CreatedAt     time.Time // reservation_seats.created_at
}
