// Package booking implements the seat allocation and reservation
// lifecycle engine.  It decides whether a booking may be accepted,
// computes available capacity on a trip and drives the
// confirmed/cancelled state transitions inside atomic transactions.
// This file defines the error taxonomy surfaced to callers; handlers
// translate these into HTTP responses.
package booking

import (
	"errors"
	"fmt"
)

// ErrTripNotFound is returned when the referenced trip does not exist
// or is inactive (or its bus is inactive).  Handlers should translate
// this into an HTTP 404 response.
var ErrTripNotFound = errors.New("trip not found or inactive")

// ErrReservationNotFound is returned when an update or delete targets
// a reservation that no longer exists.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrCodeTaken is returned by Store implementations when inserting a
// reservation violates the unique constraint on the code column.  The
// engine reacts by regenerating the code and retrying the insert.
var ErrCodeTaken = errors.New("reservation code already taken")

// ErrCodeExhausted is returned when the bounded retry loop for code
// generation runs out of attempts.  It is a fatal internal error.
var ErrCodeExhausted = errors.New("reservation code generation exhausted")

// ValidationError reports malformed input such as a zero seat count or
// a missing cancellation timestamp.  It is surfaced to the caller
// verbatim and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InsufficientSeatsError rejects a booking whose seat count exceeds the
// seats still available on the trip.  It always carries both numbers so
// callers can present a precise message.  The attempted write is rolled
// back entirely; the trip is never left overbooked.
type InsufficientSeatsError struct {
	Requested uint32
	Available uint32
}

func (e *InsufficientSeatsError) Error() string {
	return fmt.Sprintf("insufficient seats: requested %d, available %d", e.Requested, e.Available)
}
