package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/bus-reservation/internal/model"
)

var testClock = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

func newTestEngine(t *testing.T) (*Engine, *memStore) {
	t.Helper()
	s := newMemStore()
	return NewEngine(s, testClock), s
}

func mustCreate(t *testing.T, e *Engine, in CreateInput) *model.Reservation {
	t.Helper()
	res, err := e.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return res
}

func TestCreateWithinCapacity(t *testing.T) {
	e, s := newTestEngine(t)
	s.addTrip(1, 10, 1500, true)
	mustCreate(t, e, CreateInput{UserID: 1, TripID: 1, SeatCount: 7})

	res := mustCreate(t, e, CreateInput{UserID: 2, TripID: 1, SeatCount: 3})
	if res.Status != model.StatusConfirmed {
		t.Fatalf("status = %q, want CONFIRMED", res.Status)
	}
	if res.TotalPriceCents != 3*1500 {
		t.Fatalf("total = %d, want %d", res.TotalPriceCents, 3*1500)
	}
	if !res.ReservedAt.Equal(testClock()) {
		t.Fatalf("reserved_at = %v, want clock time", res.ReservedAt)
	}

	_, err := e.Create(context.Background(), CreateInput{UserID: 3, TripID: 1, SeatCount: 4})
	var ins *InsufficientSeatsError
	if !errors.As(err, &ins) {
		t.Fatalf("err = %v, want InsufficientSeatsError", err)
	}
	if ins.Requested != 4 || ins.Available != 0 {
		t.Fatalf("got (%d, %d), want (4, 0)", ins.Requested, ins.Available)
	}
}

func TestCreateRejectedAtExactCapacity(t *testing.T) {
	e, s := newTestEngine(t)
	s.addTrip(1, 10, 1000, true)
	mustCreate(t, e, CreateInput{UserID: 1, TripID: 1, SeatCount: 6})
	mustCreate(t, e, CreateInput{UserID: 2, TripID: 1, SeatCount: 4})

	_, err := e.Create(context.Background(), CreateInput{UserID: 3, TripID: 1, SeatCount: 1})
	var ins *InsufficientSeatsError
	if !errors.As(err, &ins) {
		t.Fatalf("err = %v, want InsufficientSeatsError", err)
	}
	if ins.Requested != 1 || ins.Available != 0 {
		t.Fatalf("got (%d, %d), want (1, 0)", ins.Requested, ins.Available)
	}
}

func TestCreateRejectionReportsAvailable(t *testing.T) {
	e, s := newTestEngine(t)
	s.addTrip(1, 10, 1000, true)
	mustCreate(t, e, CreateInput{UserID: 1, TripID: 1, SeatCount: 7})

	_, err := e.Create(context.Background(), CreateInput{UserID: 2, TripID: 1, SeatCount: 4})
	var ins *InsufficientSeatsError
	if !errors.As(err, &ins) {
		t.Fatalf("err = %v, want InsufficientSeatsError", err)
	}
	if ins.Requested != 4 || ins.Available != 3 {
		t.Fatalf("got (%d, %d), want (4, 3)", ins.Requested, ins.Available)
	}
	// rejected create must leave no rows behind
	if avail, _ := e.AvailableSeats(context.Background(), 1, 0); avail != 3 {
		t.Fatalf("available = %d after rejected create, want 3", avail)
	}
}

func TestCreateTripMissingOrInactive(t *testing.T) {
	e, s := newTestEngine(t)
	s.addTrip(2, 10, 1000, false)

	for _, tripID := range []uint64{1, 2} {
		_, err := e.Create(context.Background(), CreateInput{UserID: 1, TripID: tripID, SeatCount: 1})
		if !errors.Is(err, ErrTripNotFound) {
			t.Fatalf("trip %d: err = %v, want ErrTripNotFound", tripID, err)
		}
	}
}

func TestCreateCancelledSkipsCapacityCheck(t *testing.T) {
	e, s := newTestEngine(t)
	s.addTrip(1, 10, 1000, true)
	mustCreate(t, e, CreateInput{UserID: 1, TripID: 1, SeatCount: 10})

	// administrative backfill of an already cancelled booking on a full trip
	at := testClock()
	res := mustCreate(t, e, CreateInput{UserID: 2, TripID: 1, SeatCount: 5, Status: model.StatusCancelled, CancelledAt: &at})
	if res.CancelledAt == nil || !res.CancelledAt.Equal(at) {
		t.Fatalf("cancelled_at = %v, want %v", res.CancelledAt, at)
	}
	if avail, _ := e.AvailableSeats(context.Background(), 1, 0); avail != 0 {
		t.Fatalf("available = %d, want 0 (cancelled rows hold no seats)", avail)
	}
}

func TestCreateValidation(t *testing.T) {
	e, s := newTestEngine(t)
	s.addTrip(1, 10, 1000, true)

	cases := []struct {
		name string
		in   CreateInput
	}{
		{"zero user", CreateInput{TripID: 1, SeatCount: 1}},
		{"zero trip", CreateInput{UserID: 1, SeatCount: 1}},
		{"zero seats", CreateInput{UserID: 1, TripID: 1}},
		{"over per-booking cap", CreateInput{UserID: 1, TripID: 1, SeatCount: MaxSeatsPerBooking + 1}},
		{"unknown status", CreateInput{UserID: 1, TripID: 1, SeatCount: 1, Status: "PENDING"}},
		{"cancelled without timestamp", CreateInput{UserID: 1, TripID: 1, SeatCount: 1, Status: model.StatusCancelled}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.Create(context.Background(), tc.in)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
		})
	}
}

func TestCreateRetriesOnCodeCollision(t *testing.T) {
	e, s := newTestEngine(t)
	s.addTrip(1, 10, 1000, true)

	s.rejectInserts = maxCodeAttempts - 1
	res := mustCreate(t, e, CreateInput{UserID: 1, TripID: 1, SeatCount: 2})
	if res.ID == 0 || res.Code == "" {
		t.Fatalf("reservation not persisted after retries: %+v", res)
	}

	s.rejectInserts = maxCodeAttempts
	_, err := e.Create(context.Background(), CreateInput{UserID: 2, TripID: 1, SeatCount: 2})
	if !errors.Is(err, ErrCodeExhausted) {
		t.Fatalf("err = %v, want ErrCodeExhausted", err)
	}
	if avail, _ := e.AvailableSeats(context.Background(), 1, 0); avail != 8 {
		t.Fatalf("available = %d, want 8 (exhausted create rolled back)", avail)
	}
}

func TestUpdateMoveToFullTripFails(t *testing.T) {
	e, s := newTestEngine(t)
	s.addTrip(1, 10, 1000, true)
	s.addTrip(2, 10, 1000, true)
	res := mustCreate(t, e, CreateInput{UserID: 1, TripID: 1, SeatCount: 5})
	mustCreate(t, e, CreateInput{UserID: 2, TripID: 2, SeatCount: 8})

	_, err := e.Update(context.Background(), res.ID, UpdateInput{
		UserID: res.UserID, TripID: 2, SeatCount: 5, Status: model.StatusConfirmed,
	})
	var ins *InsufficientSeatsError
	if !errors.As(err, &ins) {
		t.Fatalf("err = %v, want InsufficientSeatsError", err)
	}
	if ins.Requested != 5 || ins.Available != 2 {
		t.Fatalf("got (%d, %d), want (5, 2)", ins.Requested, ins.Available)
	}
	// the original reservation is untouched
	got, ok := s.get(res.ID)
	if !ok || got.TripID != 1 || got.SeatCount != 5 || got.Status != model.StatusConfirmed {
		t.Fatalf("reservation mutated by failed update: %+v", got)
	}
}

func TestUpdateExcludesOwnSeats(t *testing.T) {
	e, s := newTestEngine(t)
	s.addTrip(1, 10, 1000, true)
	res := mustCreate(t, e, CreateInput{UserID: 1, TripID: 1, SeatCount: 7})
	mustCreate(t, e, CreateInput{UserID: 2, TripID: 1, SeatCount: 2})

	// growing 7 -> 8 is fine: availability excluding the row itself is 8
	upd, err := e.Update(context.Background(), res.ID, UpdateInput{
		UserID: 1, TripID: 1, SeatCount: 8, Status: model.StatusConfirmed,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if upd.SeatCount != 8 {
		t.Fatalf("seat_count = %d, want 8", upd.SeatCount)
	}
	if upd.TotalPriceCents != 8*1000 {
		t.Fatalf("total = %d, want %d (recalculated)", upd.TotalPriceCents, 8*1000)
	}
	if got := s.seatRows(res.ID); len(got) != 8 {
		t.Fatalf("seat rows = %d, want 8", len(got))
	}

	_, err = e.Update(context.Background(), res.ID, UpdateInput{
		UserID: 1, TripID: 1, SeatCount: 9, Status: model.StatusConfirmed,
	})
	var ins *InsufficientSeatsError
	if !errors.As(err, &ins) {
		t.Fatalf("err = %v, want InsufficientSeatsError", err)
	}
	if ins.Requested != 9 || ins.Available != 8 {
		t.Fatalf("got (%d, %d), want (9, 8)", ins.Requested, ins.Available)
	}
}

func TestUpdateFieldOnlySkipsCapacityCheck(t *testing.T) {
	e, s := newTestEngine(t)
	s.addTrip(1, 10, 1000, true)
	res := mustCreate(t, e, CreateInput{UserID: 1, TripID: 1, SeatCount: 6})
	mustCreate(t, e, CreateInput{UserID: 2, TripID: 1, SeatCount: 4})

	// trip is full, but changing only price/owner must not re-validate
	price := uint64(9999)
	upd, err := e.Update(context.Background(), res.ID, UpdateInput{
		UserID: 7, TripID: 1, SeatCount: 6, Status: model.StatusConfirmed, TotalPriceCents: &price,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if upd.UserID != 7 || upd.TotalPriceCents != 9999 {
		t.Fatalf("fields not applied: %+v", upd)
	}
	if upd.Code != res.Code {
		t.Fatalf("code changed across update: %q -> %q", res.Code, upd.Code)
	}
}

func TestCancelFreesCapacity(t *testing.T) {
	e, s := newTestEngine(t)
	s.addTrip(1, 10, 1000, true)
	res := mustCreate(t, e, CreateInput{UserID: 1, TripID: 1, SeatCount: 7})

	before, _ := e.AvailableSeats(context.Background(), 1, 0)
	if before != 3 {
		t.Fatalf("available = %d, want 3", before)
	}

	cancelled, err := e.Cancel(context.Background(), res.ID, testClock())
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != model.StatusCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("cancel did not set status/timestamp: %+v", cancelled)
	}

	after, _ := e.AvailableSeats(context.Background(), 1, 0)
	if after != before+res.SeatCount {
		t.Fatalf("available = %d, want %d (freed exactly the seat count)", after, before+res.SeatCount)
	}

	// cancelling again is a no-op
	again, err := e.Cancel(context.Background(), res.ID, testClock().Add(time.Hour))
	if err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	if !again.CancelledAt.Equal(*cancelled.CancelledAt) {
		t.Fatalf("second cancel moved cancelled_at to %v", again.CancelledAt)
	}
}

func TestReactivationRevalidatesCapacity(t *testing.T) {
	e, s := newTestEngine(t)
	s.addTrip(1, 10, 1000, true)
	res := mustCreate(t, e, CreateInput{UserID: 1, TripID: 1, SeatCount: 5})
	if _, err := e.Cancel(context.Background(), res.ID, testClock()); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	// the freed seats are taken by someone else in the meantime
	mustCreate(t, e, CreateInput{UserID: 2, TripID: 1, SeatCount: 8})

	_, err := e.Update(context.Background(), res.ID, UpdateInput{
		UserID: 1, TripID: 1, SeatCount: 5, Status: model.StatusConfirmed,
	})
	var ins *InsufficientSeatsError
	if !errors.As(err, &ins) {
		t.Fatalf("err = %v, want InsufficientSeatsError on reactivation", err)
	}
	if ins.Requested != 5 || ins.Available != 2 {
		t.Fatalf("got (%d, %d), want (5, 2)", ins.Requested, ins.Available)
	}

	// shrinking to what is left succeeds and clears cancelled_at
	upd, err := e.Update(context.Background(), res.ID, UpdateInput{
		UserID: 1, TripID: 1, SeatCount: 2, Status: model.StatusConfirmed,
	})
	if err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if upd.Status != model.StatusConfirmed || upd.CancelledAt != nil {
		t.Fatalf("reactivation left incoherent state: %+v", upd)
	}
}

func TestUpdateIntoCancelledBypassesCheck(t *testing.T) {
	e, s := newTestEngine(t)
	s.addTrip(1, 10, 1000, true)
	s.addTrip(2, 10, 1000, true)
	res := mustCreate(t, e, CreateInput{UserID: 1, TripID: 1, SeatCount: 3})
	mustCreate(t, e, CreateInput{UserID: 2, TripID: 2, SeatCount: 10})

	// moving onto a full trip while cancelling: no capacity needed
	at := testClock()
	upd, err := e.Update(context.Background(), res.ID, UpdateInput{
		UserID: 1, TripID: 2, SeatCount: 3, Status: model.StatusCancelled, CancelledAt: &at,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if upd.TripID != 2 || upd.Status != model.StatusCancelled {
		t.Fatalf("update not applied: %+v", upd)
	}
	if avail, _ := e.AvailableSeats(context.Background(), 2, 0); avail != 0 {
		t.Fatalf("available on trip 2 = %d, want 0", avail)
	}
}

func TestUpdateCancelledStillRequiresValidTrip(t *testing.T) {
	e, s := newTestEngine(t)
	s.addTrip(1, 10, 1000, true)
	s.addTrip(2, 10, 1000, false)
	res := mustCreate(t, e, CreateInput{UserID: 1, TripID: 1, SeatCount: 3})

	// cancelling skips the availability comparison, not the trip lookup:
	// moving onto an absent or inactive trip must fail either way
	at := testClock()
	for _, tripID := range []uint64{99, 2} {
		_, err := e.Update(context.Background(), res.ID, UpdateInput{
			UserID: 1, TripID: tripID, SeatCount: 3, Status: model.StatusCancelled, CancelledAt: &at,
		})
		if !errors.Is(err, ErrTripNotFound) {
			t.Fatalf("trip %d: err = %v, want ErrTripNotFound", tripID, err)
		}
		got, ok := s.get(res.ID)
		if !ok || got.TripID != 1 || got.Status != model.StatusConfirmed {
			t.Fatalf("trip %d: reservation mutated by failed update: %+v", tripID, got)
		}
	}
}

func TestUpdateMissingReservation(t *testing.T) {
	e, s := newTestEngine(t)
	s.addTrip(1, 10, 1000, true)
	_, err := e.Update(context.Background(), 99, UpdateInput{UserID: 1, TripID: 1, SeatCount: 1, Status: model.StatusConfirmed})
	if !errors.Is(err, ErrReservationNotFound) {
		t.Fatalf("err = %v, want ErrReservationNotFound", err)
	}
}

func TestDeleteRemovesOnlyOwnSeatRows(t *testing.T) {
	e, s := newTestEngine(t)
	s.addTrip(1, 10, 1000, true)
	victim := mustCreate(t, e, CreateInput{UserID: 1, TripID: 1, SeatCount: 4})
	other := mustCreate(t, e, CreateInput{UserID: 2, TripID: 1, SeatCount: 3})

	if err := e.Delete(context.Background(), victim.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := s.get(victim.ID); ok {
		t.Fatal("reservation row still present after delete")
	}
	if rows := s.seatRows(victim.ID); len(rows) != 0 {
		t.Fatalf("seat rows left behind: %d", len(rows))
	}
	if rows := s.seatRows(other.ID); len(rows) != 3 {
		t.Fatalf("unrelated seat rows touched: %d, want 3", len(rows))
	}
	if err := e.Delete(context.Background(), victim.ID); !errors.Is(err, ErrReservationNotFound) {
		t.Fatalf("second delete err = %v, want ErrReservationNotFound", err)
	}
}

func TestAvailableSeatsExclusion(t *testing.T) {
	e, s := newTestEngine(t)
	s.addTrip(1, 10, 1000, true)
	s.addTrip(2, 10, 1000, true)
	res := mustCreate(t, e, CreateInput{UserID: 1, TripID: 1, SeatCount: 4})
	mustCreate(t, e, CreateInput{UserID: 2, TripID: 1, SeatCount: 3})

	base, _ := e.AvailableSeats(context.Background(), 1, 0)
	withSelf, _ := e.AvailableSeats(context.Background(), 1, res.ID)
	if withSelf != base+res.SeatCount {
		t.Fatalf("excluding own reservation: got %d, want %d", withSelf, base+res.SeatCount)
	}

	// excluding a reservation on a different trip changes nothing
	otherTrip, _ := e.AvailableSeats(context.Background(), 2, res.ID)
	plain, _ := e.AvailableSeats(context.Background(), 2, 0)
	if otherTrip != plain {
		t.Fatalf("exclusion leaked across trips: %d != %d", otherTrip, plain)
	}

	// excluding a nonexistent reservation changes nothing
	ghost, _ := e.AvailableSeats(context.Background(), 1, 12345)
	if ghost != base {
		t.Fatalf("excluding unknown id: got %d, want %d", ghost, base)
	}
}

func TestConcurrentConfirmationsNeverOverbook(t *testing.T) {
	e, s := newTestEngine(t)
	const capacity = 10
	s.addTrip(1, capacity, 1000, true)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			seats := uint32(n%3 + 1)
			_, err := e.Create(context.Background(), CreateInput{UserID: uint64(n + 1), TripID: 1, SeatCount: seats})
			var ins *InsufficientSeatsError
			if err != nil && !errors.As(err, &ins) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	s.mu.Lock()
	var confirmed uint32
	for _, r := range s.reservations {
		if r.Status == model.StatusConfirmed {
			confirmed += r.SeatCount
		}
	}
	s.mu.Unlock()
	if confirmed > capacity {
		t.Fatalf("overbooked: %d confirmed seats on capacity %d", confirmed, capacity)
	}
	if avail, _ := e.AvailableSeats(context.Background(), 1, 0); avail != capacity-confirmed {
		t.Fatalf("available = %d, want %d", avail, capacity-confirmed)
	}
}
