package booking

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/bus-reservation/internal/model"
)

// memStore is an in-memory Store used by the engine tests.  The mutex
// is held for the whole transaction, which serializes writers exactly
// like the row lock in the MySQL store; on an error from fn the state
// is restored from a snapshot, mirroring a rollback.
type memStore struct {
	mu           sync.Mutex
	trips        map[uint64]model.TripCapacity
	reservations map[uint64]model.Reservation
	seats        map[uint64][]model.ReservationSeat
	codes        map[string]uint64
	nextID       uint64

	// rejectInserts makes the next n InsertReservation calls fail
	// with ErrCodeTaken to exercise the collision retry loop.
	rejectInserts int
}

func newMemStore() *memStore {
	return &memStore{
		trips:        map[uint64]model.TripCapacity{},
		reservations: map[uint64]model.Reservation{},
		seats:        map[uint64][]model.ReservationSeat{},
		codes:        map[string]uint64{},
	}
}

func (s *memStore) addTrip(id uint64, capacity uint32, priceCents uint64, active bool) {
	s.trips[id] = model.TripCapacity{TripID: id, BusID: id, BusCapacity: capacity, PriceCents: priceCents, IsActive: active}
}

func (s *memStore) snapshot() (map[uint64]model.Reservation, map[uint64][]model.ReservationSeat, map[string]uint64, uint64) {
	res := make(map[uint64]model.Reservation, len(s.reservations))
	for k, v := range s.reservations {
		if v.CancelledAt != nil {
			at := *v.CancelledAt
			v.CancelledAt = &at
		}
		res[k] = v
	}
	seats := make(map[uint64][]model.ReservationSeat, len(s.seats))
	for k, v := range s.seats {
		seats[k] = append([]model.ReservationSeat(nil), v...)
	}
	codes := make(map[string]uint64, len(s.codes))
	for k, v := range s.codes {
		codes[k] = v
	}
	return res, seats, codes, s.nextID
}

func (s *memStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, seats, codes, next := s.snapshot()
	if err := fn(&memTx{s: s}); err != nil {
		s.reservations, s.seats, s.codes, s.nextID = res, seats, codes, next
		return err
	}
	return nil
}

type memTx struct{ s *memStore }

func (t *memTx) TripCapacityForUpdate(ctx context.Context, tripID uint64) (*model.TripCapacity, error) {
	tc, ok := t.s.trips[tripID]
	if !ok || !tc.IsActive {
		return nil, ErrTripNotFound
	}
	out := tc
	return &out, nil
}

func (t *memTx) ConfirmedSeats(ctx context.Context, tripID, excludeID uint64) (uint32, error) {
	var sum uint32
	for id, r := range t.s.reservations {
		if r.TripID == tripID && r.Status == model.StatusConfirmed && id != excludeID {
			sum += r.SeatCount
		}
	}
	return sum, nil
}

func (t *memTx) GetReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	r, ok := t.s.reservations[id]
	if !ok {
		return nil, ErrReservationNotFound
	}
	if r.CancelledAt != nil {
		at := *r.CancelledAt
		r.CancelledAt = &at
	}
	return &r, nil
}

func (t *memTx) InsertReservation(ctx context.Context, res *model.Reservation) error {
	if t.s.rejectInserts > 0 {
		t.s.rejectInserts--
		return ErrCodeTaken
	}
	if _, dup := t.s.codes[res.Code]; dup {
		return ErrCodeTaken
	}
	t.s.nextID++
	res.ID = t.s.nextID
	res.CreatedAt = time.Now().UTC()
	res.UpdatedAt = res.CreatedAt
	t.s.reservations[res.ID] = *res
	t.s.codes[res.Code] = res.ID
	return nil
}

func (t *memTx) InsertSeats(ctx context.Context, reservationID uint64, n uint32) error {
	for i := uint32(1); i <= n; i++ {
		t.s.nextID++
		t.s.seats[reservationID] = append(t.s.seats[reservationID], model.ReservationSeat{
			ID:            t.s.nextID,
			ReservationID: reservationID,
			SeatNo:        i,
		})
	}
	return nil
}

func (t *memTx) UpdateReservation(ctx context.Context, res *model.Reservation) error {
	if _, ok := t.s.reservations[res.ID]; !ok {
		return ErrReservationNotFound
	}
	res.UpdatedAt = time.Now().UTC()
	t.s.reservations[res.ID] = *res
	return nil
}

func (t *memTx) ReplaceSeats(ctx context.Context, reservationID uint64, n uint32) error {
	delete(t.s.seats, reservationID)
	return t.InsertSeats(ctx, reservationID, n)
}

func (t *memTx) DeleteSeats(ctx context.Context, reservationID uint64) error {
	delete(t.s.seats, reservationID)
	return nil
}

func (t *memTx) DeleteReservation(ctx context.Context, reservationID uint64) error {
	r, ok := t.s.reservations[reservationID]
	if !ok {
		return ErrReservationNotFound
	}
	delete(t.s.codes, r.Code)
	delete(t.s.reservations, reservationID)
	return nil
}

// seatRows returns the child rows of a reservation outside any transaction.
func (s *memStore) seatRows(reservationID uint64) []model.ReservationSeat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ReservationSeat(nil), s.seats[reservationID]...)
}

// get returns a reservation outside any transaction.
func (s *memStore) get(id uint64) (model.Reservation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	return r, ok
}
