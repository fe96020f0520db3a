package queue

// ReservationConfirmedEvent is published when a reservation is
// confirmed. It carries enough route and pricing context for
// downstream consumers to log or notify without querying the primary
// database.
type ReservationConfirmedEvent struct {
	ReservationID   uint64 `json:"reservation_id"`
	Code            string `json:"code"`
	UserID          uint64 `json:"user_id"`
	TripID          uint64 `json:"trip_id"`
	Origin          string `json:"origin"`
	Destination     string `json:"destination"`
	DepartsAt       string `json:"departs_at"`
	SeatCount       uint32 `json:"seat_count"`
	TotalPriceCents uint64 `json:"total_price_cents"`
	ConfirmedAt     string `json:"confirmed_at"`
}

// ReservationCancelledEvent is published when a reservation is
// cancelled and its seats return to the pool.
type ReservationCancelledEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	Code          string `json:"code"`
	UserID        uint64 `json:"user_id"`
	TripID        uint64 `json:"trip_id"`
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartsAt     string `json:"departs_at"`
	SeatCount     uint32 `json:"seat_count"`
	CancelledAt   string `json:"cancelled_at"`
}
