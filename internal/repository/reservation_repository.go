package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// ReservationPageSize is the fixed page size for reservation listings.
const ReservationPageSize = 15

// ReservationRepo provides the read side for reservations: filtered
// listings for administrative views and per-user lookups for
// customers.  All writes go through the booking engine; this
// repository never mutates reservation rows.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// ReservationFilter defines the optional, AND-combined filters for
// Search.  Zero values mean "no constraint".  Page is 1-based.
type ReservationFilter struct {
	Code     string     // case-insensitive substring of the booking code
	Status   string     // exact status match
	UserID   uint64     // bookings of one user
	TripID   uint64     // bookings on one trip
	From     *time.Time // reserved_at lower bound (inclusive)
	To       *time.Time // reserved_at upper bound (inclusive)
	Upcoming bool       // only trips departing in the future
	Page     int
}

// ReservationDetail is a reservation joined with its trip, route and
// bus for display.  It is returned by Search, ListByUser and the
// GetByID variants.
type ReservationDetail struct {
	ID              uint64     `json:"id"`
	Code            string     `json:"code"`
	UserID          uint64     `json:"user_id"`
	TripID          uint64     `json:"trip_id"`
	SeatCount       uint32     `json:"seat_count"`
	TotalPriceCents uint64     `json:"total_price_cents"`
	Status          string     `json:"status"`
	ReservedAt      time.Time  `json:"reserved_at"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	Origin          string     `json:"origin"`
	Destination     string     `json:"destination"`
	DepartsAt       time.Time  `json:"departs_at"`
	ArrivesAt       time.Time  `json:"arrives_at"`
	BusPlate        string     `json:"bus_plate"`
	BusClass        string     `json:"bus_class"`
}

const reservationDetailColumns = `r.id, r.code, r.user_id, r.trip_id, r.seat_count, r.total_price_cents,
       r.status, r.reserved_at, r.cancelled_at,
       co.name, cd.name, t.departs_at, t.arrives_at, b.plate, b.class`

const reservationDetailJoins = `FROM reservations r
       JOIN trips t ON t.id = r.trip_id
       JOIN cities co ON co.id = t.origin_city_id
       JOIN cities cd ON cd.id = t.destination_city_id
       JOIN buses b ON b.id = t.bus_id`

// buildReservationFilter turns a ReservationFilter into a WHERE
// condition and its arguments.  Factored out so the predicate building
// is testable without a database.
func buildReservationFilter(f ReservationFilter) (string, []any) {
	where := []string{}
	args := []any{}
	if f.Code != "" {
		where = append(where, "LOWER(r.code) LIKE ?")
		args = append(args, "%"+strings.ToLower(f.Code)+"%")
	}
	if f.Status != "" {
		where = append(where, "r.status = ?")
		args = append(args, strings.ToUpper(strings.TrimSpace(f.Status)))
	}
	if f.UserID != 0 {
		where = append(where, "r.user_id = ?")
		args = append(args, f.UserID)
	}
	if f.TripID != 0 {
		where = append(where, "r.trip_id = ?")
		args = append(args, f.TripID)
	}
	if f.From != nil {
		where = append(where, "r.reserved_at >= ?")
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		where = append(where, "r.reserved_at <= ?")
		args = append(args, f.To.UTC())
	}
	if f.Upcoming {
		where = append(where, "t.departs_at > UTC_TIMESTAMP()")
	}
	if len(where) == 0 {
		return "1=1", args
	}
	return strings.Join(where, " AND "), args
}

func scanReservationDetail(scan func(dest ...any) error) (ReservationDetail, error) {
	var d ReservationDetail
	var cancelledAt sql.NullTime
	err := scan(
		&d.ID, &d.Code, &d.UserID, &d.TripID, &d.SeatCount, &d.TotalPriceCents,
		&d.Status, &d.ReservedAt, &cancelledAt,
		&d.Origin, &d.Destination, &d.DepartsAt, &d.ArrivesAt, &d.BusPlate, &d.BusClass,
	)
	if err != nil {
		return d, err
	}
	if cancelledAt.Valid {
		at := cancelledAt.Time
		d.CancelledAt = &at
	}
	return d, nil
}

// Search returns a page of reservations matching the filter plus the
// total match count.  Results are ordered by creation time descending
// (newest first) and paginated at ReservationPageSize.
func (r *ReservationRepo) Search(ctx context.Context, f ReservationFilter) ([]ReservationDetail, int64, error) {
	cond, args := buildReservationFilter(f)

	var total int64
	countSQL := `SELECT COUNT(*) ` + reservationDetailJoins + ` WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * ReservationPageSize

	dataSQL := `SELECT ` + reservationDetailColumns + `
       ` + reservationDetailJoins + `
       WHERE ` + cond + `
       ORDER BY r.created_at DESC
       LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), ReservationPageSize, offset)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]ReservationDetail, 0, ReservationPageSize)
	for rows.Next() {
		d, err := scanReservationDetail(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListByUser returns all reservations of one user, newest first.  When
// no reservations exist an empty slice is returned.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]ReservationDetail, error) {
	q := `SELECT ` + reservationDetailColumns + `
       ` + reservationDetailJoins + `
       WHERE r.user_id = ?
       ORDER BY r.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ReservationDetail, 0)
	for rows.Next() {
		d, err := scanReservationDetail(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID returns one reservation with full detail.  sql.ErrNoRows is
// returned when it does not exist.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*ReservationDetail, error) {
	q := `SELECT ` + reservationDetailColumns + `
       ` + reservationDetailJoins + `
       WHERE r.id = ?`
	d, err := scanReservationDetail(r.db.QueryRowContext(ctx, q, id).Scan)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetByIDForUser returns one reservation when it belongs to the given
// user.  It returns sql.ErrNoRows when the reservation does not exist
// and ErrForbidden when it belongs to someone else.
func (r *ReservationRepo) GetByIDForUser(ctx context.Context, id, userID uint64) (*ReservationDetail, error) {
	d, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.UserID != userID {
		return nil, ErrForbidden
	}
	return d, nil
}

// OwnerUserID returns the user a reservation belongs to without
// loading the full detail; handlers use it for ownership checks before
// invoking the engine.
func (r *ReservationRepo) OwnerUserID(ctx context.Context, id uint64) (uint64, error) {
	var userID uint64
	err := r.db.QueryRowContext(ctx, `SELECT user_id FROM reservations WHERE id = ?`, id).Scan(&userID)
	if err != nil {
		return 0, err
	}
	return userID, nil
}
