// Package repository contains the MySQL data access layer: catalog and
// account repositories, the reservation query service and the booking
// engine's transactional store.  Sentinel errors let handlers map
// failures to HTTP statuses without inspecting driver errors.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/bus-reservation/internal/model"
)

// ErrTripNotFound indicates that a trip was not located in the DB.
var ErrTripNotFound = errors.New("trip not found")

// ErrNoChange indicates the UPDATE attempted to set fields equal to current values.
var ErrNoChange = errors.New("no change")

// TripRepo manages persistence for trips.
type TripRepo struct {
	db *sql.DB
}

// NewTripRepo constructs a TripRepo with the given DB handle.
func NewTripRepo(db *sql.DB) *TripRepo { return &TripRepo{db: db} }

const tripColumns = `id, origin_city_id, destination_city_id, bus_id, departs_at, arrives_at, price_cents, is_active, created_at, updated_at`

func scanTrip(scan func(dest ...any) error) (model.Trip, error) {
	var t model.Trip
	err := scan(
		&t.ID, &t.OriginCityID, &t.DestinationCityID, &t.BusID,
		&t.DepartsAt, &t.ArrivesAt, &t.PriceCents, &t.IsActive,
		&t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

// Create inserts a new trip and populates the generated ID and DB
// defaults on the given struct.
func (r *TripRepo) Create(ctx context.Context, t *model.Trip) error {
	const q = `INSERT INTO trips (origin_city_id, destination_city_id, bus_id, departs_at, arrives_at, price_cents, is_active)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		t.OriginCityID, t.DestinationCityID, t.BusID,
		t.DepartsAt.UTC(), t.ArrivesAt.UTC(), t.PriceCents, t.IsActive,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	sel := `SELECT ` + tripColumns + ` FROM trips WHERE id = ?`
	*t, err = scanTrip(r.db.QueryRowContext(ctx, sel, t.ID).Scan)
	return err
}

// GetByID retrieves a trip by its ID.  It returns ErrTripNotFound if
// there is no matching row.
func (r *TripRepo) GetByID(ctx context.Context, id uint64) (*model.Trip, error) {
	q := `SELECT ` + tripColumns + ` FROM trips WHERE id = ?`
	t, err := scanTrip(r.db.QueryRowContext(ctx, q, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Update writes a trip's mutable attributes.  It performs the UPDATE
// only when at least one field differs; otherwise it returns
// ErrNoChange.  When the row does not exist it returns ErrTripNotFound.
func (r *TripRepo) Update(ctx context.Context, t *model.Trip) error {
	const q = `UPDATE trips
               SET origin_city_id = ?, destination_city_id = ?, bus_id = ?,
                   departs_at = ?, arrives_at = ?, price_cents = ?, is_active = ?,
                   updated_at = CURRENT_TIMESTAMP
               WHERE id = ?
                 AND (origin_city_id <> ? OR destination_city_id <> ? OR bus_id <> ?
                      OR departs_at <> ? OR arrives_at <> ? OR price_cents <> ? OR is_active <> ?)`
	departs, arrives := t.DepartsAt.UTC(), t.ArrivesAt.UTC()
	res, err := r.db.ExecContext(ctx, q,
		t.OriginCityID, t.DestinationCityID, t.BusID, departs, arrives, t.PriceCents, t.IsActive,
		t.ID,
		t.OriginCityID, t.DestinationCityID, t.BusID, departs, arrives, t.PriceCents, t.IsActive,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var one int
	if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM trips WHERE id = ? LIMIT 1`, t.ID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTripNotFound
		}
		return err
	}
	return ErrNoChange
}

// Delete removes a trip.  The deletion is refused with ErrConflict when
// reservations exist for the trip; cleaning those up is an explicit
// administrative action through the booking engine, never a cascade.
func (r *TripRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var cnt int64
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations WHERE trip_id = ?`, id).Scan(&cnt); err != nil {
		return err
	}
	if cnt > 0 {
		return ErrConflict
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM trips WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTripNotFound
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// TripSearchQuery defines filters & pagination for the public trip search.
type TripSearchQuery struct {
	Origin      string // origin city name substring
	Destination string // destination city name substring
	Date        string // departure date "2006-01-02" (UTC day)
	TimeFilter  string // "upcoming" (default) or "any"
	Page        int
	PageSize    int
}

// PublicTripRow is the sanitized trip representation returned to
// unauthenticated browsers.
type PublicTripRow struct {
	ID          uint64    `json:"id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	DepartsAt   time.Time `json:"departs_at"`
	ArrivesAt   time.Time `json:"arrives_at"`
	PriceCents  uint64    `json:"price_cents"`
	Price       float64   `json:"price"`
	BusClass    string    `json:"bus_class"`
	Capacity    uint32    `json:"capacity"`
}

// Search returns active trips matching the query plus the total match
// count.  Results are ordered by departure time ascending.
func (r *TripRepo) Search(ctx context.Context, q TripSearchQuery) ([]PublicTripRow, int64, error) {
	where := []string{"t.is_active", "b.is_active"}
	args := []any{}

	if strings.ToLower(q.TimeFilter) != "any" {
		where = append(where, "t.departs_at >= UTC_TIMESTAMP()")
	}
	if q.Origin != "" {
		where = append(where, "LOWER(co.name) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Origin)+"%")
	}
	if q.Destination != "" {
		where = append(where, "LOWER(cd.name) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Destination)+"%")
	}
	if q.Date != "" {
		where = append(where, "DATE(t.departs_at) = ?")
		args = append(args, q.Date)
	}
	cond := strings.Join(where, " AND ")

	const joins = `FROM trips t
		JOIN cities co ON co.id = t.origin_city_id
		JOIN cities cd ON cd.id = t.destination_city_id
		JOIN buses b ON b.id = t.bus_id`

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) `+joins+` WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := q.PageSize
	offset := (q.Page - 1) * q.PageSize
	dataSQL := `SELECT t.id, co.name, cd.name, t.departs_at, t.arrives_at,
			t.price_cents, b.class, b.capacity
		` + joins + `
		WHERE ` + cond + `
		ORDER BY t.departs_at ASC
		LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]PublicTripRow, 0, limit)
	for rows.Next() {
		var d PublicTripRow
		if err := rows.Scan(
			&d.ID, &d.Origin, &d.Destination, &d.DepartsAt, &d.ArrivesAt,
			&d.PriceCents, &d.BusClass, &d.Capacity,
		); err != nil {
			return nil, 0, err
		}
		d.Price = float64(d.PriceCents) / 100.0
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
