package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/bus-reservation/internal/model"
)

// ErrBusNotFound indicates that a bus was not located in the DB.
var ErrBusNotFound = errors.New("bus not found")

// ErrPlateExists is returned when a bus plate collides with an
// existing one; plates are unique across the fleet.
var ErrPlateExists = errors.New("plate already exists")

// BusRepo manages persistence for buses.  The booking engine never
// writes through this repository; it only reads capacity via
// BookingStore.
type BusRepo struct {
	db *sql.DB
}

// NewBusRepo constructs a BusRepo with the given DB handle.
func NewBusRepo(db *sql.DB) *BusRepo { return &BusRepo{db: db} }

const busColumns = `id, plate, class, capacity, is_active, created_at, updated_at`

func scanBus(scan func(dest ...any) error) (model.Bus, error) {
	var b model.Bus
	err := scan(&b.ID, &b.Plate, &b.Class, &b.Capacity, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

// Create inserts a new bus and populates the generated ID and DB defaults.
func (r *BusRepo) Create(ctx context.Context, b *model.Bus) error {
	const q = `INSERT INTO buses (plate, class, capacity, is_active) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, b.Plate, b.Class, b.Capacity, b.IsActive)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrPlateExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	sel := `SELECT ` + busColumns + ` FROM buses WHERE id = ?`
	*b, err = scanBus(r.db.QueryRowContext(ctx, sel, b.ID).Scan)
	return err
}

// GetByID retrieves a bus by its ID, returning ErrBusNotFound when absent.
func (r *BusRepo) GetByID(ctx context.Context, id uint64) (*model.Bus, error) {
	q := `SELECT ` + busColumns + ` FROM buses WHERE id = ?`
	b, err := scanBus(r.db.QueryRowContext(ctx, q, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBusNotFound
		}
		return nil, err
	}
	return &b, nil
}

// List returns all buses ordered by plate.
func (r *BusRepo) List(ctx context.Context) ([]model.Bus, error) {
	q := `SELECT ` + busColumns + ` FROM buses ORDER BY plate ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Bus, 0)
	for rows.Next() {
		b, err := scanBus(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update writes a bus's mutable attributes.  Capacity changes do not
// touch existing reservations; availability simply recomputes against
// the new capacity on the next booking.
func (r *BusRepo) Update(ctx context.Context, b *model.Bus) error {
	const q = `UPDATE buses
               SET plate = ?, class = ?, capacity = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
               WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, b.Plate, b.Class, b.Capacity, b.IsActive, b.ID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrPlateExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM buses WHERE id = ? LIMIT 1`, b.ID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrBusNotFound
			}
			return err
		}
	}
	return nil
}

// Delete removes a bus unless trips still reference it, in which case
// ErrConflict is returned.
func (r *BusRepo) Delete(ctx context.Context, id uint64) error {
	var cnt int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trips WHERE bus_id = ?`, id).Scan(&cnt); err != nil {
		return err
	}
	if cnt > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM buses WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBusNotFound
	}
	return nil
}
