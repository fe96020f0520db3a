package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/bus-reservation/internal/model"
)

// ErrCityNotFound indicates that a city was not located in the DB.
var ErrCityNotFound = errors.New("city not found")

// ErrCityExists is returned when a city name collides with an existing one.
var ErrCityExists = errors.New("city already exists")

// CityRepo manages persistence for cities.
type CityRepo struct {
	db *sql.DB
}

// NewCityRepo constructs a CityRepo with the given DB handle.
func NewCityRepo(db *sql.DB) *CityRepo { return &CityRepo{db: db} }

const cityColumns = `id, name, is_active, created_at, updated_at`

func scanCity(scan func(dest ...any) error) (model.City, error) {
	var c model.City
	err := scan(&c.ID, &c.Name, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// Create inserts a new city and populates the generated ID and DB defaults.
func (r *CityRepo) Create(ctx context.Context, c *model.City) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO cities (name, is_active) VALUES (?, ?)`, c.Name, c.IsActive)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrCityExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	sel := `SELECT ` + cityColumns + ` FROM cities WHERE id = ?`
	*c, err = scanCity(r.db.QueryRowContext(ctx, sel, c.ID).Scan)
	return err
}

// GetByID retrieves a city by its ID, returning ErrCityNotFound when absent.
func (r *CityRepo) GetByID(ctx context.Context, id uint64) (*model.City, error) {
	q := `SELECT ` + cityColumns + ` FROM cities WHERE id = ?`
	c, err := scanCity(r.db.QueryRowContext(ctx, q, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCityNotFound
		}
		return nil, err
	}
	return &c, nil
}

// List returns all cities ordered by name.
func (r *CityRepo) List(ctx context.Context) ([]model.City, error) {
	q := `SELECT ` + cityColumns + ` FROM cities ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.City, 0)
	for rows.Next() {
		c, err := scanCity(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update writes a city's name and active flag.
func (r *CityRepo) Update(ctx context.Context, c *model.City) error {
	const q = `UPDATE cities SET name = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, c.Name, c.IsActive, c.ID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrCityExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM cities WHERE id = ? LIMIT 1`, c.ID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrCityNotFound
			}
			return err
		}
	}
	return nil
}

// Delete removes a city unless trips still reference it, in which case
// ErrConflict is returned.
func (r *CityRepo) Delete(ctx context.Context, id uint64) error {
	var cnt int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM trips WHERE origin_city_id = ? OR destination_city_id = ?`, id, id).Scan(&cnt); err != nil {
		return err
	}
	if cnt > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM cities WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCityNotFound
	}
	return nil
}
