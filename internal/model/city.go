package model

import "time"

// City is an origin or destination served by the network.  Cities are
// managed by administrators and referenced by trips; they are never
// owned by a reservation.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – unique city name.
//  IsActive  – whether trips may still be scheduled from/to this city.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type City struct {
	ID        uint64    // cities.id
	Name      string    // cities.name
	IsActive  bool      // cities.is_active
	CreatedAt time.Time // cities.created_at
	UpdatedAt time.Time // cities.updated_at
}
