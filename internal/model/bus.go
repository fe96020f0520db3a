package model

import "time"

// Bus represents a vehicle in the fleet.  Its capacity is the hard
// upper bound on confirmed seats for any trip it is assigned to; the
// booking engine reads the capacity but never mutates the bus.
//
// Fields:
//  ID        – primary key identifier.
//  Plate     – unique registration plate.
//  Class     – vehicle class (STANDARD, PREMIUM).
//  Capacity  – number of sellable seats (positive).
//  IsActive  – whether the bus may be assigned to new trips.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Bus struct {
	ID        uint64    // buses.id
	Plate     string    // buses.plate
	Class     string    // buses.class
	Capacity  uint32    // buses.capacity
	IsActive  bool      // buses.is_active
	CreatedAt time.Time // buses.created_at
	UpdatedAt time.Time // buses.updated_at
}
