package model

import "time"

// Trip is a scheduled departure of a single bus on a route between two
// cities.  Trips are created and edited by administrators; the booking
// engine treats them as read-only and only consults the active flag and
// the assigned bus capacity.
//
// Fields:
//  ID                – primary key identifier.
//  OriginCityID      – city the trip departs from.
//  DestinationCityID – city the trip arrives at.
//  BusID             – assigned bus (capacity source).
//  DepartsAt         – scheduled departure (UTC).
//  ArrivesAt         – scheduled arrival (UTC, after DepartsAt).
//  PriceCents        – per-seat price in cents, copied onto reservations
//                      at booking time.
//  IsActive          – whether the trip accepts new reservations.
//  CreatedAt         – creation timestamp.
//  UpdatedAt         – last update timestamp.
type Trip struct {
	ID                uint64    // trips.id
	OriginCityID      uint64    // trips.origin_city_id
	DestinationCityID uint64    // trips.destination_city_id
	BusID             uint64    // trips.bus_id
	DepartsAt         time.Time // trips.departs_at
	ArrivesAt         time.Time // trips.arrives_at
	PriceCents        uint64    // trips.price_cents
	IsActive          bool      // trips.is_active
	CreatedAt         time.Time // trips.created_at
	UpdatedAt         time.Time // trips.updated_at
}

// Capacity as seen by the booking engine: the trip joined with its bus.
// BusCapacity is fixed at read time; the engine never mutates it.
type TripCapacity struct {
	TripID      uint64 // trips.id
	BusID       uint64 // buses.id
	BusCapacity uint32 // buses.capacity
	PriceCents  uint64 // trips.price_cents
	IsActive    bool   // trips.is_active AND buses.is_active
}
