package handler

import (
	"github.com/iliyamo/bus-reservation/internal/booking"
	"github.com/iliyamo/bus-reservation/internal/repository"
)

// AdminHandler bundles everything the administrative surface touches:
// catalog repositories for cities, buses and trips, the read side of
// reservations, and the engine for reservation writes.
type AdminHandler struct {
	Cities       *repository.CityRepo
	Buses        *repository.BusRepo
	Trips        *repository.TripRepo
	Reservations *repository.ReservationRepo
	Engine       *booking.Engine
}

// NewAdminHandler constructs an AdminHandler and panics if any
// dependency is nil.
func NewAdminHandler(cities *repository.CityRepo, buses *repository.BusRepo, trips *repository.TripRepo, reservations *repository.ReservationRepo, engine *booking.Engine) *AdminHandler {
	if cities == nil || buses == nil || trips == nil || reservations == nil || engine == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{
		Cities:       cities,
		Buses:        buses,
		Trips:        trips,
		Reservations: reservations,
		Engine:       engine,
	}
}
