package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-reservation/internal/model"
	"github.com/iliyamo/bus-reservation/internal/repository"
)

type tripBody struct {
	OriginCityID      *uint64    `json:"origin_city_id"`
	DestinationCityID *uint64    `json:"destination_city_id"`
	BusID             *uint64    `json:"bus_id"`
	DepartsAt         *time.Time `json:"departs_at"`
	ArrivesAt         *time.Time `json:"arrives_at"`
	PriceCents        *uint64    `json:"price_cents"`
	IsActive          *bool      `json:"is_active"`
}

// validateTripRefs checks that the referenced cities and bus exist and
// that the route and schedule are coherent. When validation fails it
// writes the error response and reports ok=false; c.JSON returns nil on
// a successful write, so the boolean is the signal, not the error.
func (h *AdminHandler) validateTripRefs(c echo.Context, t *model.Trip) (bool, error) {
	if t.OriginCityID == t.DestinationCityID {
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "origin and destination must differ"})
	}
	if !t.ArrivesAt.After(t.DepartsAt) {
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "arrives_at must be after departs_at"})
	}
	ctx := c.Request().Context()
	for _, cityID := range []uint64{t.OriginCityID, t.DestinationCityID} {
		if _, err := h.Cities.GetByID(ctx, cityID); err != nil {
			if errors.Is(err, repository.ErrCityNotFound) {
				return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown city", "city_id": cityID})
			}
			return false, c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
	}
	if _, err := h.Buses.GetByID(ctx, t.BusID); err != nil {
		if errors.Is(err, repository.ErrBusNotFound) {
			return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown bus", "bus_id": t.BusID})
		}
		return false, c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return true, nil
}

// CreateTrip handles POST /v1/admin/trips.
func (h *AdminHandler) CreateTrip(c echo.Context) error {
	var body tripBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.OriginCityID == nil || body.DestinationCityID == nil || body.BusID == nil ||
		body.DepartsAt == nil || body.ArrivesAt == nil || body.PriceCents == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "origin_city_id, destination_city_id, bus_id, departs_at, arrives_at and price_cents are required"})
	}
	trip := &model.Trip{
		OriginCityID:      *body.OriginCityID,
		DestinationCityID: *body.DestinationCityID,
		BusID:             *body.BusID,
		DepartsAt:         body.DepartsAt.UTC(),
		ArrivesAt:         body.ArrivesAt.UTC(),
		PriceCents:        *body.PriceCents,
		IsActive:          true,
	}
	if body.IsActive != nil {
		trip.IsActive = *body.IsActive
	}
	if ok, err := h.validateTripRefs(c, trip); !ok {
		return err
	}
	if err := h.Trips.Create(c.Request().Context(), trip); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create trip"})
	}
	return c.JSON(http.StatusCreated, trip)
}

// GetTrip handles GET /v1/admin/trips/:id and returns the raw record,
// inactive trips included.
func (h *AdminHandler) GetTrip(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	t, err := h.Trips.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrTripNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, t)
}

// UpdateTrip handles PUT /v1/admin/trips/:id. Omitted fields keep
// their stored values. Changing the price never rewrites totals of
// existing reservations; they keep the price they were booked at.
func (h *AdminHandler) UpdateTrip(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	trip, err := h.Trips.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTripNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	var body tripBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.OriginCityID != nil {
		trip.OriginCityID = *body.OriginCityID
	}
	if body.DestinationCityID != nil {
		trip.DestinationCityID = *body.DestinationCityID
	}
	if body.BusID != nil {
		trip.BusID = *body.BusID
	}
	if body.DepartsAt != nil {
		trip.DepartsAt = body.DepartsAt.UTC()
	}
	if body.ArrivesAt != nil {
		trip.ArrivesAt = body.ArrivesAt.UTC()
	}
	if body.PriceCents != nil {
		trip.PriceCents = *body.PriceCents
	}
	if body.IsActive != nil {
		trip.IsActive = *body.IsActive
	}
	if valid, err := h.validateTripRefs(c, trip); !valid {
		return err
	}
	if err := h.Trips.Update(ctx, trip); err != nil {
		if errors.Is(err, repository.ErrNoChange) {
			return c.JSON(http.StatusOK, trip)
		}
		if errors.Is(err, repository.ErrTripNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, trip)
}

// DeleteTrip handles DELETE /v1/admin/trips/:id. Refused while
// reservations exist for the trip.
func (h *AdminHandler) DeleteTrip(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Trips.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "trip has reservations"})
		}
		if errors.Is(err, repository.ErrTripNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
