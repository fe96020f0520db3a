package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-reservation/internal/booking"
	"github.com/iliyamo/bus-reservation/internal/repository"
)

// PublicHandler serves unauthenticated browsing: trip search, trip
// detail and live seat availability. It aggregates the trip read side
// and the engine for availability numbers; responses expose only
// fields safe for anonymous consumption.
type PublicHandler struct {
	Trips  *repository.TripRepo
	Engine *booking.Engine
}

func NewPublicHandler(trips *repository.TripRepo, engine *booking.Engine) *PublicHandler {
	if trips == nil || engine == nil {
		panic("nil dependency passed to NewPublicHandler")
	}
	return &PublicHandler{Trips: trips, Engine: engine}
}

// SearchTrips handles GET /v1/trips/search.
// time: "upcoming" (default) or "any" (no departure cutoff).
func (h *PublicHandler) SearchTrips(c echo.Context) error {
	origin := strings.TrimSpace(c.QueryParam("origin"))
	destination := strings.TrimSpace(c.QueryParam("destination"))
	date := strings.TrimSpace(c.QueryParam("date"))
	timeFilter := strings.ToLower(strings.TrimSpace(c.QueryParam("time")))
	if timeFilter == "" {
		timeFilter = "upcoming"
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	ps, _ := strconv.Atoi(c.QueryParam("page_size"))
	if ps < 1 {
		ps = 20
	}
	if ps > 100 {
		ps = 100
	}

	q := repository.TripSearchQuery{
		Origin:      origin,
		Destination: destination,
		Date:        date,
		TimeFilter:  timeFilter,
		Page:        page,
		PageSize:    ps,
	}

	items, total, err := h.Trips.Search(c.Request().Context(), q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":   "database_error",
			"message": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data":      items,
		"total":     total,
		"page":      page,
		"page_size": ps,
	})
}

// GetTrip handles GET /v1/trips/:id and returns the raw trip record.
func (h *PublicHandler) GetTrip(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
	}
	t, err := h.Trips.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrTripNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, t)
}

// TripAvailability handles GET /v1/trips/:id/availability. The number
// it reports is a snapshot; the engine re-validates at booking time, so
// a successful read never guarantees a later confirmation.
func (h *PublicHandler) TripAvailability(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
	}
	avail, err := h.Engine.AvailableSeats(c.Request().Context(), id, 0)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"trip_id":         id,
		"available_seats": avail,
	})
}
