package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-reservation/internal/booking"
	"github.com/iliyamo/bus-reservation/internal/repository"
)

// reservationBody carries the full reservation state for
// administrative create and update. Unlike the customer surface,
// admins may set any field except the immutable booking code.
type reservationBody struct {
	UserID          uint64     `json:"user_id"`
	TripID          uint64     `json:"trip_id"`
	SeatCount       uint32     `json:"seat_count"`
	TotalPriceCents *uint64    `json:"total_price_cents"`
	Status          string     `json:"status"`
	ReservedAt      *time.Time `json:"reserved_at"`
	CancelledAt     *time.Time `json:"cancelled_at"`
}

// parseTimeParam accepts RFC3339 or a bare date for range filters.
func parseTimeParam(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		u := t.UTC()
		return &u
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		u := t.UTC()
		return &u
	}
	return nil
}

// SearchReservations handles GET /v1/admin/reservations. All filters
// combine with AND; results are newest first, 15 per page.
func (h *AdminHandler) SearchReservations(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	userID, _ := strconv.ParseUint(c.QueryParam("user_id"), 10, 64)
	tripID, _ := strconv.ParseUint(c.QueryParam("trip_id"), 10, 64)

	f := repository.ReservationFilter{
		Code:     strings.TrimSpace(c.QueryParam("code")),
		Status:   strings.TrimSpace(c.QueryParam("status")),
		UserID:   userID,
		TripID:   tripID,
		From:     parseTimeParam(c.QueryParam("from")),
		To:       parseTimeParam(c.QueryParam("to")),
		Upcoming: strings.EqualFold(strings.TrimSpace(c.QueryParam("time")), "upcoming"),
		Page:     page,
	}

	items, total, err := h.Reservations.Search(c.Request().Context(), f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database_error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data":      items,
		"total":     total,
		"page":      page,
		"page_size": repository.ReservationPageSize,
	})
}

// CreateReservation handles POST /v1/admin/reservations. It creates a
// reservation on behalf of any user, optionally backdated or already
// cancelled. Confirmed creations go through the same capacity check as
// customer bookings.
func (h *AdminHandler) CreateReservation(c echo.Context) error {
	var body reservationBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	res, err := h.Engine.Create(c.Request().Context(), booking.CreateInput{
		UserID:          body.UserID,
		TripID:          body.TripID,
		SeatCount:       body.SeatCount,
		TotalPriceCents: body.TotalPriceCents,
		Status:          strings.ToUpper(strings.TrimSpace(body.Status)),
		ReservedAt:      body.ReservedAt,
		CancelledAt:     body.CancelledAt,
	})
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// UpdateReservation handles PUT /v1/admin/reservations/:id. The body
// is the full target state; the engine re-validates capacity when the
// trip, the seat count or a reactivation makes it necessary.
func (h *AdminHandler) UpdateReservation(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var body reservationBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	res, err := h.Engine.Update(c.Request().Context(), id, booking.UpdateInput{
		UserID:          body.UserID,
		TripID:          body.TripID,
		SeatCount:       body.SeatCount,
		TotalPriceCents: body.TotalPriceCents,
		Status:          strings.ToUpper(strings.TrimSpace(body.Status)),
		ReservedAt:      body.ReservedAt,
		CancelledAt:     body.CancelledAt,
	})
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// DeleteReservation handles DELETE /v1/admin/reservations/:id: a hard
// delete of the reservation and its seat rows.
func (h *AdminHandler) DeleteReservation(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	if err := h.Engine.Delete(c.Request().Context(), id); err != nil {
		return bookingError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
