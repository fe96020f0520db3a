package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-reservation/internal/booking"
	"github.com/iliyamo/bus-reservation/internal/queue"
	"github.com/iliyamo/bus-reservation/internal/repository"
	queue_publisher "github.com/iliyamo/bus-reservation/internal/service"
)

// CustomerHandler serves the booking surface for authenticated
// customers. All writes go through the engine; the reservation
// repository is used only for reads and ownership checks. Methods
// assume JWT authentication and role validation already ran in
// middleware.
type CustomerHandler struct {
	Engine       *booking.Engine
	Reservations *repository.ReservationRepo
}

// NewCustomerHandler constructs a CustomerHandler. Both dependencies
// must be non-nil.
func NewCustomerHandler(engine *booking.Engine, reservations *repository.ReservationRepo) *CustomerHandler {
	if engine == nil || reservations == nil {
		panic("nil dependency passed to NewCustomerHandler")
	}
	return &CustomerHandler{Engine: engine, Reservations: reservations}
}

// CreateReservation handles POST /v1/trips/:id/reservations. The body
// carries only the seat count; user and trip come from the token and
// the path. On success it returns 201 with the reservation including
// its booking code.
func (h *CustomerHandler) CreateReservation(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	tripID, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
	}
	var body struct {
		SeatCount uint32 `json:"seat_count"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx := c.Request().Context()
	res, err := h.Engine.Create(ctx, booking.CreateInput{
		UserID:    userID,
		TripID:    tripID,
		SeatCount: body.SeatCount,
	})
	if err != nil {
		return bookingError(c, err)
	}

	h.publishConfirmed(res.ID)

	return c.JSON(http.StatusCreated, echo.Map{
		"id":                res.ID,
		"code":              res.Code,
		"trip_id":           res.TripID,
		"seat_count":        res.SeatCount,
		"total_price_cents": res.TotalPriceCents,
		"status":            res.Status,
		"reserved_at":       res.ReservedAt,
	})
}

// ListMyReservations handles GET /v1/my-reservations and returns every
// reservation of the caller, newest first.
func (h *CustomerHandler) ListMyReservations(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	details, err := h.Reservations.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": details})
}

// GetReservation handles GET /v1/reservations/:id. 404 when the
// reservation does not exist, 403 when it belongs to someone else.
func (h *CustomerHandler) GetReservation(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resID, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	detail, err := h.Reservations.GetByIDForUser(c.Request().Context(), resID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		if errors.Is(err, repository.ErrForbidden) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch reservation"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": detail})
}

// CancelReservation handles POST /v1/reservations/:id/cancel. The
// caller must own the reservation. Cancelling an already cancelled
// reservation succeeds and changes nothing.
func (h *CustomerHandler) CancelReservation(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resID, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}

	ctx := c.Request().Context()
	owner, err := h.Reservations.OwnerUserID(ctx, resID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if owner != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	res, err := h.Engine.Cancel(ctx, resID, time.Now().UTC())
	if err != nil {
		return bookingError(c, err)
	}

	h.publishCancelled(res.ID)

	return c.JSON(http.StatusOK, echo.Map{
		"id":           res.ID,
		"code":         res.Code,
		"status":       res.Status,
		"cancelled_at": res.CancelledAt,
	})
}

// publishConfirmed loads the reservation detail and emits a confirmed
// event in the background. Publishing is best effort; a broker outage
// never fails the booking.
func (h *CustomerHandler) publishConfirmed(reservationID uint64) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		d, err := h.Reservations.GetByID(ctx, reservationID)
		if err != nil {
			return
		}
		_ = queue_publisher.PublishReservationConfirmed(ctx, queue.ReservationConfirmedEvent{
			ReservationID:   d.ID,
			Code:            d.Code,
			UserID:          d.UserID,
			TripID:          d.TripID,
			Origin:          d.Origin,
			Destination:     d.Destination,
			DepartsAt:       d.DepartsAt.UTC().Format(time.RFC3339),
			SeatCount:       d.SeatCount,
			TotalPriceCents: d.TotalPriceCents,
			ConfirmedAt:     time.Now().UTC().Format(time.RFC3339),
		})
	}()
}

// publishCancelled mirrors publishConfirmed for cancellations.
func (h *CustomerHandler) publishCancelled(reservationID uint64) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		d, err := h.Reservations.GetByID(ctx, reservationID)
		if err != nil {
			return
		}
		ev := queue.ReservationCancelledEvent{
			ReservationID: d.ID,
			Code:          d.Code,
			UserID:        d.UserID,
			TripID:        d.TripID,
			Origin:        d.Origin,
			Destination:   d.Destination,
			DepartsAt:     d.DepartsAt.UTC().Format(time.RFC3339),
			SeatCount:     d.SeatCount,
		}
		if d.CancelledAt != nil {
			ev.CancelledAt = d.CancelledAt.UTC().Format(time.RFC3339)
		}
		_ = queue_publisher.PublishReservationCancelled(ctx, ev)
	}()
}
