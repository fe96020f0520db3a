package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-reservation/internal/booking"
)

// getUserID extracts the user_id set by the JWT middleware and converts
// it to uint64. JWT numeric claims arrive as float64 or string
// depending on the issuer, so all plausible shapes are accepted.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses the :id path parameter, rejecting zero and garbage.
func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// bookingError maps booking engine failures to HTTP responses.  The
// mapping is shared by every handler that invokes the engine so a
// capacity rejection always carries the same body shape.
func bookingError(c echo.Context, err error) error {
	var vErr *booking.ValidationError
	if errors.As(err, &vErr) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": vErr.Error(), "field": vErr.Field})
	}
	var seatErr *booking.InsufficientSeatsError
	if errors.As(err, &seatErr) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     "not enough seats available",
			"requested": seatErr.Requested,
			"available": seatErr.Available,
		})
	}
	switch {
	case errors.Is(err, booking.ErrTripNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found or inactive"})
	case errors.Is(err, booking.ErrReservationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	case errors.Is(err, booking.ErrCodeExhausted):
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not allocate booking code"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}
