package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-reservation/internal/booking"
)

func newTestContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestBookingErrorValidation(t *testing.T) {
	c, rec := newTestContext(t)
	err := bookingError(c, &booking.ValidationError{Field: "seat_count", Reason: "must be positive"})
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["field"] != "seat_count" {
		t.Fatalf("field = %v, want seat_count", body["field"])
	}
}

func TestBookingErrorInsufficientSeats(t *testing.T) {
	c, rec := newTestContext(t)
	if err := bookingError(c, &booking.InsufficientSeatsError{Requested: 4, Available: 1}); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["requested"] != float64(4) || body["available"] != float64(1) {
		t.Fatalf("body = %v, want requested=4 available=1", body)
	}
}

func TestBookingErrorNotFound(t *testing.T) {
	for _, sentinel := range []error{booking.ErrTripNotFound, booking.ErrReservationNotFound} {
		c, rec := newTestContext(t)
		if err := bookingError(c, sentinel); err != nil {
			t.Fatalf("handler returned error: %v", err)
		}
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%v: status = %d, want 404", sentinel, rec.Code)
		}
	}
}

func TestBookingErrorCodeExhausted(t *testing.T) {
	c, rec := newTestContext(t)
	if err := bookingError(c, booking.ErrCodeExhausted); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestParseTimeParam(t *testing.T) {
	if got := parseTimeParam(""); got != nil {
		t.Fatalf("empty input parsed to %v", got)
	}
	if got := parseTimeParam("not-a-time"); got != nil {
		t.Fatalf("garbage input parsed to %v", got)
	}
	rfc := parseTimeParam("2025-03-01T10:30:00Z")
	if rfc == nil || rfc.Hour() != 10 || rfc.Minute() != 30 {
		t.Fatalf("RFC3339 parse = %v", rfc)
	}
	day := parseTimeParam("2025-03-01")
	if day == nil || !day.Equal(rfc.Truncate(24*time.Hour)) {
		t.Fatalf("date parse = %v", day)
	}
}
