package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-reservation/internal/model"
	"github.com/iliyamo/bus-reservation/internal/repository"
)

type busBody struct {
	Plate    string  `json:"plate"`
	Class    string  `json:"class"`
	Capacity *uint32 `json:"capacity"`
	IsActive *bool   `json:"is_active"`
}

// CreateBus handles POST /v1/admin/buses. Capacity must be positive;
// it is what the engine enforces confirmed seats against.
func (h *AdminHandler) CreateBus(c echo.Context) error {
	var body busBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	plate := strings.ToUpper(strings.TrimSpace(body.Plate))
	if plate == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "plate is required"})
	}
	if body.Capacity == nil || *body.Capacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "capacity must be positive"})
	}
	bus := &model.Bus{
		Plate:    plate,
		Class:    strings.TrimSpace(body.Class),
		Capacity: *body.Capacity,
		IsActive: true,
	}
	if body.IsActive != nil {
		bus.IsActive = *body.IsActive
	}
	if err := h.Buses.Create(c.Request().Context(), bus); err != nil {
		if errors.Is(err, repository.ErrPlateExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "plate already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create bus"})
	}
	return c.JSON(http.StatusCreated, bus)
}

// ListBuses handles GET /v1/admin/buses.
func (h *AdminHandler) ListBuses(c echo.Context) error {
	items, err := h.Buses.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// UpdateBus handles PUT /v1/admin/buses/:id. Shrinking capacity below
// the seats already confirmed on its trips is allowed; those trips
// simply report zero availability until cancellations catch up.
func (h *AdminHandler) UpdateBus(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	bus, err := h.Buses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBusNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "bus not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	var body busBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if plate := strings.ToUpper(strings.TrimSpace(body.Plate)); plate != "" {
		bus.Plate = plate
	}
	if class := strings.TrimSpace(body.Class); class != "" {
		bus.Class = class
	}
	if body.Capacity != nil {
		if *body.Capacity == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "capacity must be positive"})
		}
		bus.Capacity = *body.Capacity
	}
	if body.IsActive != nil {
		bus.IsActive = *body.IsActive
	}
	if err := h.Buses.Update(ctx, bus); err != nil {
		if errors.Is(err, repository.ErrPlateExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "plate already exists"})
		}
		if errors.Is(err, repository.ErrBusNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "bus not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, bus)
}

// DeleteBus handles DELETE /v1/admin/buses/:id. Refused while trips
// still reference the bus.
func (h *AdminHandler) DeleteBus(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Buses.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "bus has trips"})
		}
		if errors.Is(err, repository.ErrBusNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "bus not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
