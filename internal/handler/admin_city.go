package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-reservation/internal/model"
	"github.com/iliyamo/bus-reservation/internal/repository"
)

type cityBody struct {
	Name     string `json:"name"`
	IsActive *bool  `json:"is_active"`
}

// CreateCity handles POST /v1/admin/cities.
func (h *AdminHandler) CreateCity(c echo.Context) error {
	var body cityBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	city := &model.City{Name: name, IsActive: true}
	if body.IsActive != nil {
		city.IsActive = *body.IsActive
	}
	if err := h.Cities.Create(c.Request().Context(), city); err != nil {
		if errors.Is(err, repository.ErrCityExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "city already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create city"})
	}
	return c.JSON(http.StatusCreated, city)
}

// ListCities handles GET /v1/admin/cities.
func (h *AdminHandler) ListCities(c echo.Context) error {
	items, err := h.Cities.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// UpdateCity handles PUT /v1/admin/cities/:id.
func (h *AdminHandler) UpdateCity(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	city, err := h.Cities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCityNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "city not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	var body cityBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if name := strings.TrimSpace(body.Name); name != "" {
		city.Name = name
	}
	if body.IsActive != nil {
		city.IsActive = *body.IsActive
	}
	if err := h.Cities.Update(ctx, city); err != nil {
		if errors.Is(err, repository.ErrCityExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "city already exists"})
		}
		if errors.Is(err, repository.ErrCityNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "city not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, city)
}

// DeleteCity handles DELETE /v1/admin/cities/:id. Deletion is refused
// while trips reference the city.
func (h *AdminHandler) DeleteCity(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Cities.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "city has trips"})
		}
		if errors.Is(err, repository.ErrCityNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "city not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
