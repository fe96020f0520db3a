// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-reservation/internal/handler"
	"github.com/iliyamo/bus-reservation/internal/middleware"
)

// RegisterRoutes registers routes that never require authentication.
func RegisterRoutes(e *echo.Echo) {
	// Liveness endpoint for load balancers and monitoring.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication surface. Unauthenticated
// token operations live under /v1/auth; /v1/me requires a valid access
// token with any known role.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotating refresh: revokes the presented token, returns a new pair.
	g.POST("/refresh", a.Refresh)
	// Non-rotating variant: fresh access token, same refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("ADMIN", "CUSTOMER"))
	auth.GET("/me", a.Me)

	// Logout also works outside the auth group so a client holding only
	// a refresh token can terminate its session.
	e.POST("/v1/logout", a.Logout)
}

// RegisterPublic registers unauthenticated browsing: trip search, trip
// detail and live availability. No JWT or role middleware applies.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler) {
	e.GET("/v1/trips/search", p.SearchTrips)
	e.GET("/v1/trips/:id", p.GetTrip)
	e.GET("/v1/trips/:id/availability", p.TripAvailability)
}

// RegisterCustomer registers the booking surface. Admins may also book
// on their own behalf; ownership of individual reservations is
// enforced inside the handlers.
func RegisterCustomer(e *echo.Echo, h *handler.CustomerHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("CUSTOMER", "ADMIN"),
	)
	g.POST("/trips/:id/reservations", h.CreateReservation)
	g.GET("/my-reservations", h.ListMyReservations)
	g.GET("/reservations/:id", h.GetReservation)
	g.POST("/reservations/:id/cancel", h.CancelReservation)
}

// RegisterAdmin registers the administrative surface under
// /v1/admin: catalog CRUD for cities, buses and trips plus full
// reservation management. All routes require the ADMIN role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)

	// ---- Cities ----
	g.POST("/cities", a.CreateCity)
	g.GET("/cities", a.ListCities)
	g.PUT("/cities/:id", a.UpdateCity)
	g.PATCH("/cities/:id", a.UpdateCity)
	g.DELETE("/cities/:id", a.DeleteCity)

	// ---- Buses ----
	g.POST("/buses", a.CreateBus)
	g.GET("/buses", a.ListBuses)
	g.PUT("/buses/:id", a.UpdateBus)
	g.PATCH("/buses/:id", a.UpdateBus)
	g.DELETE("/buses/:id", a.DeleteBus)

	// ---- Trips ----
	g.POST("/trips", a.CreateTrip)
	g.GET("/trips/:id", a.GetTrip)
	g.PUT("/trips/:id", a.UpdateTrip)
	g.PATCH("/trips/:id", a.UpdateTrip)
	g.DELETE("/trips/:id", a.DeleteTrip)

	// ---- Reservations ----
	g.GET("/reservations", a.SearchReservations)
	g.POST("/reservations", a.CreateReservation)
	g.PUT("/reservations/:id", a.UpdateReservation)
	g.DELETE("/reservations/:id", a.DeleteReservation)
}
