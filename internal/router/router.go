// Package router wires HTTP routes to handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/handler"
	"github.com/iliyamo/table-reservation/internal/middleware"
	"github.com/iliyamo/table-reservation/internal/model"
)

// RegisterRoutes registers the unauthenticated health check. A nil db
// reports healthy without pinging anything.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.NewHealthHandler(db).Health)
}

// RegisterAuth registers registration, login and the current-account
// endpoint.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)

	e.GET("/v1/me", a.Me,
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer, model.RoleHost, model.RoleManager),
	)
}

// RegisterPublic registers the endpoints guests reach without an account:
// the floor plan, availability, booking, and lookup or cancellation by
// confirmation code. The code endpoints sit behind the rate limiter and the
// floor plan behind the response cache.
func RegisterPublic(e *echo.Echo, t *handler.TableHandler, r *handler.ReservationHandler, jwtSecret string, rateLimit, cache echo.MiddlewareFunc) {
	g := e.Group("/v1")
	g.GET("/tables", t.List, cache)
	g.GET("/availability", t.Availability)

	// Signed-in callers book for their own account; guests give contact details.
	g.POST("/reservations", r.Create, middleware.OptionalJWT(jwtSecret))

	g.GET("/reservations/code/:code", r.GetByCode, rateLimit)
	g.DELETE("/reservations/code/:code", r.CancelByCode, rateLimit)
}
