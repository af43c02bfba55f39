package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/handler"
	"github.com/iliyamo/table-reservation/internal/middleware"
	"github.com/iliyamo/table-reservation/internal/model"
)

// RegisterCustomer registers the signed-in reservation endpoints. Customers
// reach their own reservations; staff reach any, and may act for a customer
// through the X-On-Behalf-Of header.
func RegisterCustomer(e *echo.Echo, r *handler.ReservationHandler, s *handler.StaffHandler, jwtSecret string) {
	auth := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer, model.RoleHost, model.RoleManager),
	}
	g := e.Group("/v1")
	g.GET("/reservations", r.ListMine, auth...)
	g.GET("/reservations/:id", r.Get, auth...)
	g.PATCH("/reservations/:id", r.Update, auth...)
	g.DELETE("/reservations/:id", r.Cancel, auth...)
	g.GET("/reservations/:id/bill", s.Bill, auth...)
}
