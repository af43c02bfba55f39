package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/handler"
	"github.com/iliyamo/table-reservation/internal/middleware"
	"github.com/iliyamo/table-reservation/internal/model"
)

// RegisterStaff registers floor operations under /v1/staff. All routes
// require a staff role.
func RegisterStaff(e *echo.Echo, s *handler.StaffHandler, jwtSecret string) {
	staff := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.StaffRoles...),
	}
	g := e.Group("/v1/staff")
	g.POST("/reservations/:id/check-in", s.CheckIn, staff...)
	g.POST("/reservations/:id/checkout", s.Checkout, staff...)
	g.POST("/walk-ins", s.WalkIn, staff...)
	g.POST("/waitlist/promote", s.PromoteWaitlist, staff...)
}
