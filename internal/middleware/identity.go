package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/booking"
)

const sessionKey = "session"

// Session returns the caller's booking session as stored by JWTAuth or
// OptionalJWT. Requests that passed through neither are anonymous.
func Session(c echo.Context) booking.Session {
	if s, ok := c.Get(sessionKey).(booking.Session); ok {
		return s
	}
	return booking.Anonymous()
}

// userID returns the authenticated subject, or "anon".
func userID(c echo.Context) string {
	if s, ok := c.Get("user_id").(string); ok && s != "" {
		return s
	}
	return "anon"
}
