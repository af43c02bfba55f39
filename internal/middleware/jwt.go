package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/booking"
	"github.com/iliyamo/table-reservation/internal/model"
)

// OnBehalfOfHeader lets a staff member act for a customer. It is ignored
// for every other caller.
const OnBehalfOfHeader = "X-On-Behalf-Of"

// JWTAuth returns an Echo middleware that requires a valid Bearer access
// token. It stores the caller's booking.Session under "session" and the raw
// subject and role under "user_id" and "role" for RequireRole and the rate
// limiter.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			if err := authenticate(c, secret, strings.TrimPrefix(auth, "Bearer ")); err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
			}
			return next(c)
		}
	}
}

// OptionalJWT is JWTAuth for routes that anonymous guests may also call.
// Without an Authorization header the request continues as anonymous; a
// header carrying a bad token is still rejected.
func OptionalJWT(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if auth == "" {
				c.Set(sessionKey, booking.Anonymous())
				return next(c)
			}
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			if err := authenticate(c, secret, strings.TrimPrefix(auth, "Bearer ")); err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
			}
			return next(c)
		}
	}
}

type authError string

func (e authError) Error() string { return string(e) }

func authenticate(c echo.Context, secret, raw string) error {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.ErrUnauthorized
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return authError("invalid token")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return authError("invalid claims")
	}
	sub, ok := claimID(claims["sub"])
	if !ok {
		return authError("invalid subject")
	}
	role, _ := claims["role"].(string)

	var sess booking.Session
	switch {
	case model.IsStaffRole(role):
		sess = booking.Staff(role)
		if h := c.Request().Header.Get(OnBehalfOfHeader); h != "" {
			id, err := strconv.ParseUint(h, 10, 64)
			if err != nil || id == 0 {
				return authError("invalid " + OnBehalfOfHeader + " header")
			}
			sess = sess.ActingFor(id)
		}
	case role == model.RoleCustomer:
		sess = booking.Customer(sub)
	default:
		return authError("unknown role")
	}

	c.Set(sessionKey, sess)
	c.Set("user_id", strconv.FormatUint(sub, 10))
	c.Set("role", role)
	return nil
}

// claimID reads a numeric subject claim. JSON numbers decode as float64;
// string subjects are accepted as well.
func claimID(v interface{}) (uint64, bool) {
	switch t := v.(type) {
	case float64:
		if t <= 0 || t != float64(uint64(t)) {
			return 0, false
		}
		return uint64(t), true
	case string:
		id, err := strconv.ParseUint(t, 10, 64)
		return id, err == nil && id > 0
	}
	return 0, false
}
