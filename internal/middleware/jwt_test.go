package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/table-reservation/internal/booking"
	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/utils"
)

const secret = "mw-secret"

func token(t *testing.T, id uint64, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, id, role, false, time.Hour)
	require.NoError(t, err)
	return tok.Token
}

// run passes a request through mw and reports the status and the session
// the handler saw.
func run(t *testing.T, mw echo.MiddlewareFunc, headers map[string]string) (int, booking.Session) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen booking.Session
	err := mw(func(c echo.Context) error {
		seen = Session(c)
		return c.NoContent(http.StatusOK)
	})(c)
	require.NoError(t, err)
	return rec.Code, seen
}

func TestJWTAuthSessions(t *testing.T) {
	code, sess := run(t, JWTAuth(secret), map[string]string{"Authorization": "Bearer " + token(t, 7, model.RoleCustomer)})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, booking.Customer(7), sess)

	code, sess = run(t, JWTAuth(secret), map[string]string{"Authorization": "Bearer " + token(t, 1, model.RoleHost)})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, booking.Staff(model.RoleHost), sess)
}

func TestJWTAuthOnBehalfOf(t *testing.T) {
	code, sess := run(t, JWTAuth(secret), map[string]string{
		"Authorization":  "Bearer " + token(t, 1, model.RoleManager),
		OnBehalfOfHeader: "42",
	})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, booking.Staff(model.RoleManager).ActingFor(42), sess)

	// Customers cannot act for someone else; the header is ignored.
	code, sess = run(t, JWTAuth(secret), map[string]string{
		"Authorization":  "Bearer " + token(t, 7, model.RoleCustomer),
		OnBehalfOfHeader: "42",
	})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, booking.Customer(7), sess)

	code, _ = run(t, JWTAuth(secret), map[string]string{
		"Authorization":  "Bearer " + token(t, 1, model.RoleHost),
		OnBehalfOfHeader: "nobody",
	})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestJWTAuthRejects(t *testing.T) {
	cases := map[string]map[string]string{
		"missing":      {},
		"not bearer":   {"Authorization": "Basic abc"},
		"garbage":      {"Authorization": "Bearer not-a-jwt"},
		"wrong secret": {"Authorization": "Bearer " + signed(t, jwt.MapClaims{"sub": 1, "role": model.RoleCustomer}, "other")},
		"unknown role": {"Authorization": "Bearer " + token(t, 1, "ADMIN")},
		"no subject":   {"Authorization": "Bearer " + signed(t, jwt.MapClaims{"role": model.RoleCustomer}, secret)},
		"expired": {"Authorization": "Bearer " + signed(t, jwt.MapClaims{
			"sub": 1, "role": model.RoleCustomer, "exp": time.Now().Add(-time.Minute).Unix(),
		}, secret)},
	}
	for name, h := range cases {
		code, _ := run(t, JWTAuth(secret), h)
		assert.Equal(t, http.StatusUnauthorized, code, name)
	}
}

func signed(t *testing.T, claims jwt.MapClaims, key string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return s
}

func TestOptionalJWT(t *testing.T) {
	code, sess := run(t, OptionalJWT(secret), nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, sess.IsAnonymous())

	code, sess = run(t, OptionalJWT(secret), map[string]string{"Authorization": "Bearer " + token(t, 3, model.RoleCustomer)})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, booking.Customer(3), sess)

	code, _ = run(t, OptionalJWT(secret), map[string]string{"Authorization": "Bearer broken"})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRequireRole(t *testing.T) {
	chain := func(next echo.MiddlewareFunc) echo.MiddlewareFunc {
		return func(h echo.HandlerFunc) echo.HandlerFunc { return JWTAuth(secret)(next(h)) }
	}
	staffOnly := chain(RequireRole(model.StaffRoles...))

	code, _ := run(t, staffOnly, map[string]string{"Authorization": "Bearer " + token(t, 1, model.RoleHost)})
	assert.Equal(t, http.StatusOK, code)
	code, _ = run(t, staffOnly, map[string]string{"Authorization": "Bearer " + token(t, 7, model.RoleCustomer)})
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = run(t, RequireRole(model.RoleHost), nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestClaimID(t *testing.T) {
	id, ok := claimID(float64(12))
	assert.True(t, ok)
	assert.EqualValues(t, 12, id)
	id, ok = claimID("34")
	assert.True(t, ok)
	assert.EqualValues(t, 34, id)
	for _, v := range []interface{}{float64(0), float64(1.5), "-1", "x", nil, true} {
		_, ok := claimID(v)
		assert.False(t, ok, "%v", v)
	}
}
