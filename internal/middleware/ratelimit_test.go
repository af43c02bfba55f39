package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/table-reservation/internal/config"
)

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/v1/reservations/code/123456", nil)
	req.Header.Set(echo.HeaderXRealIP, "203.0.113.9")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/reservations/code/:code")

	cfg := config.RateLimitConfig{Prefix: "rl"}
	cases := map[string]string{
		"ip":       "rl:ip:203.0.113.9",
		"route":    "rl:route:DELETE /v1/reservations/code/:code",
		"ip_user":  "rl:ip:203.0.113.9:user:anon",
		"ip_route": "rl:ip:203.0.113.9:route:DELETE /v1/reservations/code/:code",
		"":         "rl:ip:203.0.113.9:user:anon:route:DELETE /v1/reservations/code/:code",
	}
	for strategy, want := range cases {
		cfg.KeyStrategy = strategy
		assert.Equal(t, want, buildRateKey(cfg, c), strategy)
	}

	c.Set("user_id", "7")
	cfg.KeyStrategy = "ip_user"
	assert.Equal(t, "rl:ip:203.0.113.9:user:7", buildRateKey(cfg, c))
}

func TestRedisMiddlewaresPassThroughWithoutRedis(t *testing.T) {
	called := 0
	h := func(c echo.Context) error { called++; return c.NoContent(http.StatusOK) }
	for _, mw := range []echo.MiddlewareFunc{
		NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, nil),
		NewRedisCache(config.CacheConfig{Enabled: true}, nil),
	} {
		rec := httptest.NewRecorder()
		c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/v1/tables", nil), rec)
		assert.NoError(t, mw(h)(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 2, called)
}
