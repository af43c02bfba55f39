package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func health(t *testing.T, db Pinger) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/healthz", nil), rec)
	require.NoError(t, NewHealthHandler(db).Health(c))
	return rec
}

func TestHealthPingsDatabase(t *testing.T) {
	calls := 0
	rec := health(t, pingFunc(func(ctx context.Context) error {
		calls++
		_, ok := ctx.Deadline()
		assert.True(t, ok, "ping runs under a deadline")
		return nil
	}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.Equal(t, 1, calls)
}

func TestHealthReportsDatabaseDown(t *testing.T) {
	rec := health(t, pingFunc(func(context.Context) error { return errors.New("connection refused") }))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "database unavailable")
}

func TestHealthWithoutDatabase(t *testing.T) {
	rec := health(t, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
