package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/booking"
	"github.com/iliyamo/table-reservation/internal/model"
)

// TableLister lists the floor plan.
type TableLister interface {
	Tables(ctx context.Context) ([]model.Table, error)
}

// TableHandler serves the floor plan and availability endpoints.
type TableHandler struct {
	Tables TableLister
	Engine *booking.Engine
}

func NewTableHandler(t TableLister, e *booking.Engine) *TableHandler {
	return &TableHandler{Tables: t, Engine: e}
}

type tableResp struct {
	ID       uint64 `json:"id"`
	Number   int    `json:"number"`
	Capacity int    `json:"capacity"`
}

// List returns every table ordered by number.
func (h *TableHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	tables, err := h.Tables.Tables(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store_failure", "message": "list tables failed"})
	}
	out := make([]tableResp, 0, len(tables))
	for _, t := range tables {
		out = append(out, tableResp{ID: t.ID, Number: t.Number, Capacity: t.Capacity})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Availability reports free tables per capacity for the service window
// starting at ?at= (RFC 3339).
func (h *TableHandler) Availability(c echo.Context) error {
	raw := c.QueryParam("at")
	if raw == "" {
		return badRequest(c, "query parameter at is required")
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return badRequest(c, "at must be an RFC 3339 time")
	}
	classes, err := h.Engine.Availability(c.Request().Context(), at)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"at": at.UTC(), "classes": classes})
}
