package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/booking"
	"github.com/iliyamo/table-reservation/internal/middleware"
)

// StaffHandler serves the floor operations: seating, checkout, bills,
// walk-ins and manual waitlist promotion.
type StaffHandler struct {
	Engine *booking.Engine
}

func NewStaffHandler(e *booking.Engine) *StaffHandler {
	if e == nil {
		panic("nil engine passed to NewStaffHandler")
	}
	return &StaffHandler{Engine: e}
}

// CheckIn seats the party of a reservation.
func (h *StaffHandler) CheckIn(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	r, err := h.Engine.CheckIn(c.Request().Context(), middleware.Session(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResp(r))
}

// Checkout completes a seated reservation and settles its bill.
func (h *StaffHandler) Checkout(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	res, err := h.Engine.Checkout(c.Request().Context(), middleware.Session(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"reservation": toReservationResp(res.Reservation),
		"bill":        toBillResp(res.Bill),
	})
}

// Bill returns (and on first call computes) the bill of a reservation.
// Customers reach it too, for their own reservations.
func (h *StaffHandler) Bill(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	b, err := h.Engine.Bill(c.Request().Context(), middleware.Session(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toBillResp(b))
}

type walkInReq struct {
	PartySize   int       `json:"party_size"`
	GuestName   string    `json:"guest_name"`
	GuestPhone  string    `json:"guest_phone"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

// WalkIn books and seats a party at the door. When nothing is free the
// party joins the waitlist (202).
func (h *StaffHandler) WalkIn(c echo.Context) error {
	var req walkInReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	res, err := h.Engine.Create(c.Request().Context(), middleware.Session(c), booking.CreateRequest{
		ScheduledAt: req.ScheduledAt,
		PartySize:   req.PartySize,
		GuestName:   req.GuestName,
		GuestPhone:  req.GuestPhone,
		WalkIn:      true,
	})
	if err != nil {
		return writeError(c, err)
	}
	status := http.StatusCreated
	if res.Waitlisted {
		status = http.StatusAccepted
	}
	return c.JSON(status, createResp{
		Reservation: toReservationResp(res.Reservation),
		Waitlisted:  res.Waitlisted,
		Suggestions: res.Suggestions,
	})
}

// PromoteWaitlist runs the waitlist cascade now.
func (h *StaffHandler) PromoteWaitlist(c echo.Context) error {
	n, err := h.Engine.PromoteWaitlist(c.Request().Context(), middleware.Session(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"promoted": n})
}
