package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/booking"
	"github.com/iliyamo/table-reservation/internal/middleware"
)

// ReservationHandler serves the guest- and customer-facing reservation
// endpoints.
type ReservationHandler struct {
	Engine *booking.Engine
}

func NewReservationHandler(e *booking.Engine) *ReservationHandler {
	if e == nil {
		panic("nil engine passed to NewReservationHandler")
	}
	return &ReservationHandler{Engine: e}
}

type createReq struct {
	ScheduledAt time.Time `json:"scheduled_at"`
	PartySize   int       `json:"party_size"`
	GuestName   string    `json:"guest_name"`
	GuestPhone  string    `json:"guest_phone"`
	GuestEmail  string    `json:"guest_email"`
	NoWaitlist  bool      `json:"no_waitlist"`
}

type createResp struct {
	Reservation reservationResp `json:"reservation"`
	Waitlisted  bool            `json:"waitlisted"`
	Suggestions []time.Time     `json:"suggestions,omitempty"`
}

// Create books a table or joins the waitlist. 201 when booked, 202 when
// waitlisted.
func (h *ReservationHandler) Create(c echo.Context) error {
	var req createReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	res, err := h.Engine.Create(c.Request().Context(), middleware.Session(c), booking.CreateRequest{
		ScheduledAt: req.ScheduledAt,
		PartySize:   req.PartySize,
		GuestName:   req.GuestName,
		GuestPhone:  req.GuestPhone,
		GuestEmail:  req.GuestEmail,
		NoWaitlist:  req.NoWaitlist,
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

// Get returns one reservation of the caller (any reservation for staff).
func (h *ReservationHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	r, err := h.Engine.Get(c.Request().Context(), middleware.Session(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResp(r))
}

// ListMine returns the caller's reservations, newest first.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	rs, err := h.Engine.ListForCustomer(c.Request().Context(), middleware.Session(c))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]reservationResp, 0, len(rs))
	for _, r := range rs {
		out = append(out, toReservationResp(r))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

type updateReq struct {
	ScheduledAt *time.Time `json:"scheduled_at"`
	PartySize   *int       `json:"party_size"`
}

// Update moves a booked reservation and/or changes its party size.
func (h *ReservationHandler) Update(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	var req updateReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	r, err := h.Engine.Update(c.Request().Context(), middleware.Session(c), id, booking.UpdateRequest{
		ScheduledAt: req.ScheduledAt,
		PartySize:   req.PartySize,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResp(r))
}

// Cancel cancels a reservation by id.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	r, err := h.Engine.Cancel(c.Request().Context(), middleware.Session(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResp(r))
}

// GetByCode looks a reservation up by confirmation code without a session.
func (h *ReservationHandler) GetByCode(c echo.Context) error {
	r, err := h.Engine.GetByCode(c.Request().Context(), c.Param("code"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResp(r))
}

// CancelByCode cancels the live reservation carrying the code.
func (h *ReservationHandler) CancelByCode(c echo.Context) error {
	r, err := h.Engine.CancelByCode(c.Request().Context(), c.Param("code"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResp(r))
}
