package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/booking"
	"github.com/iliyamo/table-reservation/internal/model"
)

// statusFor maps engine failure kinds to HTTP statuses.
var statusFor = map[booking.Kind]int{
	booking.KindNotFound:            http.StatusNotFound,
	booking.KindInvalidTransition:   http.StatusConflict,
	booking.KindCapacityUnavailable: http.StatusConflict,
	booking.KindUnauthorized:        http.StatusForbidden,
	booking.KindCodeCollision:       http.StatusServiceUnavailable,
	booking.KindStoreFailure:        http.StatusInternalServerError,
	booking.KindInvalid:             http.StatusBadRequest,
}

// writeError renders an engine error as {"error": kind, "message": ...}.
// CapacityUnavailable also lists alternative times.
func writeError(c echo.Context, err error) error {
	var be *booking.Error
	if !errors.As(err, &be) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "unexpected error"})
	}
	status, ok := statusFor[be.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	body := echo.Map{"error": string(be.Kind), "message": be.Message}
	if be.Kind == booking.KindStoreFailure {
		body["message"] = "storage unavailable"
	}
	if be.Kind == booking.KindCapacityUnavailable {
		body["suggestions"] = be.Suggestions
	}
	return c.JSON(status, body)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_request", "message": msg})
}

// pathID parses the :id route parameter.
func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

type reservationResp struct {
	ID           uint64       `json:"id"`
	Code         string       `json:"code"`
	Status       model.Status `json:"status"`
	ScheduledAt  time.Time    `json:"scheduled_at"`
	PartySize    int          `json:"party_size"`
	TableID      *uint64      `json:"table_id,omitempty"`
	CustomerID   *uint64      `json:"customer_id,omitempty"`
	GuestName    string       `json:"guest_name,omitempty"`
	WalkIn       bool         `json:"walk_in"`
	ReminderSent bool         `json:"reminder_sent"`
	CheckedInAt  *time.Time   `json:"checked_in_at,omitempty"`
	CheckedOutAt *time.Time   `json:"checked_out_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

func toReservationResp(r model.Reservation) reservationResp {
	return reservationResp{
		ID:           r.ID,
		Code:         r.Code,
		Status:       r.Status,
		ScheduledAt:  r.ScheduledAt,
		PartySize:    r.PartySize,
		TableID:      r.TableID,
		CustomerID:   r.CustomerID,
		GuestName:    r.GuestName,
		WalkIn:       r.WalkIn,
		ReminderSent: r.ReminderSent,
		CheckedInAt:  r.CheckedInAt,
		CheckedOutAt: r.CheckedOutAt,
		CreatedAt:    r.CreatedAt,
	}
}

type billResp struct {
	ID            uint64     `json:"id"`
	ReservationID uint64     `json:"reservation_id"`
	Subtotal      string     `json:"subtotal"`
	DiscountPct   int        `json:"discount_pct"`
	Total         string     `json:"total"`
	Paid          bool       `json:"paid"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

func toBillResp(b model.Bill) billResp {
	return billResp{
		ID:            b.ID,
		ReservationID: b.ReservationID,
		Subtotal:      b.Subtotal.StringFixed(2),
		DiscountPct:   b.DiscountPct,
		Total:         b.Total.StringFixed(2),
		Paid:          b.Paid,
		PaidAt:        b.PaidAt,
	}
}
