package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bill is derived from exactly one reservation. It is created lazily when
// staff ask for it, at checkout, or by the billing sweep, and afterwards only
// the paid flag changes.
//
// Fields:
//
//	ID            – primary key identifier.
//	ReservationID – the reservation billed (unique).
//	Subtotal      – amount before discount.
//	DiscountPct   – subscriber discount applied (0 for non-subscribers).
//	Total         – amount due after discount.
//	Paid          – whether the bill has been settled.
//	PaidAt        – when the bill was settled.
//	CreatedAt     – creation timestamp.
type Bill struct {
	ID            uint64          // bills.id
	ReservationID uint64          // bills.reservation_id
	Subtotal      decimal.Decimal // bills.subtotal
	DiscountPct   int             // bills.discount_pct
	Total         decimal.Decimal // bills.total
	Paid          bool            // bills.paid
	PaidAt        *time.Time      // bills.paid_at (nullable)
	CreatedAt     time.Time       // bills.created_at
}
