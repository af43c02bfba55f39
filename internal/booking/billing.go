package booking

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/repository"
)

var hundred = decimal.NewFromInt(100)

// CalculateBill prices a party: party × rate, less the subscriber discount
// when it applies, rounded to cents.
func CalculateBill(party int, subscriber bool, rate decimal.Decimal, discountPct int) (subtotal decimal.Decimal, pct int, total decimal.Decimal) {
	subtotal = rate.Mul(decimal.NewFromInt(int64(party))).Round(2)
	if !subscriber || discountPct <= 0 {
		return subtotal, 0, subtotal
	}
	if discountPct > 100 {
		discountPct = 100
	}
	factor := hundred.Sub(decimal.NewFromInt(int64(discountPct))).Div(hundred)
	return subtotal, discountPct, subtotal.Mul(factor).Round(2)
}

func billable(s model.Status) bool {
	return s == model.StatusInProgress || s == model.StatusCompleted
}

// ensureBill returns the bill of r, creating it on first use. created
// reports whether this call inserted it.
func (e *Engine) ensureBill(ctx context.Context, tx repository.Tx, r model.Reservation) (b model.Bill, created bool, err error) {
	b, err = tx.BillByReservation(ctx, r.ID)
	if err == nil {
		return b, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return model.Bill{}, false, err
	}
	subscriber := false
	if r.CustomerID != nil {
		u, err := tx.UserByID(ctx, *r.CustomerID)
		switch {
		case err == nil:
			subscriber = u.Subscriber
		case !errors.Is(err, repository.ErrNotFound):
			return model.Bill{}, false, err
		}
	}
	b = model.Bill{ReservationID: r.ID, CreatedAt: e.clock()}
	b.Subtotal, b.DiscountPct, b.Total = CalculateBill(r.PartySize, subscriber, e.opts.PerGuestRate, e.opts.SubscriberDiscountPct)
	if err := tx.InsertBill(ctx, &b); err != nil {
		if errors.Is(err, repository.ErrDuplicateBill) {
			b, err = tx.BillByReservation(ctx, r.ID)
			return b, false, err
		}
		return model.Bill{}, false, err
	}
	return b, true, nil
}

// Bill returns the bill of a seated or completed reservation, computing it
// the first time it is asked for. Staff or the owning customer only.
func (e *Engine) Bill(ctx context.Context, sess Session, id uint64) (model.Bill, error) {
	if sess.IsAnonymous() {
		return model.Bill{}, unauthorized("sign in to view a bill")
	}
	var b model.Bill
	err := e.serialize(ctx, "bill reservation", func(tx repository.Tx, out *outbox) error {
		r, err := load(ctx, tx, sess, id)
		if err != nil {
			return err
		}
		if !billable(r.Status) {
			return &Error{Kind: KindInvalidTransition, Message: "reservation in state " + string(r.Status) + " has no bill"}
		}
		var created bool
		b, created, err = e.ensureBill(ctx, tx, r)
		if created {
			out.add(NotifyBill, r.ID)
		}
		return err
	})
	return b, err
}
