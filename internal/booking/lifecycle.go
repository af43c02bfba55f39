package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/repository"
)

// CreateRequest describes a new booking. Guest contact fields are required
// only when the booking is not made for a customer account.
type CreateRequest struct {
	ScheduledAt time.Time
	PartySize   int
	GuestName   string
	GuestPhone  string
	GuestEmail  string
	// WalkIn seats the party immediately when a table fits. Staff only.
	WalkIn bool
	// NoWaitlist fails with CapacityUnavailable instead of joining the
	// waitlist when no table fits.
	NoWaitlist bool
}

// CreateResult is the outcome of a successful Create. Suggestions are set
// when the reservation was waitlisted.
type CreateResult struct {
	Reservation model.Reservation
	Waitlisted  bool
	Suggestions []time.Time
}

// UpdateRequest changes the time and/or the party size of a booking.
type UpdateRequest struct {
	ScheduledAt *time.Time
	PartySize   *int
}

// CheckoutResult is the completed reservation and its paid bill.
type CheckoutResult struct {
	Reservation model.Reservation
	Bill        model.Bill
}

func (e *Engine) validateParty(n int) error {
	if n < 1 || (e.opts.MaxPartySize > 0 && n > e.opts.MaxPartySize) {
		return invalid("party size must be between 1 and %d", e.opts.MaxPartySize)
	}
	return nil
}

func (e *Engine) validateTime(at time.Time) error {
	if at.IsZero() {
		return invalid("scheduled time is required")
	}
	if at.Before(e.clock().Add(-e.opts.NoShowGrace)) {
		return invalid("scheduled time %s is in the past", at.Format(time.RFC3339))
	}
	return nil
}

// Create books a table, or joins the waitlist when none fits.
func (e *Engine) Create(ctx context.Context, sess Session, req CreateRequest) (CreateResult, error) {
	now := e.clock()
	if req.WalkIn {
		if !sess.IsStaff() {
			return CreateResult{}, unauthorized("walk-in bookings are staff only")
		}
		if req.ScheduledAt.IsZero() {
			req.ScheduledAt = now
		}
	}
	req.ScheduledAt = req.ScheduledAt.UTC().Truncate(time.Minute)
	if err := e.validateParty(req.PartySize); err != nil {
		return CreateResult{}, err
	}
	if err := e.validateTime(req.ScheduledAt); err != nil {
		return CreateResult{}, err
	}
	r := model.Reservation{
		PartySize:   req.PartySize,
		ScheduledAt: req.ScheduledAt,
		GuestName:   strings.TrimSpace(req.GuestName),
		GuestPhone:  strings.TrimSpace(req.GuestPhone),
		GuestEmail:  strings.TrimSpace(req.GuestEmail),
		WalkIn:      req.WalkIn,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if id, ok := sess.effectiveCustomer(); ok {
		r.CustomerID = &id
	} else if r.GuestName == "" || (!r.WalkIn && r.GuestPhone == "" && r.GuestEmail == "") {
		return CreateResult{}, invalid("guest bookings need a name and a phone or email")
	}

	var res CreateResult
	err := e.serialize(ctx, "create reservation", func(tx repository.Tx, out *outbox) error {
		if r.CustomerID != nil {
			if _, err := tx.UserByID(ctx, *r.CustomerID); errors.Is(err, repository.ErrNotFound) {
				return notFound("customer", *r.CustomerID)
			} else if err != nil {
				return err
			}
		}
		table, ok, err := e.oracle.FindTable(ctx, tx, r.ScheduledAt, r.PartySize, 0)
		if err != nil {
			return err
		}
		if ok {
			id := table.ID
			r.TableID = &id
			r.Status = model.StatusActive
		} else {
			suggestions, err := e.oracle.Suggest(ctx, tx, r.ScheduledAt, r.PartySize, 0,
				e.opts.SuggestionStep, e.opts.SuggestionProbes, now)
			if err != nil {
				return err
			}
			if req.NoWaitlist {
				return capacityUnavailable(suggestions)
			}
			r.Status = model.StatusWaiting
			res.Waitlisted = true
			res.Suggestions = suggestions
		}
		if err := e.insertWithCode(ctx, tx, &r); err != nil {
			return err
		}
		if r.WalkIn && r.Status == model.StatusActive {
			if err := e.checkInTx(ctx, tx, &r); err != nil {
				return err
			}
		}
		res.Reservation = r
		out.add(NotifyConfirmation, r.ID)
		return nil
	})
	if err != nil {
		return CreateResult{}, err
	}
	e.log.WithFields(logrus.Fields{
		"reservation_id": res.Reservation.ID,
		"status":         res.Reservation.Status,
	}).Info("reservation created")
	return res, nil
}

// load fetches a reservation and checks the caller may act on it.
func load(ctx context.Context, tx repository.Tx, sess Session, id uint64) (model.Reservation, error) {
	r, err := tx.ReservationByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Reservation{}, notFound("reservation", id)
	}
	if err != nil {
		return model.Reservation{}, err
	}
	if !sess.canAccess(r) {
		return model.Reservation{}, unauthorized("reservation belongs to another customer")
	}
	return r, nil
}

// apply moves r along a and writes it, conditioned on the state it was read in.
func (e *Engine) apply(ctx context.Context, tx repository.Tx, r *model.Reservation, a action) error {
	to, ok := nextStatus(r.Status, a)
	if !ok {
		return illegalTransition(r.Status, a)
	}
	from := r.Status
	r.Status = to
	r.UpdatedAt = e.clock()
	if err := tx.UpdateReservation(ctx, *r, from); err != nil {
		r.Status = from
		return err
	}
	return nil
}

// Update changes the time and/or party size of an ACTIVE reservation after
// checking that a table fits the new window. On failure nothing changes.
func (e *Engine) Update(ctx context.Context, sess Session, id uint64, req UpdateRequest) (model.Reservation, error) {
	if req.ScheduledAt == nil && req.PartySize == nil {
		return model.Reservation{}, invalid("nothing to update")
	}
	if req.PartySize != nil {
		if err := e.validateParty(*req.PartySize); err != nil {
			return model.Reservation{}, err
		}
	}
	if req.ScheduledAt != nil {
		at := req.ScheduledAt.UTC().Truncate(time.Minute)
		req.ScheduledAt = &at
		if err := e.validateTime(at); err != nil {
			return model.Reservation{}, err
		}
	}
	var updated model.Reservation
	err := e.serialize(ctx, "update reservation", func(tx repository.Tx, out *outbox) error {
		r, err := load(ctx, tx, sess, id)
		if err != nil {
			return err
		}
		if _, ok := nextStatus(r.Status, actionUpdate); !ok {
			return illegalTransition(r.Status, actionUpdate)
		}
		oldTable, oldAt := r.TableID, r.ScheduledAt
		if req.ScheduledAt != nil {
			r.ScheduledAt = *req.ScheduledAt
		}
		if req.PartySize != nil {
			r.PartySize = *req.PartySize
		}
		table, ok, err := e.oracle.FindTable(ctx, tx, r.ScheduledAt, r.PartySize, r.ID)
		if err != nil {
			return err
		}
		if !ok {
			suggestions, err := e.oracle.Suggest(ctx, tx, r.ScheduledAt, r.PartySize, r.ID,
				e.opts.SuggestionStep, e.opts.SuggestionProbes, e.clock())
			if err != nil {
				return err
			}
			return capacityUnavailable(suggestions)
		}
		tid := table.ID
		r.TableID = &tid
		if !r.ScheduledAt.Equal(oldAt) {
			r.ReminderSent = false
		}
		if err := e.apply(ctx, tx, &r, actionUpdate); err != nil {
			return err
		}
		updated = r
		if oldTable != nil && (*oldTable != tid || !oldAt.Equal(r.ScheduledAt)) {
			hint := 0
			if t, err := tx.TableByID(ctx, *oldTable); err == nil {
				hint = t.Capacity
			}
			if _, err := e.promote(ctx, tx, out, hint); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return model.Reservation{}, err
	}
	return updated, nil
}

// Cancel cancels a reservation by id. Anonymous callers must use
// CancelByCode.
func (e *Engine) Cancel(ctx context.Context, sess Session, id uint64) (model.Reservation, error) {
	if sess.IsAnonymous() {
		return model.Reservation{}, unauthorized("sign in or cancel with the confirmation code")
	}
	var canceled model.Reservation
	err := e.serialize(ctx, "cancel reservation", func(tx repository.Tx, out *outbox) error {
		r, err := load(ctx, tx, sess, id)
		if err != nil {
			return err
		}
		if err := e.cancelTx(ctx, tx, out, &r, true); err != nil {
			return err
		}
		canceled = r
		return nil
	})
	return canceled, err
}

// CancelByCode cancels the live reservation carrying code. Knowing the
// code is the guest's proof of ownership.
func (e *Engine) CancelByCode(ctx context.Context, code string) (model.Reservation, error) {
	var canceled model.Reservation
	err := e.serialize(ctx, "cancel reservation", func(tx repository.Tx, out *outbox) error {
		r, err := tx.ReservationByCode(ctx, code)
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("confirmation code", code)
		}
		if err != nil {
			return err
		}
		if err := e.cancelTx(ctx, tx, out, &r, true); err != nil {
			return err
		}
		canceled = r
		return nil
	})
	return canceled, err
}

// cancelTx cancels r and, when it held a table and cascade is set, promotes
// the waitlist into the freed capacity.
func (e *Engine) cancelTx(ctx context.Context, tx repository.Tx, out *outbox, r *model.Reservation, cascade bool) error {
	held := r.Status.HoldsTable() && r.TableID != nil
	if err := e.apply(ctx, tx, r, actionCancel); err != nil {
		return err
	}
	out.add(NotifyCancellation, r.ID)
	if !held || !cascade {
		return nil
	}
	hint := 0
	if t, err := tx.TableByID(ctx, *r.TableID); err == nil {
		hint = t.Capacity
	}
	_, err := e.promote(ctx, tx, out, hint)
	return err
}

// CheckIn seats the party. Staff only.
func (e *Engine) CheckIn(ctx context.Context, sess Session, id uint64) (model.Reservation, error) {
	if !sess.IsStaff() {
		return model.Reservation{}, unauthorized("check-in is staff only")
	}
	var seated model.Reservation
	err := e.serialize(ctx, "check in reservation", func(tx repository.Tx, out *outbox) error {
		r, err := load(ctx, tx, sess, id)
		if err != nil {
			return err
		}
		if err := e.checkInTx(ctx, tx, &r); err != nil {
			return err
		}
		seated = r
		return nil
	})
	return seated, err
}

// checkInTx confirms the held table, or allocates one for a booking that
// has none, and moves r to IN_PROGRESS.
func (e *Engine) checkInTx(ctx context.Context, tx repository.Tx, r *model.Reservation) error {
	if _, ok := nextStatus(r.Status, actionCheckIn); !ok {
		return illegalTransition(r.Status, actionCheckIn)
	}
	// The table is only held from ScheduledAt, so seating earlier would
	// overlap whoever holds it before then.
	if opens := r.ScheduledAt.Add(-e.opts.EarlyCheckIn); !r.WalkIn && e.clock().Before(opens) {
		return &Error{
			Kind:    KindInvalidTransition,
			Message: fmt.Sprintf("check-in opens at %s", opens.Format(time.RFC3339)),
		}
	}
	if r.TableID == nil {
		table, ok, err := e.oracle.FindTable(ctx, tx, r.ScheduledAt, r.PartySize, r.ID)
		if err != nil {
			return err
		}
		if !ok {
			return capacityUnavailable(nil)
		}
		tid := table.ID
		r.TableID = &tid
	}
	now := e.clock()
	r.CheckedInAt = &now
	if err := e.apply(ctx, tx, r, actionCheckIn); err != nil {
		r.CheckedInAt = nil
		return err
	}
	return nil
}

// Checkout completes a seated reservation, settles its bill and hands the
// freed table to the waitlist. Staff only.
func (e *Engine) Checkout(ctx context.Context, sess Session, id uint64) (CheckoutResult, error) {
	if !sess.IsStaff() {
		return CheckoutResult{}, unauthorized("checkout is staff only")
	}
	var res CheckoutResult
	err := e.serialize(ctx, "checkout reservation", func(tx repository.Tx, out *outbox) error {
		r, err := load(ctx, tx, sess, id)
		if err != nil {
			return err
		}
		now := e.clock()
		r.CheckedOutAt = &now
		if err := e.apply(ctx, tx, &r, actionCheckOut); err != nil {
			return err
		}
		bill, created, err := e.ensureBill(ctx, tx, r)
		if err != nil {
			return err
		}
		if created {
			out.add(NotifyBill, r.ID)
		}
		if !bill.Paid {
			if err := tx.MarkBillPaid(ctx, bill.ID, now); err != nil {
				return err
			}
			bill.Paid = true
			bill.PaidAt = &now
		}
		res = CheckoutResult{Reservation: r, Bill: bill}
		hint := 0
		if r.TableID != nil {
			if t, err := tx.TableByID(ctx, *r.TableID); err == nil {
				hint = t.Capacity
			}
		}
		_, err = e.promote(ctx, tx, out, hint)
		return err
	})
	return res, err
}

// Get returns a reservation the caller may see.
func (e *Engine) Get(ctx context.Context, sess Session, id uint64) (model.Reservation, error) {
	if sess.IsAnonymous() {
		return model.Reservation{}, unauthorized("sign in or look up by confirmation code")
	}
	var r model.Reservation
	err := e.read(ctx, "get reservation", func(tx repository.Tx) error {
		var err error
		r, err = load(ctx, tx, sess, id)
		return err
	})
	return r, err
}

// GetByCode looks a reservation up by its confirmation code.
func (e *Engine) GetByCode(ctx context.Context, code string) (model.Reservation, error) {
	var r model.Reservation
	err := e.read(ctx, "get reservation by code", func(tx repository.Tx) error {
		var err error
		r, err = tx.ReservationByCode(ctx, code)
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("confirmation code", code)
		}
		return err
	})
	return r, err
}

// ListForCustomer returns the bookings of the calling customer, or of the
// customer a staff member acts for.
func (e *Engine) ListForCustomer(ctx context.Context, sess Session) ([]model.Reservation, error) {
	customerID, ok := sess.effectiveCustomer()
	if !ok {
		return nil, unauthorized("no customer in session")
	}
	var rs []model.Reservation
	err := e.read(ctx, "list reservations", func(tx repository.Tx) error {
		var err error
		rs, err = tx.ReservationsByCustomer(ctx, customerID)
		return err
	})
	return rs, err
}

// Availability reports free tables per capacity class for the service
// window starting at at.
func (e *Engine) Availability(ctx context.Context, at time.Time) ([]model.SizeClass, error) {
	var out []model.SizeClass
	err := e.read(ctx, "availability", func(tx repository.Tx) error {
		var err error
		out, err = e.oracle.Availability(ctx, tx, at.UTC())
		return err
	})
	return out, err
}
