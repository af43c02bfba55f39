package booking

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/repository"
)

// billingLookback bounds how far back the billing sweep looks for
// reservations that were never billed.
const billingLookback = 7 * 24 * time.Hour

// SweepReport counts what a sweep did. Failed items are logged and skipped.
type SweepReport struct {
	Processed int
	Failed    int
}

// candidates loads the ids a sweep will visit. Each one is re-read and
// re-checked inside its own serialized unit, so a stale candidate list only
// costs a skip.
func (e *Engine) candidates(ctx context.Context, op string, fn func(tx repository.Tx) ([]model.Reservation, error)) ([]model.Reservation, error) {
	var rs []model.Reservation
	err := e.read(ctx, op, func(tx repository.Tx) error {
		var err error
		rs, err = fn(tx)
		return err
	})
	return rs, err
}

func (e *Engine) isNoShow(r model.Reservation, now time.Time) bool {
	switch r.Status {
	case model.StatusActive, model.StatusNotified, model.StatusWaiting:
	default:
		return false
	}
	return r.CheckedInAt == nil && now.After(r.ScheduledAt.Add(e.opts.NoShowGrace))
}

// SweepNoShows cancels every reservation still unseated more than the grace
// period after its time, then runs the waitlist cascade once for the batch.
func (e *Engine) SweepNoShows(ctx context.Context) (SweepReport, error) {
	now := e.clock()
	rs, err := e.candidates(ctx, "no-show sweep", func(tx repository.Tx) ([]model.Reservation, error) {
		return tx.ReservationsByStatus(ctx, model.StatusActive, model.StatusNotified, model.StatusWaiting)
	})
	if err != nil {
		return SweepReport{}, err
	}
	var rep SweepReport
	for _, c := range rs {
		if !e.isNoShow(c, now) {
			continue
		}
		err := e.serialize(ctx, "no-show cancel", func(tx repository.Tx, out *outbox) error {
			r, err := tx.ReservationByID(ctx, c.ID)
			if err != nil {
				return err
			}
			if !e.isNoShow(r, now) {
				return nil
			}
			return e.cancelTx(ctx, tx, out, &r, false)
		})
		if err != nil {
			rep.Failed++
			e.log.WithError(err).WithField("reservation_id", c.ID).Warn("no-show cancel failed")
			continue
		}
		rep.Processed++
	}
	err = e.serialize(ctx, "no-show cascade", func(tx repository.Tx, out *outbox) error {
		_, err := e.promote(ctx, tx, out, 0)
		return err
	})
	if err != nil {
		return rep, err
	}
	e.logSweep("no-show", rep)
	return rep, nil
}

// SweepReminders emits one reminder per reservation whose time falls within
// the lookahead window and marks it sent.
func (e *Engine) SweepReminders(ctx context.Context) (SweepReport, error) {
	now := e.clock()
	end := now.Add(e.opts.ReminderLookahead + e.opts.ReminderTolerance)
	due := func(r model.Reservation) bool {
		return !r.ReminderSent &&
			(r.Status == model.StatusActive || r.Status == model.StatusNotified) &&
			r.ScheduledAt.After(now) && !r.ScheduledAt.After(end)
	}
	rs, err := e.candidates(ctx, "reminder sweep", func(tx repository.Tx) ([]model.Reservation, error) {
		return tx.ReservationsScheduledBetween(ctx, now, end.Add(time.Nanosecond),
			model.StatusActive, model.StatusNotified)
	})
	if err != nil {
		return SweepReport{}, err
	}
	var rep SweepReport
	for _, c := range rs {
		if !due(c) {
			continue
		}
		err := e.serialize(ctx, "reminder", func(tx repository.Tx, out *outbox) error {
			r, err := tx.ReservationByID(ctx, c.ID)
			if err != nil {
				return err
			}
			if !due(r) {
				return nil
			}
			r.ReminderSent = true
			r.UpdatedAt = now
			if err := tx.UpdateReservation(ctx, r, r.Status); err != nil {
				return err
			}
			out.add(NotifyReminder, r.ID)
			return nil
		})
		if err != nil {
			rep.Failed++
			e.log.WithError(err).WithField("reservation_id", c.ID).Warn("reminder failed")
			continue
		}
		rep.Processed++
	}
	e.logSweep("reminder", rep)
	return rep, nil
}

// SweepBilling bills reservations whose service is over but that have no
// bill yet, and emits a bill-ready notice for each.
func (e *Engine) SweepBilling(ctx context.Context) (SweepReport, error) {
	now := e.clock()
	due := func(r model.Reservation) bool {
		switch r.Status {
		case model.StatusCompleted:
			return true
		case model.StatusInProgress:
			return !now.Before(r.ScheduledAt.Add(e.opts.ServiceDuration))
		}
		return false
	}
	rs, err := e.candidates(ctx, "billing sweep", func(tx repository.Tx) ([]model.Reservation, error) {
		return tx.ReservationsScheduledBetween(ctx, now.Add(-billingLookback), now,
			model.StatusInProgress, model.StatusCompleted)
	})
	if err != nil {
		return SweepReport{}, err
	}
	var rep SweepReport
	for _, c := range rs {
		if !due(c) {
			continue
		}
		var created bool
		err := e.serialize(ctx, "bill", func(tx repository.Tx, out *outbox) error {
			r, err := tx.ReservationByID(ctx, c.ID)
			if err != nil {
				return err
			}
			if !due(r) {
				return nil
			}
			_, created, err = e.ensureBill(ctx, tx, r)
			if err != nil {
				return err
			}
			if created {
				out.add(NotifyBill, r.ID)
			}
			return nil
		})
		if err != nil {
			rep.Failed++
			e.log.WithError(err).WithField("reservation_id", c.ID).Warn("billing failed")
			continue
		}
		if created {
			rep.Processed++
		}
	}
	e.logSweep("billing", rep)
	return rep, nil
}

func (e *Engine) logSweep(name string, rep SweepReport) {
	if rep.Processed == 0 && rep.Failed == 0 {
		return
	}
	e.log.WithFields(logrus.Fields{
		"sweep":     name,
		"processed": rep.Processed,
		"failed":    rep.Failed,
	}).Info("sweep finished")
}
