package booking

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/repository"
)

// promote walks the waitlist oldest first and moves every entry that now fits
// a free table to NOTIFIED. When hint is positive the first pass only looks
// at parties of at most hint guests; later passes consider every size, so the
// hint never decides correctness. It must run inside serialize.
func (e *Engine) promote(ctx context.Context, tx repository.Tx, out *outbox, hint int) (int, error) {
	promoted := 0
	for {
		r, table, ok, err := e.nextPromotable(ctx, tx, hint)
		if err != nil {
			return promoted, err
		}
		if !ok {
			if hint > 0 {
				hint = 0
				continue
			}
			return promoted, nil
		}
		tid := table.ID
		r.TableID = &tid
		if err := e.apply(ctx, tx, &r, actionPromote); err != nil {
			return promoted, err
		}
		out.add(NotifyTableAvailable, r.ID)
		promoted++
		hint = 0
		e.log.WithFields(logrus.Fields{
			"reservation_id": r.ID,
			"table_id":       tid,
		}).Info("waitlist entry promoted")
	}
}

// nextPromotable returns the oldest waiting entry that fits a free table for
// its own window. Entries already past the no-show grace are skipped; the
// no-show sweep retires them.
func (e *Engine) nextPromotable(ctx context.Context, tx repository.Tx, hint int) (model.Reservation, model.Table, bool, error) {
	waiting, err := tx.ReservationsByStatus(ctx, model.StatusWaiting)
	if err != nil {
		return model.Reservation{}, model.Table{}, false, err
	}
	now := e.clock()
	for _, r := range waiting {
		if hint > 0 && r.PartySize > hint {
			continue
		}
		if now.After(r.ScheduledAt.Add(e.opts.NoShowGrace)) {
			continue
		}
		table, ok, err := e.oracle.FindTable(ctx, tx, r.ScheduledAt, r.PartySize, r.ID)
		if err != nil {
			return model.Reservation{}, model.Table{}, false, err
		}
		if ok {
			return r, table, true, nil
		}
	}
	return model.Reservation{}, model.Table{}, false, nil
}

// PromoteWaitlist runs the cascade on demand and reports how many entries
// were promoted. Staff only.
func (e *Engine) PromoteWaitlist(ctx context.Context, sess Session) (int, error) {
	if !sess.IsStaff() {
		return 0, unauthorized("waitlist promotion is staff only")
	}
	var n int
	err := e.serialize(ctx, "promote waitlist", func(tx repository.Tx, out *outbox) error {
		var err error
		n, err = e.promote(ctx, tx, out, 0)
		return err
	})
	return n, err
}
