package booking

import (
	"context"
	"sort"
	"time"

	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/repository"
)

// Oracle answers capacity questions. A reservation occupies its table for
// [ScheduledAt, ScheduledAt+Duration); two such windows overlap exactly when
// their starts are less than Duration apart. Callers must query the oracle
// inside the same transaction that writes the resulting assignment.
type Oracle struct {
	Duration time.Duration
}

// busyTables returns the tables held during the window starting at start,
// ignoring the reservation with id exclude.
func (o Oracle) busyTables(ctx context.Context, tx repository.Tx, start time.Time, exclude uint64) (map[uint64]bool, error) {
	holders, err := tx.ReservationsScheduledBetween(ctx, start.Add(-o.Duration), start.Add(o.Duration), model.HoldingStatuses...)
	if err != nil {
		return nil, err
	}
	busy := make(map[uint64]bool, len(holders))
	for _, r := range holders {
		if r.ID == exclude || r.TableID == nil {
			continue
		}
		busy[*r.TableID] = true
	}
	return busy, nil
}

// FindTable picks a free table for party guests during the window starting
// at start: the smallest capacity that fits, then the lowest table number.
func (o Oracle) FindTable(ctx context.Context, tx repository.Tx, start time.Time, party int, exclude uint64) (model.Table, bool, error) {
	tables, err := tx.Tables(ctx)
	if err != nil {
		return model.Table{}, false, err
	}
	busy, err := o.busyTables(ctx, tx, start, exclude)
	if err != nil {
		return model.Table{}, false, err
	}
	sort.Slice(tables, func(i, j int) bool {
		if tables[i].Capacity != tables[j].Capacity {
			return tables[i].Capacity < tables[j].Capacity
		}
		return tables[i].Number < tables[j].Number
	})
	for _, t := range tables {
		if t.Capacity >= party && !busy[t.ID] {
			return t, true, nil
		}
	}
	return model.Table{}, false, nil
}

// Availability reports, per capacity class, how many tables exist and how
// many are free during the window starting at start.
func (o Oracle) Availability(ctx context.Context, tx repository.Tx, start time.Time) ([]model.SizeClass, error) {
	counts, err := tx.TableCountsBySize(ctx)
	if err != nil {
		return nil, err
	}
	tables, err := tx.Tables(ctx)
	if err != nil {
		return nil, err
	}
	busy, err := o.busyTables(ctx, tx, start, 0)
	if err != nil {
		return nil, err
	}
	held := make(map[int]int)
	for _, t := range tables {
		if busy[t.ID] {
			held[t.Capacity]++
		}
	}
	out := make([]model.SizeClass, 0, len(counts))
	for capacity, total := range counts {
		out = append(out, model.SizeClass{Capacity: capacity, Total: total, Free: total - held[capacity]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Capacity < out[j].Capacity })
	return out, nil
}

// Suggest probes start ± k·step for k = 1..probes and returns the times at
// which a table fits, nearest first (earlier first on equal distance).
// Times before notBefore are skipped.
func (o Oracle) Suggest(ctx context.Context, tx repository.Tx, start time.Time, party int, exclude uint64,
	step time.Duration, probes int, notBefore time.Time) ([]time.Time, error) {
	if step <= 0 || probes <= 0 {
		return nil, nil
	}
	var out []time.Time
	for k := 1; k <= probes; k++ {
		for _, at := range []time.Time{start.Add(-time.Duration(k) * step), start.Add(time.Duration(k) * step)} {
			if at.Before(notBefore) {
				continue
			}
			_, ok, err := o.FindTable(ctx, tx, at, party, exclude)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, at)
			}
		}
	}
	return out, nil
}
