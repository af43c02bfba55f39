package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/repository"
)

func TestNextStatus(t *testing.T) {
	all := []model.Status{
		model.StatusActive, model.StatusWaiting, model.StatusNotified,
		model.StatusInProgress, model.StatusCompleted, model.StatusCanceled,
	}
	legal := map[model.Status]map[action]model.Status{
		model.StatusActive: {
			actionUpdate:  model.StatusActive,
			actionCheckIn: model.StatusInProgress,
			actionCancel:  model.StatusCanceled,
		},
		model.StatusWaiting: {
			actionPromote: model.StatusNotified,
			actionCancel:  model.StatusCanceled,
		},
		model.StatusNotified: {
			actionCheckIn: model.StatusInProgress,
			actionCancel:  model.StatusCanceled,
		},
		model.StatusInProgress: {
			actionCheckOut: model.StatusCompleted,
		},
	}
	actions := []action{actionUpdate, actionCancel, actionPromote, actionCheckIn, actionCheckOut}
	for _, from := range all {
		for _, a := range actions {
			to, ok := nextStatus(from, a)
			want, wantOK := legal[from][a]
			assert.Equal(t, wantOK, ok, "%s --%s-->", from, a)
			assert.Equal(t, want, to, "%s --%s-->", from, a)
		}
	}
}

func TestSuggestOrdersByDistance(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore([]model.Table{{Number: 1, Capacity: 2}})
	o := Oracle{Duration: 2 * time.Hour}
	base := time.Date(2026, time.March, 14, 19, 0, 0, 0, time.UTC)

	err := store.WithTx(ctx, func(tx repository.Tx) error {
		busy := model.Reservation{Code: "100001", PartySize: 2, ScheduledAt: base.Add(-30 * time.Minute), Status: model.StatusActive}
		id := uint64(1)
		busy.TableID = &id
		require.NoError(t, tx.InsertReservation(ctx, &busy))

		got, err := o.Suggest(ctx, tx, base, 2, 0, 30*time.Minute, 4, base.Add(-3*time.Hour))
		require.NoError(t, err)
		// 18:30 ± 2h blocks 16:31..20:29; 21:00 is the only probe beyond it.
		assert.Equal(t, []time.Time{base.Add(90 * time.Minute), base.Add(2 * time.Hour)}, got)

		got, err = o.Suggest(ctx, tx, base, 2, 0, 30*time.Minute, 4, base.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, []time.Time{base.Add(90 * time.Minute), base.Add(2 * time.Hour)}, got)

		got, err = o.Suggest(ctx, tx, base, 3, 0, 30*time.Minute, 4, base)
		require.NoError(t, err)
		assert.Empty(t, got)
		return nil
	})
	require.NoError(t, err)
}

func TestFindTableExcludesSelf(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore([]model.Table{{Number: 1, Capacity: 4}})
	o := Oracle{Duration: 2 * time.Hour}
	when := time.Date(2026, time.March, 14, 19, 0, 0, 0, time.UTC)

	err := store.WithTx(ctx, func(tx repository.Tx) error {
		tid := uint64(1)
		r := model.Reservation{Code: "100002", PartySize: 4, ScheduledAt: when, Status: model.StatusActive, TableID: &tid}
		require.NoError(t, tx.InsertReservation(ctx, &r))

		_, ok, err := o.FindTable(ctx, tx, when.Add(time.Hour), 2, 0)
		require.NoError(t, err)
		assert.False(t, ok)

		table, ok, err := o.FindTable(ctx, tx, when.Add(time.Hour), 2, r.ID)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, tid, table.ID)
		return nil
	})
	require.NoError(t, err)
}
