package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/table-reservation/internal/model"
)

var t0 = time.Date(2026, time.March, 14, 19, 0, 0, 0, time.UTC)

func newTestStore() *MemoryStore {
	return NewMemoryStore([]model.Table{{Number: 2, Capacity: 4}, {Number: 1, Capacity: 2}, {Number: 3, Capacity: 4}})
}

func insert(t *testing.T, s *MemoryStore, r model.Reservation) model.Reservation {
	t.Helper()
	require.NoError(t, s.WithTx(context.Background(), func(tx Tx) error {
		return tx.InsertReservation(context.Background(), &r)
	}))
	return r
}

func TestTablesSortedByNumber(t *testing.T) {
	s := newTestStore()
	tables, err := s.Tables(context.Background())
	require.NoError(t, err)
	require.Len(t, tables, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{tables[0].Number, tables[1].Number, tables[2].Number})

	var counts map[int]int
	require.NoError(t, s.WithTx(context.Background(), func(tx Tx) error {
		counts, err = tx.TableCountsBySize(context.Background())
		return err
	}))
	assert.Equal(t, map[int]int{2: 1, 4: 2}, counts)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := newTestStore()
	boom := errors.New("boom")
	err := s.WithTx(context.Background(), func(tx Tx) error {
		r := model.Reservation{Code: "111111", Status: model.StatusActive, ScheduledAt: t0, PartySize: 2}
		if err := tx.InsertReservation(context.Background(), &r); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	r := insert(t, s, model.Reservation{Code: "111111", Status: model.StatusActive, ScheduledAt: t0, PartySize: 2})
	assert.EqualValues(t, 1, r.ID, "rolled back insert must not consume an id")
}

func TestWithTxHonoursCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := newTestStore().WithTx(ctx, func(Tx) error { called = true; return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestDuplicateCodeOnlyAgainstLiveReservations(t *testing.T) {
	s := newTestStore()
	first := insert(t, s, model.Reservation{Code: "123456", Status: model.StatusActive, ScheduledAt: t0, PartySize: 2})

	err := s.WithTx(context.Background(), func(tx Tx) error {
		r := model.Reservation{Code: "123456", Status: model.StatusWaiting, ScheduledAt: t0, PartySize: 2}
		return tx.InsertReservation(context.Background(), &r)
	})
	assert.ErrorIs(t, err, ErrDuplicateCode)

	first.Status = model.StatusCanceled
	require.NoError(t, s.WithTx(context.Background(), func(tx Tx) error {
		return tx.UpdateReservation(context.Background(), first, model.StatusActive)
	}))
	second := insert(t, s, model.Reservation{Code: "123456", Status: model.StatusWaiting, ScheduledAt: t0, PartySize: 2})

	require.NoError(t, s.WithTx(context.Background(), func(tx Tx) error {
		got, err := tx.ReservationByCode(context.Background(), "123456")
		require.NoError(t, err)
		assert.Equal(t, second.ID, got.ID, "live reservation wins over the canceled one")
		_, err = tx.ReservationByCode(context.Background(), "000000")
		assert.ErrorIs(t, err, ErrNotFound)
		return nil
	}))
}

func TestUpdateReservationChecksExpectedStatus(t *testing.T) {
	s := newTestStore()
	r := insert(t, s, model.Reservation{Code: "222222", Status: model.StatusActive, ScheduledAt: t0, PartySize: 2})

	r.Status = model.StatusInProgress
	err := s.WithTx(context.Background(), func(tx Tx) error {
		return tx.UpdateReservation(context.Background(), r, model.StatusWaiting)
	})
	assert.ErrorIs(t, err, ErrStaleState)

	r.Code = "999999"
	require.NoError(t, s.WithTx(context.Background(), func(tx Tx) error {
		return tx.UpdateReservation(context.Background(), r, model.StatusActive)
	}))
	require.NoError(t, s.WithTx(context.Background(), func(tx Tx) error {
		got, err := tx.ReservationByID(context.Background(), r.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusInProgress, got.Status)
		assert.Equal(t, "222222", got.Code, "code is immutable")

		missing := model.Reservation{ID: 99}
		assert.ErrorIs(t, tx.UpdateReservation(context.Background(), missing, model.StatusActive), ErrNotFound)
		return nil
	}))
}

func TestQueriesFilterAndOrder(t *testing.T) {
	s := newTestStore()
	late := insert(t, s, model.Reservation{Code: "300001", Status: model.StatusWaiting, ScheduledAt: t0, PartySize: 2, CreatedAt: t0.Add(-time.Hour)})
	early := insert(t, s, model.Reservation{Code: "300002", Status: model.StatusWaiting, ScheduledAt: t0.Add(time.Hour), PartySize: 2, CreatedAt: t0.Add(-2 * time.Hour)})
	active := insert(t, s, model.Reservation{Code: "300003", Status: model.StatusActive, ScheduledAt: t0.Add(2 * time.Hour), PartySize: 2})

	require.NoError(t, s.WithTx(context.Background(), func(tx Tx) error {
		ctx := context.Background()
		waiting, err := tx.ReservationsByStatus(ctx, model.StatusWaiting)
		require.NoError(t, err)
		require.Len(t, waiting, 2)
		assert.Equal(t, []uint64{early.ID, late.ID}, []uint64{waiting[0].ID, waiting[1].ID}, "oldest first")

		between, err := tx.ReservationsScheduledBetween(ctx, t0, t0.Add(2*time.Hour))
		require.NoError(t, err)
		require.Len(t, between, 1, "both bounds exclusive")
		assert.Equal(t, early.ID, between[0].ID)

		between, err = tx.ReservationsScheduledBetween(ctx, t0.Add(-time.Minute), t0.Add(3*time.Hour), model.StatusActive)
		require.NoError(t, err)
		require.Len(t, between, 1)
		assert.Equal(t, active.ID, between[0].ID)
		return nil
	}))
}

func TestReservationsByCustomerNewestFirst(t *testing.T) {
	s := newTestStore()
	cust := uint64(7)
	other := uint64(8)
	a := insert(t, s, model.Reservation{Code: "400001", Status: model.StatusActive, ScheduledAt: t0, PartySize: 2, CustomerID: &cust})
	insert(t, s, model.Reservation{Code: "400002", Status: model.StatusActive, ScheduledAt: t0, PartySize: 2, CustomerID: &other})
	b := insert(t, s, model.Reservation{Code: "400003", Status: model.StatusWaiting, ScheduledAt: t0, PartySize: 2, CustomerID: &cust})

	require.NoError(t, s.WithTx(context.Background(), func(tx Tx) error {
		rs, err := tx.ReservationsByCustomer(context.Background(), cust)
		require.NoError(t, err)
		require.Len(t, rs, 2)
		assert.Equal(t, []uint64{b.ID, a.ID}, []uint64{rs[0].ID, rs[1].ID})
		return nil
	}))
}

func TestBillsOnePerReservation(t *testing.T) {
	s := newTestStore()
	paidAt := t0.Add(2 * time.Hour)
	require.NoError(t, s.WithTx(context.Background(), func(tx Tx) error {
		ctx := context.Background()
		b := model.Bill{ReservationID: 5, Subtotal: decimal.NewFromInt(50), Total: decimal.NewFromInt(45), DiscountPct: 10}
		require.NoError(t, tx.InsertBill(ctx, &b))
		assert.NotZero(t, b.ID)

		dup := model.Bill{ReservationID: 5}
		assert.ErrorIs(t, tx.InsertBill(ctx, &dup), ErrDuplicateBill)

		require.NoError(t, tx.MarkBillPaid(ctx, b.ID, paidAt))
		got, err := tx.BillByReservation(ctx, 5)
		require.NoError(t, err)
		assert.True(t, got.Paid)
		require.NotNil(t, got.PaidAt)
		assert.True(t, got.PaidAt.Equal(paidAt))

		_, err = tx.BillByReservation(ctx, 6)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, tx.MarkBillPaid(ctx, 99, paidAt), ErrNotFound)
		return nil
	}))
}

func TestUsersUniqueByNormalizedEmail(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	u := model.User{Email: "  Grace@Example.COM ", Role: model.RoleCustomer, Subscriber: true}
	require.NoError(t, s.CreateUser(ctx, &u))
	assert.Equal(t, "grace@example.com", u.Email)

	dup := model.User{Email: "grace@example.com"}
	assert.ErrorIs(t, s.CreateUser(ctx, &dup), ErrEmailExists)

	got, err := s.UserByEmail(ctx, "GRACE@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	require.NoError(t, s.WithTx(ctx, func(tx Tx) error {
		byID, err := tx.UserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.True(t, byID.Subscriber)
		return nil
	}))

	_, err = s.UserByID(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWithReadTxRejectsWrites(t *testing.T) {
	s := newTestStore()
	r := insert(t, s, model.Reservation{Code: "500001", Status: model.StatusActive, ScheduledAt: t0, PartySize: 2})
	ctx := context.Background()

	require.NoError(t, s.WithReadTx(ctx, func(tx Tx) error {
		got, err := tx.ReservationByID(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, "500001", got.Code)

		fresh := model.Reservation{Code: "500002", Status: model.StatusActive, ScheduledAt: t0, PartySize: 2}
		assert.ErrorIs(t, tx.InsertReservation(ctx, &fresh), ErrReadOnly)
		changed := got
		changed.Status = model.StatusCanceled
		assert.ErrorIs(t, tx.UpdateReservation(ctx, changed, model.StatusActive), ErrReadOnly)
		b := model.Bill{ReservationID: r.ID}
		assert.ErrorIs(t, tx.InsertBill(ctx, &b), ErrReadOnly)
		assert.ErrorIs(t, tx.MarkBillPaid(ctx, 1, t0), ErrReadOnly)
		return nil
	}))

	require.NoError(t, s.WithTx(ctx, func(tx Tx) error {
		got, err := tx.ReservationByID(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusActive, got.Status, "read-only transaction left the row untouched")
		return nil
	}))

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, s.WithReadTx(cctx, func(Tx) error { return nil }), context.Canceled)
}
