package booking_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/table-reservation/internal/booking"
	"github.com/iliyamo/table-reservation/internal/logging"
	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/repository"
)

// evening is 19:00 on the day every engine test runs.
var evening = time.Date(2026, time.March, 14, 19, 0, 0, 0, time.UTC)

func at(hh, mm int) time.Time {
	return time.Date(2026, time.March, 14, hh, mm, 0, 0, time.UTC)
}

var staff = booking.Staff(model.RoleHost)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recorder struct {
	mu  sync.Mutex
	got []booking.Notification
}

func (r *recorder) Notify(_ context.Context, n booking.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
	return nil
}

func (r *recorder) kinds(id uint64) []booking.NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []booking.NotificationKind
	for _, n := range r.got {
		if n.ReservationID == id {
			out = append(out, n.Kind)
		}
	}
	return out
}

func (r *recorder) count(kind booking.NotificationKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, x := range r.got {
		if x.Kind == kind {
			n++
		}
	}
	return n
}

var userSeq atomic.Int64

type fixture struct {
	engine *booking.Engine
	store  *repository.MemoryStore
	notes  *recorder
	clock  *testClock
}

// newFixture builds an engine over one table per capacity given, numbered
// from 1, with the clock at 16:00.
func newFixture(t *testing.T, capacities []int, opts ...booking.Option) *fixture {
	t.Helper()
	tables := make([]model.Table, len(capacities))
	for i, c := range capacities {
		tables[i] = model.Table{Number: i + 1, Capacity: c}
	}
	f := &fixture{
		store: repository.NewMemoryStore(tables),
		notes: &recorder{},
		clock: &testClock{now: at(16, 0)},
	}
	all := append([]booking.Option{
		booking.WithClock(f.clock.Now),
		booking.WithLogger(logging.Discard()),
	}, opts...)
	f.engine = booking.New(f.store, f.notes, booking.DefaultOptions(), all...)
	return f
}

func (f *fixture) customer(t *testing.T, subscriber bool) booking.Session {
	t.Helper()
	u := &model.User{
		Email:      fmt.Sprintf("guest%d@example.com", userSeq.Add(1)),
		Name:       "Guest",
		Role:       model.RoleCustomer,
		Subscriber: subscriber,
		IsActive:   true,
	}
	require.NoError(t, f.store.CreateUser(context.Background(), u))
	return booking.Customer(u.ID)
}

func (f *fixture) book(t *testing.T, sess booking.Session, when time.Time, party int) booking.CreateResult {
	t.Helper()
	res, err := f.engine.Create(context.Background(), sess, booking.CreateRequest{
		ScheduledAt: when,
		PartySize:   party,
		GuestName:   "Walk Up",
		GuestPhone:  "+15550100",
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) get(t *testing.T, id uint64) model.Reservation {
	t.Helper()
	r, err := f.engine.Get(context.Background(), staff, id)
	require.NoError(t, err)
	return r
}

func (f *fixture) byStatus(t *testing.T, statuses ...model.Status) []model.Reservation {
	t.Helper()
	var out []model.Reservation
	err := f.store.WithTx(context.Background(), func(tx repository.Tx) error {
		var err error
		out, err = tx.ReservationsByStatus(context.Background(), statuses...)
		return err
	})
	require.NoError(t, err)
	return out
}
