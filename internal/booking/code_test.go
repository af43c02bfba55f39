package booking_test

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/table-reservation/internal/booking"
)

// scripted returns the given codes in order and then repeats the last one.
func scripted(codes ...string) booking.CodeGenerator {
	var (
		mu sync.Mutex
		i  int
	)
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		c := codes[len(codes)-1]
		if i < len(codes) {
			c = codes[i]
		}
		i++
		return c, nil
	}
}

func TestCodeCollisionsRetried(t *testing.T) {
	gen := scripted("111111", "111111", "111111", "111111", "111111", "222222")
	f := newFixture(t, []int{4, 4}, booking.WithCodeGenerator(gen))

	first := f.book(t, booking.Anonymous(), evening, 2)
	assert.Equal(t, "111111", first.Reservation.Code)

	// Four collisions, then a fresh code on the fifth attempt.
	second := f.book(t, booking.Anonymous(), evening, 2)
	assert.Equal(t, "222222", second.Reservation.Code)
}

func TestCodeCollisionsExhausted(t *testing.T) {
	f := newFixture(t, []int{4, 4}, booking.WithCodeGenerator(scripted("111111")))
	f.book(t, booking.Anonymous(), evening, 2)

	_, err := f.engine.Create(context.Background(), booking.Anonymous(), booking.CreateRequest{
		ScheduledAt: evening,
		PartySize:   2,
		GuestName:   "Unlucky",
		GuestPhone:  "555",
	})
	require.Error(t, err)
	assert.Equal(t, booking.KindCodeCollision, booking.KindOf(err))
	assert.Len(t, f.byStatus(t), 1)
	assert.Equal(t, 1, f.notes.count(booking.NotifyConfirmation))
}

func TestCodeReusableAfterTerminalState(t *testing.T) {
	f := newFixture(t, []int{4}, booking.WithCodeGenerator(scripted("333333")))
	first := f.book(t, booking.Anonymous(), evening, 2)
	_, err := f.engine.CancelByCode(context.Background(), "333333")
	require.NoError(t, err)

	second := f.book(t, booking.Anonymous(), evening, 2)
	assert.Equal(t, "333333", second.Reservation.Code)

	live, err := f.engine.GetByCode(context.Background(), "333333")
	require.NoError(t, err)
	assert.Equal(t, second.Reservation.ID, live.ID)
	assert.NotEqual(t, first.Reservation.ID, live.ID)
}

func TestRandomCodeRange(t *testing.T) {
	for i := 0; i < 500; i++ {
		code, err := booking.RandomCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
	}
}
