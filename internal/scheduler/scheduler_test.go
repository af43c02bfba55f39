package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/table-reservation/internal/logging"
)

func TestRunOnceRecoversPanics(t *testing.T) {
	r := New(logging.Discard())
	ok := r.RunOnce(context.Background(), Task{Name: "boom", Run: func(context.Context) error {
		panic("bad state")
	}})
	assert.False(t, ok)

	ok = r.RunOnce(context.Background(), Task{Name: "err", Run: func(context.Context) error {
		return errors.New("store down")
	}})
	assert.False(t, ok)

	ok = r.RunOnce(context.Background(), Task{Name: "fine", Run: func(context.Context) error { return nil }})
	assert.True(t, ok)
}

func TestTasksKeepRunningAfterFailures(t *testing.T) {
	var failing, healthy atomic.Int32
	r := New(logging.Discard(),
		Task{Name: "failing", Interval: 5 * time.Millisecond, Run: func(context.Context) error {
			failing.Add(1)
			panic("always")
		}},
		Task{Name: "healthy", Interval: 5 * time.Millisecond, Jitter: time.Millisecond, Run: func(context.Context) error {
			healthy.Add(1)
			return nil
		}},
	)
	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)

	assert.Eventually(t, func() bool {
		return failing.Load() >= 3 && healthy.Load() >= 3
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	done := make(chan struct{})
	go func() { r.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runner did not stop")
	}
}

func TestStartDelayHonoursCancel(t *testing.T) {
	var runs atomic.Int32
	r := New(logging.Discard(), Task{Name: "late", Interval: time.Millisecond, StartDelay: time.Hour, Run: func(context.Context) error {
		runs.Add(1)
		return nil
	}})
	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)
	cancel()
	r.Wait()
	assert.Zero(t, runs.Load())
}

func TestDisabledTaskIsSkipped(t *testing.T) {
	r := New(logging.Discard(), Task{Name: "off", Interval: 0, Run: func(context.Context) error { return nil }})
	r.Start(context.Background())
	r.Wait()
}
