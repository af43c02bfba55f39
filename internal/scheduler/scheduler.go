// Package scheduler runs periodic background tasks. Each task gets its own
// goroutine, an optional jittered start delay and a recover boundary around
// every run, so one failing run never stops the task or its siblings.
package scheduler

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Task is one periodic job.
type Task struct {
	Name       string
	Interval   time.Duration
	StartDelay time.Duration
	// Jitter adds a random extra delay in [0, Jitter) before the first run.
	Jitter time.Duration
	Run    func(ctx context.Context) error
}

// Runner drives a set of tasks until its context is canceled.
type Runner struct {
	log   logrus.FieldLogger
	tasks []Task
	wg    sync.WaitGroup
}

// New returns a Runner that logs through log.
func New(log logrus.FieldLogger, tasks ...Task) *Runner {
	return &Runner{log: log, tasks: tasks}
}

// Start launches every task and returns immediately.
func (r *Runner) Start(ctx context.Context) {
	for _, t := range r.tasks {
		if t.Interval <= 0 || t.Run == nil {
			r.log.WithField("task", t.Name).Warn("task disabled")
			continue
		}
		r.wg.Add(1)
		go r.loop(ctx, t)
	}
}

// Wait blocks until every task goroutine has returned.
func (r *Runner) Wait() { r.wg.Wait() }

func (r *Runner) loop(ctx context.Context, t Task) {
	defer r.wg.Done()
	delay := t.StartDelay
	if t.Jitter > 0 {
		delay += time.Duration(rand.Int63n(int64(t.Jitter)))
	}
	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()
	for {
		r.RunOnce(ctx, t)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce executes t a single time inside the error boundary and reports
// whether it succeeded.
func (r *Runner) RunOnce(ctx context.Context, t Task) (ok bool) {
	log := r.log.WithField("task", t.Name)
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			log.WithError(fmt.Errorf("panic: %v", p)).Error("task run panicked")
			ok = false
		}
	}()
	if err := t.Run(ctx); err != nil {
		log.WithError(err).Error("task run failed")
		return false
	}
	log.WithField("took", time.Since(start)).Debug("task run finished")
	return true
}
