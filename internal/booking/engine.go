// Package booking is the reservation lifecycle and capacity-allocation
// engine: it decides whether a booking fits, keeps the waitlist moving as
// tables free up, applies the clock-driven transitions and mints
// confirmation codes. Transport, storage and message delivery are reached
// through the repository.Store and Notifier interfaces.
package booking

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/table-reservation/internal/repository"
)

// Options are the restaurant-wide rules the engine applies.
type Options struct {
	ServiceDuration       time.Duration
	NoShowGrace           time.Duration
	EarlyCheckIn          time.Duration
	ReminderLookahead     time.Duration
	ReminderTolerance     time.Duration
	SuggestionStep        time.Duration
	SuggestionProbes      int
	MaxPartySize          int
	PerGuestRate          decimal.Decimal
	SubscriberDiscountPct int
}

// DefaultOptions returns the rules used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		ServiceDuration:       2 * time.Hour,
		NoShowGrace:           15 * time.Minute,
		EarlyCheckIn:          15 * time.Minute,
		ReminderLookahead:     2 * time.Hour,
		ReminderTolerance:     5 * time.Minute,
		SuggestionStep:        30 * time.Minute,
		SuggestionProbes:      4,
		MaxPartySize:          12,
		PerGuestRate:          decimal.NewFromInt(25),
		SubscriberDiscountPct: 10,
	}
}

// Engine runs reservation operations against a Store. It is safe for
// concurrent use; all operations that read capacity and then write a
// decision are serialized through its Locker and a store transaction.
type Engine struct {
	store    repository.Store
	notifier Notifier
	locker   Locker
	log      logrus.FieldLogger
	opts     Options
	oracle   Oracle
	now      func() time.Time
	codes    CodeGenerator
}

// Option customises an Engine.
type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithLocker replaces the in-process locker, e.g. with a RedisLocker.
func WithLocker(l Locker) Option { return func(e *Engine) { e.locker = l } }

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option { return func(e *Engine) { e.log = l } }

// WithCodeGenerator replaces the random confirmation code source.
func WithCodeGenerator(g CodeGenerator) Option { return func(e *Engine) { e.codes = g } }

// New returns an Engine. A nil notifier drops notifications.
func New(store repository.Store, notifier Notifier, opts Options, options ...Option) *Engine {
	if store == nil {
		panic("nil store passed to booking.New")
	}
	e := &Engine{
		store:    store,
		notifier: notifier,
		locker:   NewLocalLocker(),
		log:      logrus.StandardLogger(),
		opts:     opts,
		now:      time.Now,
		codes:    RandomCode,
	}
	for _, o := range options {
		o(e)
	}
	if e.notifier == nil {
		e.notifier = NotifierFunc(func(context.Context, Notification) error { return nil })
	}
	e.oracle = Oracle{Duration: opts.ServiceDuration}
	return e
}

// Options returns the rules the engine was built with.
func (e *Engine) Options() Options { return e.opts }

func (e *Engine) clock() time.Time { return e.now().UTC() }

// serialize runs fn inside the booking lock and a store transaction.
// Notifications collected by fn are emitted after commit and after the lock
// is released; when fn fails nothing is emitted.
func (e *Engine) serialize(ctx context.Context, op string, fn func(tx repository.Tx, out *outbox) error) error {
	var out outbox
	err := func() error {
		unlock, err := e.locker.Lock(ctx)
		if err != nil {
			return err
		}
		defer unlock()
		return e.store.WithTx(ctx, func(tx repository.Tx) error {
			out = out[:0]
			return fn(tx, &out)
		})
	}()
	if err != nil {
		return e.classify(op, err)
	}
	e.flush(ctx, out)
	return nil
}

// read runs fn in a read-only transaction without taking the booking lock.
func (e *Engine) read(ctx context.Context, op string, fn func(tx repository.Tx) error) error {
	if err := e.store.WithReadTx(ctx, fn); err != nil {
		return e.classify(op, err)
	}
	return nil
}

// classify turns store errors into engine errors. Expected outcomes pass
// through; anything else is a StoreFailure and is logged for operators.
func (e *Engine) classify(op string, err error) error {
	var be *Error
	if errors.As(err, &be) {
		return be
	}
	if errors.Is(err, repository.ErrNotFound) {
		return &Error{Kind: KindNotFound, Message: "record not found", Err: err}
	}
	if errors.Is(err, repository.ErrStaleState) {
		return &Error{Kind: KindInvalidTransition, Message: "reservation changed concurrently", Err: err}
	}
	e.log.WithError(err).WithField("op", op).Error("store failure")
	return &Error{Kind: KindStoreFailure, Message: op + " failed", Err: err}
}

func (e *Engine) flush(ctx context.Context, out outbox) {
	for _, n := range out {
		if err := e.notifier.Notify(ctx, n); err != nil {
			e.log.WithError(err).WithFields(logrus.Fields{
				"kind":           n.Kind,
				"reservation_id": n.ReservationID,
			}).Warn("notification not delivered")
		}
	}
}
