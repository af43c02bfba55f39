package repository

import (
	"context"
	"time"

	"github.com/iliyamo/table-reservation/internal/model"
)

// Store is the persistence boundary consumed by the reservation engine.
// Everything that reads capacity and then writes a decision runs inside
// WithTx so the check and the write commit or roll back together.
type Store interface {
	// WithTx runs fn inside a transaction. The transaction commits when fn
	// returns nil and rolls back otherwise; no partial writes become visible.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	// WithReadTx runs fn in a read-only transaction that takes no locks.
	// Writes inside fn fail.
	WithReadTx(ctx context.Context, fn func(tx Tx) error) error

	// Tables lists all tables ordered by number.
	Tables(ctx context.Context) ([]model.Table, error)

	// CreateUser inserts an account and sets its generated ID.
	CreateUser(ctx context.Context, u *model.User) error
	// UserByEmail looks an account up by normalized email.
	UserByEmail(ctx context.Context, email string) (model.User, error)
	// UserByID looks an account up by id.
	UserByID(ctx context.Context, id uint64) (model.User, error)
}

// Tx is the set of operations available inside a transaction.
type Tx interface {
	ReservationByID(ctx context.Context, id uint64) (model.Reservation, error)
	// ReservationByCode returns the most recent reservation carrying code,
	// preferring non-terminal ones.
	ReservationByCode(ctx context.Context, code string) (model.Reservation, error)
	// ReservationsScheduledBetween returns reservations in the given states
	// with after < scheduled_at < before (both bounds exclusive).
	ReservationsScheduledBetween(ctx context.Context, after, before time.Time, statuses ...model.Status) ([]model.Reservation, error)
	// ReservationsByStatus returns reservations in the given states ordered
	// by created_at then id (waitlist order).
	ReservationsByStatus(ctx context.Context, statuses ...model.Status) ([]model.Reservation, error)
	// ReservationsByCustomer returns a customer's reservations, newest first.
	ReservationsByCustomer(ctx context.Context, customerID uint64) ([]model.Reservation, error)
	// InsertReservation stores r and sets r.ID. It returns ErrDuplicateCode
	// when r.Code collides with a non-terminal reservation.
	InsertReservation(ctx context.Context, r *model.Reservation) error
	// UpdateReservation overwrites the mutable columns of r when the stored
	// status equals expected, and returns ErrStaleState otherwise.
	UpdateReservation(ctx context.Context, r model.Reservation, expected model.Status) error

	Tables(ctx context.Context) ([]model.Table, error)
	TableByID(ctx context.Context, id uint64) (model.Table, error)
	// TableCountsBySize returns capacity -> number of tables.
	TableCountsBySize(ctx context.Context) (map[int]int, error)

	UserByID(ctx context.Context, id uint64) (model.User, error)

	BillByReservation(ctx context.Context, reservationID uint64) (model.Bill, error)
	// InsertBill stores b and sets b.ID. It returns ErrDuplicateBill when the
	// reservation is already billed.
	InsertBill(ctx context.Context, b *model.Bill) error
	MarkBillPaid(ctx context.Context, billID uint64, at time.Time) error
}
