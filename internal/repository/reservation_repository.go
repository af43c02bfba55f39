package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/table-reservation/internal/model"
)

// mysqlDuplicateEntry is the MySQL error number for a unique key violation.
const mysqlDuplicateEntry = 1062

// SQLStore implements Store on top of MySQL. All timestamps are stored in
// UTC; the DSN built by database.Open sets parseTime=true and loc=UTC.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore returns a Store bound to the given database.
func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

// Ping checks the database connection for the health endpoint.
func (s *SQLStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// WithTx begins a transaction, locks the table set and runs fn. Locking the
// restaurant_tables rows first serializes every unit of work that reads and
// then assigns capacity, across connections and server instances.
func (s *SQLStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	return s.run(ctx, nil, true, fn)
}

// WithReadTx runs fn in a read-only transaction without locking the table
// set, so lookups never queue behind bookings.
func (s *SQLStore) WithReadTx(ctx context.Context, fn func(tx Tx) error) error {
	return s.run(ctx, &sql.TxOptions{ReadOnly: true}, false, fn)
}

func (s *SQLStore) run(ctx context.Context, opts *sql.TxOptions, lock bool, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if lock {
		rows, err := tx.QueryContext(ctx, `SELECT id FROM restaurant_tables ORDER BY id FOR UPDATE`)
		if err != nil {
			return fmt.Errorf("lock tables: %w", err)
		}
		if err := rows.Close(); err != nil {
			return fmt.Errorf("lock tables: %w", err)
		}
	}
	if err := fn(&sqlTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// Tables implements Store.
func (s *SQLStore) Tables(ctx context.Context) ([]model.Table, error) {
	return queryTables(ctx, s.db)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryTables(ctx context.Context, q queryer) ([]model.Table, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, number, capacity FROM restaurant_tables ORDER BY number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Table
	for rows.Next() {
		var t model.Table
		if err := rows.Scan(&t.ID, &t.Number, &t.Capacity); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// sqlTx implements Tx over a *sql.Tx owned by SQLStore.WithTx.
type sqlTx struct {
	tx *sql.Tx
}

const reservationColumns = `id, code, customer_id, guest_name, guest_phone, guest_email, table_id,
	party_size, scheduled_at, status, walk_in, reminder_sent, checked_in_at, checked_out_at,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(sc rowScanner) (model.Reservation, error) {
	var (
		r          model.Reservation
		customerID sql.NullInt64
		tableID    sql.NullInt64
		status     string
		checkedIn  sql.NullTime
		checkedOut sql.NullTime
	)
	err := sc.Scan(&r.ID, &r.Code, &customerID, &r.GuestName, &r.GuestPhone, &r.GuestEmail, &tableID,
		&r.PartySize, &r.ScheduledAt, &status, &r.WalkIn, &r.ReminderSent, &checkedIn, &checkedOut,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return model.Reservation{}, err
	}
	r.Status = model.Status(status)
	if customerID.Valid {
		id := uint64(customerID.Int64)
		r.CustomerID = &id
	}
	if tableID.Valid {
		id := uint64(tableID.Int64)
		r.TableID = &id
	}
	if checkedIn.Valid {
		t := checkedIn.Time.UTC()
		r.CheckedInAt = &t
	}
	if checkedOut.Valid {
		t := checkedOut.Time.UTC()
		r.CheckedOutAt = &t
	}
	r.ScheduledAt = r.ScheduledAt.UTC()
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return r, nil
}

func (t *sqlTx) queryReservations(ctx context.Context, q string, args ...any) ([]model.Reservation, error) {
	rows, err := t.tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// statusFilter renders "status IN (?,?)" with its arguments. An empty list
// matches every status.
func statusFilter(statuses []model.Status) (string, []any) {
	if len(statuses) == 0 {
		return "1=1", nil
	}
	marks := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, s := range statuses {
		marks[i] = "?"
		args[i] = string(s)
	}
	return "status IN (" + strings.Join(marks, ",") + ")", args
}

func (t *sqlTx) ReservationByID(ctx context.Context, id uint64) (model.Reservation, error) {
	r, err := scanReservation(t.tx.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Reservation{}, ErrNotFound
	}
	return r, err
}

func (t *sqlTx) ReservationByCode(ctx context.Context, code string) (model.Reservation, error) {
	r, err := scanReservation(t.tx.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE code = ?
		 ORDER BY active_code IS NULL, id DESC LIMIT 1`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Reservation{}, ErrNotFound
	}
	return r, err
}

func (t *sqlTx) ReservationsScheduledBetween(ctx context.Context, after, before time.Time, statuses ...model.Status) ([]model.Reservation, error) {
	filter, args := statusFilter(statuses)
	q := `SELECT ` + reservationColumns + ` FROM reservations
	      WHERE scheduled_at > ? AND scheduled_at < ? AND ` + filter + `
	      ORDER BY created_at, id`
	return t.queryReservations(ctx, q, append([]any{after.UTC(), before.UTC()}, args...)...)
}

func (t *sqlTx) ReservationsByStatus(ctx context.Context, statuses ...model.Status) ([]model.Reservation, error) {
	filter, args := statusFilter(statuses)
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE ` + filter + ` ORDER BY created_at, id`
	return t.queryReservations(ctx, q, args...)
}

func (t *sqlTx) ReservationsByCustomer(ctx context.Context, customerID uint64) ([]model.Reservation, error) {
	return t.queryReservations(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE customer_id = ? ORDER BY id DESC`, customerID)
}

func nullUint(p *uint64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullTime(p *time.Time) sql.NullTime {
	if p == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: p.UTC(), Valid: true}
}

// InsertReservation relies on the unique key over the generated active_code
// column, which is NULL for terminal rows, to reject live code collisions.
// InnoDB rolls back only the failed statement, so the caller may retry inside
// the same transaction.
func (t *sqlTx) InsertReservation(ctx context.Context, r *model.Reservation) error {
	const q = `INSERT INTO reservations
		(code, customer_id, guest_name, guest_phone, guest_email, table_id, party_size, scheduled_at,
		 status, walk_in, reminder_sent, checked_in_at, checked_out_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = r.CreatedAt
	}
	res, err := t.tx.ExecContext(ctx, q,
		r.Code, nullUint(r.CustomerID), r.GuestName, r.GuestPhone, r.GuestEmail, nullUint(r.TableID),
		r.PartySize, r.ScheduledAt.UTC(), string(r.Status), r.WalkIn, r.ReminderSent,
		nullTime(r.CheckedInAt), nullTime(r.CheckedOutAt), r.CreatedAt.UTC(), r.UpdatedAt.UTC())
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicateCode
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	r.ID = uint64(id)
	return nil
}

func (t *sqlTx) UpdateReservation(ctx context.Context, r model.Reservation, expected model.Status) error {
	const q = `UPDATE reservations SET
		customer_id = ?, guest_name = ?, guest_phone = ?, guest_email = ?, table_id = ?, party_size = ?,
		scheduled_at = ?, status = ?, walk_in = ?, reminder_sent = ?, checked_in_at = ?, checked_out_at = ?,
		updated_at = ?
		WHERE id = ? AND status = ?`
	res, err := t.tx.ExecContext(ctx, q,
		nullUint(r.CustomerID), r.GuestName, r.GuestPhone, r.GuestEmail, nullUint(r.TableID), r.PartySize,
		r.ScheduledAt.UTC(), string(r.Status), r.WalkIn, r.ReminderSent, nullTime(r.CheckedInAt),
		nullTime(r.CheckedOutAt), r.UpdatedAt.UTC(), r.ID, string(expected))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := t.ReservationByID(ctx, r.ID); err != nil {
			return err
		}
		return ErrStaleState
	}
	return nil
}

func (t *sqlTx) Tables(ctx context.Context) ([]model.Table, error) {
	return queryTables(ctx, t.tx)
}

func (t *sqlTx) TableByID(ctx context.Context, id uint64) (model.Table, error) {
	var tb model.Table
	err := t.tx.QueryRowContext(ctx, `SELECT id, number, capacity FROM restaurant_tables WHERE id = ?`, id).
		Scan(&tb.ID, &tb.Number, &tb.Capacity)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Table{}, ErrNotFound
	}
	return tb, err
}

func (t *sqlTx) TableCountsBySize(ctx context.Context) (map[int]int, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT capacity, COUNT(*) FROM restaurant_tables GROUP BY capacity`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[int]int)
	for rows.Next() {
		var capacity, n int
		if err := rows.Scan(&capacity, &n); err != nil {
			return nil, err
		}
		counts[capacity] = n
	}
	return counts, rows.Err()
}

func (t *sqlTx) UserByID(ctx context.Context, id uint64) (model.User, error) {
	return userByID(ctx, t.tx, id)
}

func (t *sqlTx) BillByReservation(ctx context.Context, reservationID uint64) (model.Bill, error) {
	var (
		b      model.Bill
		paidAt sql.NullTime
	)
	err := t.tx.QueryRowContext(ctx,
		`SELECT id, reservation_id, subtotal, discount_pct, total, paid, paid_at, created_at
		 FROM bills WHERE reservation_id = ?`, reservationID).
		Scan(&b.ID, &b.ReservationID, &b.Subtotal, &b.DiscountPct, &b.Total, &b.Paid, &paidAt, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Bill{}, ErrNotFound
	}
	if err != nil {
		return model.Bill{}, err
	}
	if paidAt.Valid {
		at := paidAt.Time.UTC()
		b.PaidAt = &at
	}
	return b, nil
}

func (t *sqlTx) InsertBill(ctx context.Context, b *model.Bill) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO bills (reservation_id, subtotal, discount_pct, total, paid, paid_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ReservationID, b.Subtotal, b.DiscountPct, b.Total, b.Paid, nullTime(b.PaidAt), b.CreatedAt.UTC())
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicateBill
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

func (t *sqlTx) MarkBillPaid(ctx context.Context, billID uint64, at time.Time) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE bills SET paid = TRUE, paid_at = ? WHERE id = ?`, at.UTC(), billID)
	return err
}
