package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/table-reservation/internal/model"
)

// MemoryStore keeps reservations, tables, bills and users in process memory.
// Transactions hold a single mutex and restore a snapshot on rollback, so a
// failed unit of work leaves nothing behind. It backs the engine tests and
// STORE_DRIVER=memory for local runs.
type MemoryStore struct {
	mu sync.Mutex

	tables       map[uint64]model.Table
	reservations map[uint64]model.Reservation
	bills        map[uint64]model.Bill
	users        map[uint64]model.User

	nextReservationID uint64
	nextBillID        uint64
	nextUserID        uint64
}

// NewMemoryStore returns a store seeded with the given tables. Tables with a
// zero ID are numbered in order.
func NewMemoryStore(tables []model.Table) *MemoryStore {
	s := &MemoryStore{
		tables:       make(map[uint64]model.Table, len(tables)),
		reservations: make(map[uint64]model.Reservation),
		bills:        make(map[uint64]model.Bill),
		users:        make(map[uint64]model.User),
	}
	for i, t := range tables {
		if t.ID == 0 {
			t.ID = uint64(i + 1)
		}
		s.tables[t.ID] = t
	}
	return s
}

type memorySnapshot struct {
	reservations map[uint64]model.Reservation
	bills        map[uint64]model.Bill
	nextRes      uint64
	nextBill     uint64
}

func (s *MemoryStore) snapshot() memorySnapshot {
	snap := memorySnapshot{
		reservations: make(map[uint64]model.Reservation, len(s.reservations)),
		bills:        make(map[uint64]model.Bill, len(s.bills)),
		nextRes:      s.nextReservationID,
		nextBill:     s.nextBillID,
	}
	for k, v := range s.reservations {
		snap.reservations[k] = v
	}
	for k, v := range s.bills {
		snap.bills[k] = v
	}
	return snap
}

func (s *MemoryStore) restore(snap memorySnapshot) {
	s.reservations = snap.reservations
	s.bills = snap.bills
	s.nextReservationID = snap.nextRes
	s.nextBillID = snap.nextBill
}

// WithTx implements Store.
func (s *MemoryStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot()
	if err := fn(&memoryTx{s: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// WithReadTx implements Store. Writes inside fn return ErrReadOnly.
func (s *MemoryStore) WithReadTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&memoryTx{s: s, readOnly: true})
}

// Tables implements Store.
func (s *MemoryStore) Tables(ctx context.Context) ([]model.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedTables(), nil
}

func (s *MemoryStore) sortedTables() []model.Table {
	out := make([]model.Table, 0, len(s.tables))
	for _, t := range s.tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// CreateUser implements Store.
func (s *MemoryStore) CreateUser(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range s.users {
		if existing.Email == email {
			return ErrEmailExists
		}
	}
	s.nextUserID++
	u.ID = s.nextUserID
	u.Email = email
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.users[u.ID] = *u
	return nil
}

// UserByEmail implements Store.
func (s *MemoryStore) UserByEmail(ctx context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, ErrNotFound
}

// UserByID implements Store.
func (s *MemoryStore) UserByID(ctx context.Context, id uint64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return model.User{}, ErrNotFound
}

// memoryTx operates on the live maps; the enclosing WithTx or WithReadTx
// holds the lock.
type memoryTx struct {
	s        *MemoryStore
	readOnly bool
}

func (t *memoryTx) ReservationByID(ctx context.Context, id uint64) (model.Reservation, error) {
	if r, ok := t.s.reservations[id]; ok {
		return r, nil
	}
	return model.Reservation{}, ErrNotFound
}

func (t *memoryTx) ReservationByCode(ctx context.Context, code string) (model.Reservation, error) {
	var (
		found model.Reservation
		ok    bool
	)
	for _, r := range t.s.reservations {
		if r.Code != code {
			continue
		}
		switch {
		case !ok:
			found, ok = r, true
		case found.Status.Terminal() && !r.Status.Terminal():
			found = r
		case found.Status.Terminal() == r.Status.Terminal() && r.ID > found.ID:
			found = r
		}
	}
	if !ok {
		return model.Reservation{}, ErrNotFound
	}
	return found, nil
}

func hasStatus(s model.Status, statuses []model.Status) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, st := range statuses {
		if s == st {
			return true
		}
	}
	return false
}

func (t *memoryTx) ReservationsScheduledBetween(ctx context.Context, after, before time.Time, statuses ...model.Status) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, r := range t.s.reservations {
		if r.ScheduledAt.After(after) && r.ScheduledAt.Before(before) && hasStatus(r.Status, statuses) {
			out = append(out, r)
		}
	}
	sortWaitlistOrder(out)
	return out, nil
}

func (t *memoryTx) ReservationsByStatus(ctx context.Context, statuses ...model.Status) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, r := range t.s.reservations {
		if hasStatus(r.Status, statuses) {
			out = append(out, r)
		}
	}
	sortWaitlistOrder(out)
	return out, nil
}

func (t *memoryTx) ReservationsByCustomer(ctx context.Context, customerID uint64) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, r := range t.s.reservations {
		if r.OwnedBy(customerID) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func sortWaitlistOrder(rs []model.Reservation) {
	sort.Slice(rs, func(i, j int) bool {
		if !rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
			return rs[i].CreatedAt.Before(rs[j].CreatedAt)
		}
		return rs[i].ID < rs[j].ID
	})
}

func (t *memoryTx) InsertReservation(ctx context.Context, r *model.Reservation) error {
	if t.readOnly {
		return ErrReadOnly
	}
	for _, existing := range t.s.reservations {
		if existing.Code == r.Code && !existing.Status.Terminal() {
			return ErrDuplicateCode
		}
	}
	t.s.nextReservationID++
	r.ID = t.s.nextReservationID
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = r.CreatedAt
	}
	t.s.reservations[r.ID] = *r
	return nil
}

func (t *memoryTx) UpdateReservation(ctx context.Context, r model.Reservation, expected model.Status) error {
	if t.readOnly {
		return ErrReadOnly
	}
	cur, ok := t.s.reservations[r.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Status != expected {
		return ErrStaleState
	}
	r.Code = cur.Code
	r.CreatedAt = cur.CreatedAt
	t.s.reservations[r.ID] = r
	return nil
}

func (t *memoryTx) Tables(ctx context.Context) ([]model.Table, error) {
	return t.s.sortedTables(), nil
}

func (t *memoryTx) TableByID(ctx context.Context, id uint64) (model.Table, error) {
	if tb, ok := t.s.tables[id]; ok {
		return tb, nil
	}
	return model.Table{}, ErrNotFound
}

func (t *memoryTx) TableCountsBySize(ctx context.Context) (map[int]int, error) {
	counts := make(map[int]int)
	for _, tb := range t.s.tables {
		counts[tb.Capacity]++
	}
	return counts, nil
}

func (t *memoryTx) UserByID(ctx context.Context, id uint64) (model.User, error) {
	if u, ok := t.s.users[id]; ok {
		return u, nil
	}
	return model.User{}, ErrNotFound
}

func (t *memoryTx) BillByReservation(ctx context.Context, reservationID uint64) (model.Bill, error) {
	for _, b := range t.s.bills {
		if b.ReservationID == reservationID {
			return b, nil
		}
	}
	return model.Bill{}, ErrNotFound
}

func (t *memoryTx) InsertBill(ctx context.Context, b *model.Bill) error {
	if t.readOnly {
		return ErrReadOnly
	}
	for _, existing := range t.s.bills {
		if existing.ReservationID == b.ReservationID {
			return ErrDuplicateBill
		}
	}
	t.s.nextBillID++
	b.ID = t.s.nextBillID
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	t.s.bills[b.ID] = *b
	return nil
}

func (t *memoryTx) MarkBillPaid(ctx context.Context, billID uint64, at time.Time) error {
	if t.readOnly {
		return ErrReadOnly
	}
	b, ok := t.s.bills[billID]
	if !ok {
		return ErrNotFound
	}
	b.Paid = true
	paidAt := at
	b.PaidAt = &paidAt
	t.s.bills[billID] = b
	return nil
}
