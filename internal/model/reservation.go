package model

import "time"

// Status is the lifecycle state of a reservation. The values are stored
// verbatim in the reservations.status column.
type Status string

const (
	StatusActive     Status = "ACTIVE"      // booked with a table held
	StatusWaiting    Status = "WAITING"     // on the waitlist, no table
	StatusNotified   Status = "NOTIFIED"    // promoted from the waitlist, table held
	StatusInProgress Status = "IN_PROGRESS" // guest seated
	StatusCompleted  Status = "COMPLETED"   // checked out and paid
	StatusCanceled   Status = "CANCELED"    // canceled by guest, staff or no-show sweep
)

// HoldingStatuses lists the states in which a reservation consumes a table.
var HoldingStatuses = []Status{StatusActive, StatusNotified, StatusInProgress}

// HoldsTable reports whether a reservation in this state occupies its table.
func (s Status) HoldsTable() bool {
	return s == StatusActive || s == StatusNotified || s == StatusInProgress
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

// Valid reports whether s is one of the known states.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusWaiting, StatusNotified, StatusInProgress, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

// Reservation is a booking for a party at a scheduled time. A reservation in
// state WAITING is the waitlist entry; there is no separate waitlist table.
// Rows are never deleted: CANCELED and COMPLETED are kept for reporting.
//
// Fields:
//
//	ID           – primary key, assigned by the store on insert.
//	Code         – 6-digit confirmation code given to the guest.
//	CustomerID   – owning customer account (nil for guest bookings).
//	GuestName    – contact name for guest bookings.
//	GuestPhone   – contact phone for guest bookings.
//	GuestEmail   – contact email for guest bookings.
//	TableID      – table matched to this reservation (nil while WAITING).
//	PartySize    – number of guests.
//	ScheduledAt  – start of the booked service window (UTC).
//	Status       – lifecycle state.
//	WalkIn       – true when staff created the booking for a guest at the door.
//	ReminderSent – set once the pre-arrival reminder has been issued.
//	CheckedInAt  – when the party was seated.
//	CheckedOutAt – when the party checked out.
//	CreatedAt    – creation timestamp; orders the waitlist.
//	UpdatedAt    – last modification timestamp.
type Reservation struct {
	ID           uint64     // reservations.id
	Code         string     // reservations.code
	CustomerID   *uint64    // reservations.customer_id (nullable)
	GuestName    string     // reservations.guest_name
	GuestPhone   string     // reservations.guest_phone
	GuestEmail   string     // reservations.guest_email
	TableID      *uint64    // reservations.table_id (nullable)
	PartySize    int        // reservations.party_size
	ScheduledAt  time.Time  // reservations.scheduled_at
	Status       Status     // reservations.status
	WalkIn       bool       // reservations.walk_in
	ReminderSent bool       // reservations.reminder_sent
	CheckedInAt  *time.Time // reservations.checked_in_at (nullable)
	CheckedOutAt *time.Time // reservations.checked_out_at (nullable)
	CreatedAt    time.Time  // reservations.created_at
	UpdatedAt    time.Time  // reservations.updated_at
}

// OwnedBy reports whether the reservation belongs to the given customer.
func (r Reservation) OwnedBy(customerID uint64) bool {
	return r.CustomerID != nil && *r.CustomerID == customerID
}

// Window returns the occupied interval [ScheduledAt, ScheduledAt+d).
func (r Reservation) Window(d time.Duration) (time.Time, time.Time) {
	return r.ScheduledAt, r.ScheduledAt.Add(d)
}
