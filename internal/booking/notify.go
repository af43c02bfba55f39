package booking

import "context"

// NotificationKind names a message the notification layer must send.
type NotificationKind string

const (
	NotifyConfirmation   NotificationKind = "confirmation"
	NotifyCancellation   NotificationKind = "cancellation"
	NotifyReminder       NotificationKind = "reminder"
	NotifyTableAvailable NotificationKind = "table_available"
	NotifyBill           NotificationKind = "bill"
)

// Notification is an obligation to contact the guest of a reservation.
// Delivery channel and retries belong to the notification layer.
type Notification struct {
	Kind          NotificationKind `json:"kind"`
	ReservationID uint64           `json:"reservation_id"`
}

// Notifier receives obligations after the state change that caused them
// has committed. Errors are logged by the engine and never undo the change.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n Notification) error { return f(ctx, n) }

// outbox collects obligations raised inside a transaction so they are only
// emitted once the transaction has committed.
type outbox []Notification

func (o *outbox) add(kind NotificationKind, reservationID uint64) {
	*o = append(*o, Notification{Kind: kind, ReservationID: reservationID})
}
