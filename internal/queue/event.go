// Package queue defines the notification payloads exchanged over the message
// broker and the consumer that records them.
package queue

// NotificationQueue is the durable queue the reservation engine's
// notification obligations are published to.
const NotificationQueue = "reservation.notifications"

// NotificationEvent is published after a reservation change commits. It
// names the message the guest must receive and the reservation it is about;
// delivery channels look the guest's contact details up themselves.
type NotificationEvent struct {
	MessageID     string `json:"message_id"`
	Kind          string `json:"kind"`
	ReservationID uint64 `json:"reservation_id"`
	OccurredAt    string `json:"occurred_at"`
}
