// Package queue_publisher delivers the reservation engine's notification
// obligations to RabbitMQ. Failures are logged and returned; the engine
// never rolls a committed change back because a message was not sent.
package queue_publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/table-reservation/internal/booking"
	q "github.com/iliyamo/table-reservation/internal/queue"
)

// publishTimeout bounds one dial-and-publish round trip.
const publishTimeout = 5 * time.Second

// Publisher implements booking.Notifier. It dials the broker per message,
// which keeps no connection state to repair after broker restarts.
type Publisher struct {
	url string
	log logrus.FieldLogger
	now func() time.Time
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, log logrus.FieldLogger) *Publisher {
	return &Publisher{url: url, log: log, now: time.Now}
}

// Notify publishes n to the notification queue as a persistent message.
func (p *Publisher) Notify(ctx context.Context, n booking.Notification) error {
	pub, err := p.publishing(n)
	if err != nil {
		p.log.WithError(err).Warn("rabbitmq: marshal event failed")
		return err
	}
	log := p.log.WithFields(logrus.Fields{
		"kind":           n.Kind,
		"reservation_id": n.ReservationID,
		"message_id":     pub.MessageId,
	})

	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.WithError(err).Warn("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.WithError(err).Warn("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(q.NotificationQueue, true, false, false, false, nil); err != nil {
		log.WithError(err).Warn("rabbitmq: queue declare failed")
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := ch.PublishWithContext(ctx, "", q.NotificationQueue, false, false, pub); err != nil {
		log.WithError(err).Warn("rabbitmq: publish failed")
		return err
	}
	log.Debug("notification published")
	return nil
}

// publishing builds the AMQP message for n.
func (p *Publisher) publishing(n booking.Notification) (amqp.Publishing, error) {
	now := p.now().UTC()
	ev := q.NotificationEvent{
		MessageID:     uuid.NewString(),
		Kind:          string(n.Kind),
		ReservationID: n.ReservationID,
		OccurredAt:    now.Format(time.RFC3339),
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.MessageID,
		Type:         ev.Kind,
		Timestamp:    now,
		Body:         body,
	}, nil
}
