// Package service holds adapters that connect the booking engine to
// external systems.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/studio-slot-reservation/internal/model"
	"github.com/iliyamo/studio-slot-reservation/internal/queue"
)

// ActivityPublisher publishes activity entries to a durable RabbitMQ
// queue.  Each call dials the broker, so a broker outage only fails the
// publishes made during it.
type ActivityPublisher struct {
	url       string
	queue     string
	venueName func(id string) string
}

// NewActivityPublisher returns a publisher for queueName on the broker at
// url.  venueName resolves display names for the published events.
func NewActivityPublisher(url, queueName string, venueName func(string) string) *ActivityPublisher {
	if queueName == "" {
		queueName = queue.DefaultActivityQueue
	}
	if venueName == nil {
		venueName = func(id string) string { return id }
	}
	return &ActivityPublisher{url: url, queue: queueName, venueName: venueName}
}

// PublishActivity sends entry as a persistent ActivityRecordedEvent.
func (p *ActivityPublisher) PublishActivity(ctx context.Context, entry model.ActivityEntry) error {
	body, err := json.Marshal(queue.NewActivityRecordedEvent(entry, p.venueName(entry.Venue)))
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal event: %w", err)
	}

	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(3 * time.Second)})
	if err != nil {
		return fmt.Errorf("rabbitmq: dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq: channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq: queue declare: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    entry.ID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}
	return nil
}
