package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	QueueBookingConfirmed = "booking.confirmed"
	QueueBookingCancelled = "booking.cancelled"
)

// Publisher delivers domain events to external subscribers.
type Publisher interface {
	PublishBookingConfirmed(ctx context.Context, event BookingConfirmedEvent) error
	PublishBookingCancelled(ctx context.Context, event BookingCancelledEvent) error
}

// amqpPublisher publishes persistent JSON messages to durable RabbitMQ
// queues. Each publish dials its own short-lived connection; booking
// throughput does not ride on a shared channel and a broker outage only
// costs the event, never the booking.
type amqpPublisher struct {
	url string
	log *zap.Logger
}

func NewAMQPPublisher(url string, log *zap.Logger) Publisher {
	return &amqpPublisher{
		url: url,
		log: log.With(zap.String("publisher", "amqp")),
	}
}

func (p *amqpPublisher) PublishBookingConfirmed(ctx context.Context, event BookingConfirmedEvent) error {
	return p.publish(ctx, QueueBookingConfirmed, event)
}

func (p *amqpPublisher) PublishBookingCancelled(ctx context.Context, event BookingCancelledEvent) error {
	return p.publish(ctx, QueueBookingCancelled, event)
}

func (p *amqpPublisher) publish(ctx context.Context, queue string, payload any) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Error("Failed to dial broker", zap.Error(err), zap.String("queue", queue))
		return fmt.Errorf("dial broker: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Error("Failed to open channel", zap.Error(err), zap.String("queue", queue))
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	// Idempotent declare; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		p.log.Error("Failed to declare queue", zap.Error(err), zap.String("queue", queue))
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		p.log.Error("Failed to publish event", zap.Error(err), zap.String("queue", queue))
		return fmt.Errorf("publish to %s: %w", queue, err)
	}

	return nil
}

// nopPublisher drops events. Used when no broker is configured.
type nopPublisher struct{}

func NewNopPublisher() Publisher { return nopPublisher{} }

func (nopPublisher) PublishBookingConfirmed(context.Context, BookingConfirmedEvent) error {
	return nil
}

func (nopPublisher) PublishBookingCancelled(context.Context, BookingCancelledEvent) error {
	return nil
}
