package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	kafka "github.com/vogiaan1904/ticketbottle-booking/internal/delivery/kafka"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

type Producer interface {
	PublishBookingCreated(ctx context.Context, event kafka.BookingCreatedEvent) error
	PublishBookingCancelled(ctx context.Context, event kafka.BookingCancelledEvent) error
	PublishBookingConfirmed(ctx context.Context, event kafka.BookingConfirmedEvent) error
	PublishPaymentRequired(ctx context.Context, event kafka.PaymentRequiredEvent) error
	PublishNotificationSend(ctx context.Context, event kafka.NotificationSendEvent) error
	PublishAuditLog(ctx context.Context, event kafka.AuditLogEvent) error
	Close() error
}

type implProducer struct {
	l    logger.Logger
	prod sarama.SyncProducer
}

func NewProducer(prod sarama.SyncProducer, l logger.Logger) Producer {
	return &implProducer{
		l:    l,
		prod: prod,
	}
}

// publish wraps payload in the shared envelope and blocks until the broker
// acknowledges receipt.
func (p *implProducer) publish(ctx context.Context, topic, eventType, partitionKey string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.publish: marshal payload: %v", err)
		return err
	}

	env := kafka.Envelope{
		EventType: eventType,
		EventID:   uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Version:   kafka.EnvelopeVersion,
		Data:      data,
	}
	val, err := json.Marshal(env)
	if err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.publish: marshal envelope: %v", err)
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(partitionKey), // Partition by aggregate id for ordering
		Value: sarama.ByteEncoder(val),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("event_type"),
				Value: []byte(eventType),
			},
			{
				Key:   []byte("timestamp"),
				Value: []byte(env.Timestamp.Format(time.RFC3339)),
			},
		},
	}

	_, _, err = p.prod.SendMessage(msg)
	return err
}

func (p *implProducer) PublishBookingCreated(ctx context.Context, event kafka.BookingCreatedEvent) error {
	return p.publish(ctx, kafka.TopicBookingEvents, kafka.EventTypeBookingCreated, event.EventID, event)
}

func (p *implProducer) PublishBookingCancelled(ctx context.Context, event kafka.BookingCancelledEvent) error {
	return p.publish(ctx, kafka.TopicBookingEvents, kafka.EventTypeBookingCancelled, event.EventID, event)
}

func (p *implProducer) PublishBookingConfirmed(ctx context.Context, event kafka.BookingConfirmedEvent) error {
	return p.publish(ctx, kafka.TopicBookingEvents, kafka.EventTypeBookingConfirmed, event.EventID, event)
}

func (p *implProducer) PublishPaymentRequired(ctx context.Context, event kafka.PaymentRequiredEvent) error {
	return p.publish(ctx, kafka.TopicPaymentEvents, kafka.EventTypePaymentRequired, event.BookingID, event)
}

func (p *implProducer) PublishNotificationSend(ctx context.Context, event kafka.NotificationSendEvent) error {
	return p.publish(ctx, kafka.TopicNotificationEvents, kafka.EventTypeNotificationSend, event.UserID, event)
}

func (p *implProducer) PublishAuditLog(ctx context.Context, event kafka.AuditLogEvent) error {
	return p.publish(ctx, kafka.TopicAuditEvents, kafka.EventTypeAuditLog, event.Actor, event)
}

func (p *implProducer) Close() error {
	return p.prod.Close()
}
