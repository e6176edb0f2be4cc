package consumer

import (
	"context"
	"encoding/json"

	"github.com/vogiaan1904/ticketbottle-booking/internal/delivery/kafka"
	"github.com/vogiaan1904/ticketbottle-booking/internal/service"
)

func (c *Consumer) HandlePaymentCompleted(ctx context.Context, env kafka.Envelope) error {
	c.l.Info(ctx, "HandlePaymentCompleted consumed")

	var e kafka.PaymentCompletedEvent
	if err := json.Unmarshal(env.Data, &e); err != nil {
		// Decode failures are deterministic; redelivery cannot fix them.
		c.l.Errorf(ctx, "delivery.kafka.consumer.handlers.HandlePaymentCompleted: decode payload: %v", err)
		return nil
	}

	if err := c.bkSvc.HandlePaymentCompleted(ctx, service.PaymentCompletedInput{
		BookingID: e.BookingID,
		UserID:    e.UserID,
		PaymentID: e.PaymentID,
	}); err != nil {
		c.l.Errorf(ctx, "delivery.kafka.consumer.handlers.HandlePaymentCompleted: %v", err)
		return err
	}

	return nil
}

func (c *Consumer) HandlePaymentFailed(ctx context.Context, env kafka.Envelope) error {
	c.l.Info(ctx, "HandlePaymentFailed consumed")

	var e kafka.PaymentFailedEvent
	if err := json.Unmarshal(env.Data, &e); err != nil {
		c.l.Errorf(ctx, "delivery.kafka.consumer.handlers.HandlePaymentFailed: decode payload: %v", err)
		return nil
	}

	if err := c.bkSvc.HandlePaymentFailed(ctx, service.PaymentFailedInput{
		BookingID: e.BookingID,
		UserID:    e.UserID,
		Reason:    e.Reason,
	}); err != nil {
		c.l.Errorf(ctx, "delivery.kafka.consumer.handlers.HandlePaymentFailed: %v", err)
		return err
	}

	return nil
}

// HandleBookingCancelled reacts to cancellations emitted by other services
// (e.g. an admin tool) so the counter and ledger stay consistent.
func (c *Consumer) HandleBookingCancelled(ctx context.Context, env kafka.Envelope) error {
	c.l.Info(ctx, "HandleBookingCancelled consumed")

	var e kafka.BookingCancelledEvent
	if err := json.Unmarshal(env.Data, &e); err != nil {
		c.l.Errorf(ctx, "delivery.kafka.consumer.handlers.HandleBookingCancelled: decode payload: %v", err)
		return nil
	}

	if err := c.bkSvc.HandleBookingCancelled(ctx, service.BookingCancelledInput{
		BookingID: e.BookingID,
		UserID:    e.UserID,
	}); err != nil {
		c.l.Errorf(ctx, "delivery.kafka.consumer.handlers.HandleBookingCancelled: %v", err)
		return err
	}

	return nil
}
