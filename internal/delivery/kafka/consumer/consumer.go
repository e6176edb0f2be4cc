package consumer

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/IBM/sarama"
	"github.com/vogiaan1904/ticketbottle-booking/internal/delivery/kafka"
	"github.com/vogiaan1904/ticketbottle-booking/internal/service"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

type Consumer struct {
	consGr sarama.ConsumerGroup
	bkSvc  service.ReservationService
	l      logger.Logger
	wg     sync.WaitGroup
}

func NewConsumer(
	consGr sarama.ConsumerGroup,
	bkSvc service.ReservationService,
	l logger.Logger,
) *Consumer {
	return &Consumer{
		consGr: consGr,
		bkSvc:  bkSvc,
		l:      l,
	}
}

// processMessage decodes the envelope and dispatches on its event type.
// Unknown types are logged and acknowledged so they are not redelivered
// forever.
func (c *Consumer) processMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var env kafka.Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		c.l.Errorf(ctx, "delivery.kafka.consumer.consumer.processMessage: decode envelope: %v", err)
		return nil
	}

	switch env.EventType {
	case kafka.EventTypePaymentCompleted:
		return c.HandlePaymentCompleted(ctx, env)
	case kafka.EventTypePaymentFailed:
		return c.HandlePaymentFailed(ctx, env)
	case kafka.EventTypeBookingCancelled:
		return c.HandleBookingCancelled(ctx, env)
	default:
		c.l.Debugf(ctx, "delivery.kafka.consumer.consumer.processMessage: skipping event type %q", env.EventType)
		return nil
	}
}

func (c *Consumer) Start(ctx context.Context) error {
	topics := []string{kafka.TopicBookingEvents, kafka.TopicPaymentEvents}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			if err := c.consGr.Consume(ctx, topics, c); err != nil {
				c.l.Errorf(ctx, "delivery.kafka.consumer.consumer.Start: %v", err)
			}

			if ctx.Err() != nil {
				c.l.Infof(ctx, "delivery.kafka.consumer.consumer.Start: %v", ctx.Err())
				return
			}
		}
	}()

	// Handle errors
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for err := range c.consGr.Errors() {
			c.l.Errorf(ctx, "delivery.kafka.consumer.consumer.Start: %v", err)
		}
	}()

	c.l.Infof(ctx, "Consumer is consuming topics: %v", topics)
	return nil
}

func (c *Consumer) Close() error {
	if err := c.consGr.Close(); err != nil {
		return err
	}

	c.wg.Wait()
	return nil
}

func (c *Consumer) Setup(sarama.ConsumerGroupSession) error {
	c.l.Debug(context.Background(), "Consumer group session started")
	return nil
}

func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	c.l.Debug(context.Background(), "Consumer group session ended")
	return nil
}

// ConsumeClaim marks a message only after its handler succeeds. A failed
// handler aborts the claim; the session restarts from the last marked
// offset, so the failed message is redelivered. Marking a later message
// would commit the group offset past the failed one and lose it.
func (c *Consumer) ConsumeClaim(ss sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}

			if err := c.processMessage(ss.Context(), message); err != nil {
				c.l.Errorf(ss.Context(), "delivery.kafka.consumer.consumer.ConsumeClaim: %v (topic %s offset %d)",
					err, message.Topic, message.Offset)
				return err
			}

			ss.MarkMessage(message, "")

		case <-ss.Context().Done():
			return nil
		}
	}
}
