package kafka

import (
	"encoding/json"
	"time"
)

// Envelope is the stable wire format shared by every publisher and
// consumer on the bus. Data holds the type-specific payload.
type Envelope struct {
	EventType string          `json:"event_type"`
	EventID   string          `json:"event_id"`
	Timestamp time.Time       `json:"timestamp"`
	Version   string          `json:"version"`
	Data      json.RawMessage `json:"data"`
}

// Events published BY Booking Service

type BookingCreatedEvent struct {
	BookingID string    `json:"booking_id"`
	UserID    string    `json:"user_id"`
	EventID   string    `json:"event_id"`
	Seats     int       `json:"seats"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type BookingCancelledEvent struct {
	BookingID   string    `json:"booking_id"`
	UserID      string    `json:"user_id"`
	EventID     string    `json:"event_id"`
	Seats       int       `json:"seats"`
	CancelledAt time.Time `json:"cancelled_at"`
}

type BookingConfirmedEvent struct {
	BookingID   string    `json:"booking_id"`
	UserID      string    `json:"user_id"`
	EventID     string    `json:"event_id"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// PaymentRequiredEvent asks the payment service to collect payment for a
// booking. Pricing is resolved on the payment side.
type PaymentRequiredEvent struct {
	BookingID string `json:"booking_id"`
	UserID    string `json:"user_id"`
	EventID   string `json:"event_id"`
	Seats     int    `json:"seats"`
}

type NotificationSendEvent struct {
	UserID   string `json:"user_id"`
	Channel  string `json:"channel"`
	Template string `json:"template"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
}

type AuditLogEvent struct {
	Actor    string `json:"actor"`
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Detail   string `json:"detail"`
}

// Events consumed BY Booking Service (from Payment Service)

type PaymentCompletedEvent struct {
	BookingID string    `json:"booking_id"`
	UserID    string    `json:"user_id"`
	PaymentID string    `json:"payment_id"`
	Timestamp time.Time `json:"timestamp"`
}

type PaymentFailedEvent struct {
	BookingID string    `json:"booking_id"`
	UserID    string    `json:"user_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}
