package service

import "time"

type ReserveInput struct {
	EventID string `json:"event_id" validate:"required"`
	UserID  string `json:"-"`
	Seats   int    `json:"seats" validate:"required,gte=1"`
}

type PaymentCompletedInput struct {
	BookingID string
	UserID    string
	PaymentID string
}

type PaymentFailedInput struct {
	BookingID string
	UserID    string
	Reason    string
}

type BookingCancelledInput struct {
	BookingID string
	UserID    string
}

// RateLimitDecision reports the outcome of a sliding-window admission check.
type RateLimitDecision struct {
	Allowed    bool
	Limit      int
	Window     time.Duration
	Remaining  int
	RetryAfter time.Duration
}
