package service

import (
	"context"

	"github.com/vogiaan1904/ticketbottle-booking/internal/models"
)

type ReservationService interface {
	Reserve(ctx context.Context, input ReserveInput) (*models.Booking, error)
	GetBooking(ctx context.Context, id, userID string) (*models.Booking, error)
	ListUserBookings(ctx context.Context, userID string) ([]models.Booking, error)
	CancelBooking(ctx context.Context, id, userID string) (*models.Booking, error)

	HandlePaymentCompleted(ctx context.Context, input PaymentCompletedInput) error
	HandlePaymentFailed(ctx context.Context, input PaymentFailedInput) error
	HandleBookingCancelled(ctx context.Context, input BookingCancelledInput) error
}

type RateLimitService interface {
	Check(ctx context.Context, action, identity string) RateLimitDecision
}

type IdentityService interface {
	Verify(ctx context.Context, token string) (string, error)
}

// Dispatcher runs detached units of work, typically event publishes spawned
// from a request's hot path.
type Dispatcher interface {
	Enqueue(ctx context.Context, name string, fn func(ctx context.Context) error) bool
	Close()
}
