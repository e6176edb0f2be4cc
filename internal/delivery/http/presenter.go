package http

import (
	"time"

	"github.com/vogiaan1904/ticketbottle-booking/internal/models"
)

type CreateBookingRequest struct {
	EventID string `json:"event_id" validate:"required"`
	Seats   int    `json:"seats" validate:"required,gte=1"`
}

type BookingResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	EventID   string    `json:"event_id"`
	Seats     int       `json:"seats"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// RateLimitResponse is the 429 body. Window and RetryAfter are in seconds.
type RateLimitResponse struct {
	Error      string `json:"error"`
	Limit      int    `json:"limit"`
	Window     int    `json:"window"`
	Remaining  int    `json:"remaining"`
	RetryAfter int    `json:"retry_after"`
}

func toBookingResponse(bk *models.Booking) BookingResponse {
	return BookingResponse{
		ID:        bk.ID,
		UserID:    bk.UserID,
		EventID:   bk.EventID,
		Seats:     bk.Seats,
		Status:    string(bk.Status),
		CreatedAt: bk.CreatedAt,
	}
}
