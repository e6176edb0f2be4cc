package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vogiaan1904/ticketbottle-booking/internal/client/catalog"
	kafka "github.com/vogiaan1904/ticketbottle-booking/internal/delivery/kafka"
	"github.com/vogiaan1904/ticketbottle-booking/internal/delivery/kafka/producer"
	"github.com/vogiaan1904/ticketbottle-booking/internal/models"
	pgrepo "github.com/vogiaan1904/ticketbottle-booking/internal/repository/postgres"
	redisrepo "github.com/vogiaan1904/ticketbottle-booking/internal/repository/redis"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/breaker"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/retry"
)

type implReservationService struct {
	l           logger.Logger
	counterRepo redisrepo.CounterRepository
	bookingRepo pgrepo.BookingRepository
	catalogCli  catalog.Client
	prod        producer.Producer
	disp        Dispatcher
	brk         *breaker.Breaker
	retrier     *retry.Retrier
}

func NewReservationService(
	counterRepo redisrepo.CounterRepository,
	bookingRepo pgrepo.BookingRepository,
	catalogCli catalog.Client,
	prod producer.Producer,
	disp Dispatcher,
	brk *breaker.Breaker,
	retrier *retry.Retrier,
	l logger.Logger,
) ReservationService {
	return &implReservationService{
		l:           l,
		counterRepo: counterRepo,
		bookingRepo: bookingRepo,
		catalogCli:  catalogCli,
		prod:        prod,
		disp:        disp,
		brk:         brk,
		retrier:     retrier,
	}
}

// Reserve holds seats, reconciles the hold against authoritative capacity,
// persists the booking, and compensates backward on partial failure. The
// lifecycle event is detached and never blocks the result.
//
// Retried client requests are not deduplicated; a retry after a timeout may
// create a second booking for the same intent.
func (s *implReservationService) Reserve(ctx context.Context, input ReserveInput) (*models.Booking, error) {
	if input.EventID == "" || input.UserID == "" || input.Seats <= 0 {
		return nil, ErrValidation
	}

	capacity, err := s.fetchCapacity(ctx, input.EventID)
	if err != nil {
		return nil, err
	}

	// The capacity bound is enforced inside the store's atomic script, so
	// concurrent holds cannot both squeeze past the check.
	held, current, err := s.counterRepo.IncrementWithCap(ctx, input.EventID, int64(input.Seats), capacity)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownstreamUnavailable, err)
	}
	if !held {
		s.l.Infof(ctx, "service.reservation.Reserve: capacity exceeded: event_id=%s seats=%d counter=%d capacity=%d",
			input.EventID, input.Seats, current, capacity)
		return nil, ErrCapacityExceeded
	}

	if err := s.commitSeats(ctx, input.EventID, input.Seats); err != nil {
		return nil, s.compensateHold(ctx, input.EventID, input.Seats,
			fmt.Errorf("%w: %v", ErrReconciliationFailed, err))
	}

	now := time.Now().UTC()
	bk := &models.Booking{
		ID:        uuid.NewString(),
		UserID:    input.UserID,
		EventID:   input.EventID,
		Seats:     input.Seats,
		Status:    models.BookingStatusConfirmed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.bookingRepo.Create(ctx, bk); err != nil {
		// The authoritative decrement has no inverse call; only the hold is
		// released. Known reconciliation gap, surfaced here rather than hidden.
		s.l.Errorf(ctx, "service.reservation.Reserve: ledger write failed after capacity commit: event_id=%s seats=%d: %v",
			input.EventID, input.Seats, err)
		return nil, s.compensateHold(ctx, input.EventID, input.Seats,
			fmt.Errorf("%w: %v", ErrPersistence, err))
	}

	s.publishReserved(ctx, bk)

	return bk, nil
}

func (s *implReservationService) GetBooking(ctx context.Context, id, userID string) (*models.Booking, error) {
	bk, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgrepo.ErrBookingNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	// Another user's booking reads as absent, not forbidden.
	if bk.UserID != userID {
		return nil, ErrBookingNotFound
	}

	return bk, nil
}

func (s *implReservationService) ListUserBookings(ctx context.Context, userID string) ([]models.Booking, error) {
	bookings, err := s.bookingRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return bookings, nil
}

func (s *implReservationService) CancelBooking(ctx context.Context, id, userID string) (*models.Booking, error) {
	bk, err := s.GetBooking(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if bk.Status == models.BookingStatusCancelled {
		return bk, nil
	}

	if err := s.bookingRepo.UpdateStatus(ctx, bk.ID, models.BookingStatusCancelled); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	bk.Status = models.BookingStatusCancelled

	s.releaseHold(ctx, bk.EventID, bk.Seats)
	s.publishCancelled(ctx, bk)

	return bk, nil
}

// HandlePaymentCompleted confirms a pending booking. Redelivered events are
// no-ops once the booking is already confirmed.
func (s *implReservationService) HandlePaymentCompleted(ctx context.Context, input PaymentCompletedInput) error {
	bk, err := s.bookingRepo.GetByID(ctx, input.BookingID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrBookingNotFound) {
			s.l.Warnf(ctx, "service.reservation.HandlePaymentCompleted: unknown booking %s", input.BookingID)
			return nil
		}
		return err
	}

	if bk.Status == models.BookingStatusConfirmed {
		return nil
	}
	if bk.Status == models.BookingStatusCancelled || bk.Status == models.BookingStatusFailed {
		s.l.Warnf(ctx, "service.reservation.HandlePaymentCompleted: booking %s already %s", bk.ID, bk.Status)
		return nil
	}

	if err := s.bookingRepo.UpdateStatus(ctx, bk.ID, models.BookingStatusConfirmed); err != nil {
		return err
	}

	confirmedAt := time.Now().UTC()
	s.disp.Enqueue(ctx, "booking.confirmed", func(ctx context.Context) error {
		return s.prod.PublishBookingConfirmed(ctx, kafka.BookingConfirmedEvent{
			BookingID:   bk.ID,
			UserID:      bk.UserID,
			EventID:     bk.EventID,
			ConfirmedAt: confirmedAt,
		})
	})
	s.disp.Enqueue(ctx, "notification.send", func(ctx context.Context) error {
		return s.prod.PublishNotificationSend(ctx, kafka.NotificationSendEvent{
			UserID:   bk.UserID,
			Channel:  "email",
			Template: "booking_confirmed",
			Subject:  "Your booking is confirmed",
		})
	})

	return nil
}

// HandlePaymentFailed fails the booking and releases its seat hold.
func (s *implReservationService) HandlePaymentFailed(ctx context.Context, input PaymentFailedInput) error {
	bk, err := s.bookingRepo.GetByID(ctx, input.BookingID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrBookingNotFound) {
			s.l.Warnf(ctx, "service.reservation.HandlePaymentFailed: unknown booking %s", input.BookingID)
			return nil
		}
		return err
	}

	if bk.Status == models.BookingStatusFailed || bk.Status == models.BookingStatusCancelled {
		return nil
	}

	if err := s.bookingRepo.UpdateStatus(ctx, bk.ID, models.BookingStatusFailed); err != nil {
		return err
	}

	s.releaseHold(ctx, bk.EventID, bk.Seats)
	s.disp.Enqueue(ctx, "notification.send", func(ctx context.Context) error {
		return s.prod.PublishNotificationSend(ctx, kafka.NotificationSendEvent{
			UserID:   bk.UserID,
			Channel:  "email",
			Template: "payment_failed",
			Subject:  "Payment failed for your booking",
			Body:     input.Reason,
		})
	})

	return nil
}

// HandleBookingCancelled applies a cancellation originated outside this
// service, e.g. by an admin tool publishing to the bus.
func (s *implReservationService) HandleBookingCancelled(ctx context.Context, input BookingCancelledInput) error {
	bk, err := s.bookingRepo.GetByID(ctx, input.BookingID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrBookingNotFound) {
			s.l.Warnf(ctx, "service.reservation.HandleBookingCancelled: unknown booking %s", input.BookingID)
			return nil
		}
		return err
	}

	if bk.Status == models.BookingStatusCancelled {
		return nil
	}

	if err := s.bookingRepo.UpdateStatus(ctx, bk.ID, models.BookingStatusCancelled); err != nil {
		return err
	}

	s.releaseHold(ctx, bk.EventID, bk.Seats)
	return nil
}

// fetchCapacity reads authoritative capacity behind the breaker with
// retries. An open breaker is terminal for the enclosing policy; retrying
// into it only burns the delay budget.
func (s *implReservationService) fetchCapacity(ctx context.Context, eventID string) (int64, error) {
	var capacity int64

	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		err := s.brk.Call(ctx, func(ctx context.Context) error {
			c, err := s.catalogCli.GetCapacity(ctx, eventID)
			if err != nil {
				return err
			}
			capacity = c
			return nil
		})
		if err != nil && errors.Is(err, breaker.ErrCircuitOpen) {
			return retry.Permanent(err)
		}
		return err
	})
	if err != nil {
		if errors.Is(err, breaker.ErrCircuitOpen) {
			return 0, err
		}
		s.l.Errorf(ctx, "service.reservation.fetchCapacity: %v", err)
		return 0, fmt.Errorf("%w: %v", ErrDownstreamUnavailable, err)
	}

	return capacity, nil
}

// commitSeats decrements authoritative capacity. The commit is not
// idempotent, so it runs once behind the breaker without retries.
func (s *implReservationService) commitSeats(ctx context.Context, eventID string, seats int) error {
	return s.brk.Call(ctx, func(ctx context.Context) error {
		return s.catalogCli.CommitSeats(ctx, eventID, seats)
	})
}

// compensateHold releases the seat hold taken earlier in the saga. A failed
// release is layered onto the original error, never swallowed.
func (s *implReservationService) compensateHold(ctx context.Context, eventID string, seats int, cause error) error {
	if _, err := s.counterRepo.DecrementBy(ctx, eventID, int64(seats)); err != nil {
		s.l.Errorf(ctx, "service.reservation.compensateHold: event_id=%s seats=%d: %v", eventID, seats, err)
		return errors.Join(cause, ErrCompensationFailed)
	}
	return cause
}

func (s *implReservationService) releaseHold(ctx context.Context, eventID string, seats int) {
	if _, err := s.counterRepo.DecrementBy(ctx, eventID, int64(seats)); err != nil {
		s.l.Errorf(ctx, "service.reservation.releaseHold: event_id=%s seats=%d: %v", eventID, seats, err)
	}
}

func (s *implReservationService) publishReserved(ctx context.Context, bk *models.Booking) {
	s.disp.Enqueue(ctx, "booking.created", func(ctx context.Context) error {
		return s.prod.PublishBookingCreated(ctx, kafka.BookingCreatedEvent{
			BookingID: bk.ID,
			UserID:    bk.UserID,
			EventID:   bk.EventID,
			Seats:     bk.Seats,
			Status:    string(bk.Status),
			CreatedAt: bk.CreatedAt,
		})
	})
	s.disp.Enqueue(ctx, "payment.required", func(ctx context.Context) error {
		return s.prod.PublishPaymentRequired(ctx, kafka.PaymentRequiredEvent{
			BookingID: bk.ID,
			UserID:    bk.UserID,
			EventID:   bk.EventID,
			Seats:     bk.Seats,
		})
	})
	s.disp.Enqueue(ctx, "audit.log", func(ctx context.Context) error {
		return s.prod.PublishAuditLog(ctx, kafka.AuditLogEvent{
			Actor:    bk.UserID,
			Action:   "booking.reserve",
			Resource: bk.ID,
			Detail:   fmt.Sprintf("event=%s seats=%d", bk.EventID, bk.Seats),
		})
	})
}

func (s *implReservationService) publishCancelled(ctx context.Context, bk *models.Booking) {
	cancelledAt := time.Now().UTC()
	s.disp.Enqueue(ctx, "booking.cancelled", func(ctx context.Context) error {
		return s.prod.PublishBookingCancelled(ctx, kafka.BookingCancelledEvent{
			BookingID:   bk.ID,
			UserID:      bk.UserID,
			EventID:     bk.EventID,
			Seats:       bk.Seats,
			CancelledAt: cancelledAt,
		})
	})
	s.disp.Enqueue(ctx, "audit.log", func(ctx context.Context) error {
		return s.prod.PublishAuditLog(ctx, kafka.AuditLogEvent{
			Actor:    bk.UserID,
			Action:   "booking.cancel",
			Resource: bk.ID,
			Detail:   fmt.Sprintf("event=%s seats=%d", bk.EventID, bk.Seats),
		})
	})
}
