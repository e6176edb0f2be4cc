package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/vogiaan1904/ticketbottle-booking/internal/service"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/breaker"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

type Handler struct {
	l         logger.Logger
	bkSvc     service.ReservationService
	validator *validator.Validate
}

func NewHandler(bkSvc service.ReservationService, l logger.Logger) *Handler {
	return &Handler{
		l:         l,
		bkSvc:     bkSvc,
		validator: validator.New(),
	}
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(r.Context(), w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "booking-service",
	})
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		h.respondError(r.Context(), w, http.StatusUnauthorized, "Missing credential")
		return
	}

	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(r.Context(), w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.respondError(r.Context(), w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	bk, err := h.bkSvc.Reserve(r.Context(), service.ReserveInput{
		EventID: req.EventID,
		UserID:  userID,
		Seats:   req.Seats,
	})
	if err != nil {
		h.respondReserveError(w, r, err)
		return
	}

	h.respondJSON(r.Context(), w, http.StatusCreated, toBookingResponse(bk))
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		h.respondError(r.Context(), w, http.StatusUnauthorized, "Missing credential")
		return
	}

	id := chi.URLParam(r, "bookingId")
	bk, err := h.bkSvc.GetBooking(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, service.ErrBookingNotFound) {
			h.respondError(r.Context(), w, http.StatusNotFound, "Booking not found")
			return
		}
		h.l.Errorf(r.Context(), "delivery.http.GetBooking: %v", err)
		h.respondError(r.Context(), w, http.StatusInternalServerError, "Failed to get booking")
		return
	}

	h.respondJSON(r.Context(), w, http.StatusOK, toBookingResponse(bk))
}

func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		h.respondError(r.Context(), w, http.StatusUnauthorized, "Missing credential")
		return
	}

	bookings, err := h.bkSvc.ListUserBookings(r.Context(), userID)
	if err != nil {
		h.l.Errorf(r.Context(), "delivery.http.ListBookings: %v", err)
		h.respondError(r.Context(), w, http.StatusInternalServerError, "Failed to list bookings")
		return
	}

	responses := make([]BookingResponse, 0, len(bookings))
	for i := range bookings {
		responses = append(responses, toBookingResponse(&bookings[i]))
	}

	h.respondJSON(r.Context(), w, http.StatusOK, responses)
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		h.respondError(r.Context(), w, http.StatusUnauthorized, "Missing credential")
		return
	}

	id := chi.URLParam(r, "bookingId")
	bk, err := h.bkSvc.CancelBooking(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, service.ErrBookingNotFound) {
			h.respondError(r.Context(), w, http.StatusNotFound, "Booking not found")
			return
		}
		h.l.Errorf(r.Context(), "delivery.http.CancelBooking: %v", err)
		h.respondError(r.Context(), w, http.StatusInternalServerError, "Failed to cancel booking")
		return
	}

	h.respondJSON(r.Context(), w, http.StatusOK, toBookingResponse(bk))
}

func (h *Handler) respondReserveError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		h.respondError(r.Context(), w, http.StatusBadRequest, "Invalid reservation request")
	case errors.Is(err, service.ErrCapacityExceeded):
		h.respondError(r.Context(), w, http.StatusBadRequest, "Not enough seats available")
	case errors.Is(err, breaker.ErrCircuitOpen):
		h.respondError(r.Context(), w, http.StatusServiceUnavailable, "Dependency temporarily isolated")
	case errors.Is(err, service.ErrDownstreamUnavailable):
		h.respondError(r.Context(), w, http.StatusRequestTimeout, "Downstream service unavailable")
	default:
		// Reconciliation, persistence, and compensation failures land here.
		h.l.Errorf(r.Context(), "delivery.http.CreateBooking: %v", err)
		h.respondError(r.Context(), w, http.StatusInternalServerError, "Failed to create booking")
	}
}

func (h *Handler) respondJSON(ctx context.Context, w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.l.Errorf(ctx, "delivery.http.respondJSON: %v", err)
	}
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, statusCode int, message string) {
	h.respondJSON(ctx, w, statusCode, ErrorResponse{Error: message})
}
