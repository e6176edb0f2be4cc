package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vogiaan1904/ticketbottle-booking/internal/service"
)

func NewRouter(h *Handler, mw *Middleware) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.HealthCheck)

	r.Route("/api/v1/bookings", func(r chi.Router) {
		r.Use(mw.Authenticate)

		r.With(mw.RateLimit(service.ActionBook)).Post("/", h.CreateBooking)
		r.With(mw.RateLimit(service.ActionRead)).Get("/", h.ListBookings)
		r.With(mw.RateLimit(service.ActionRead)).Get("/{bookingId}", h.GetBooking)
		r.With(mw.RateLimit(service.ActionBook)).Delete("/{bookingId}", h.CancelBooking)
	})

	return r
}
