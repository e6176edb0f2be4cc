package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/vogiaan1904/ticketbottle-booking/internal/service"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/breaker"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

type userIDKey struct{}

func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	return id, ok && id != ""
}

type Middleware struct {
	l     logger.Logger
	idSvc service.IdentityService
	rlSvc service.RateLimitService
}

func NewMiddleware(idSvc service.IdentityService, rlSvc service.RateLimitService, l logger.Logger) *Middleware {
	return &Middleware{
		l:     l,
		idSvc: idSvc,
		rlSvc: rlSvc,
	}
}

// Authenticate resolves the bearer credential to a user id and stores it on
// the request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			respondMiddlewareError(w, http.StatusUnauthorized, "Missing credential")
			return
		}

		userID, err := m.idSvc.Verify(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrUnauthorized):
				respondMiddlewareError(w, http.StatusUnauthorized, "Invalid credential")
			case errors.Is(err, breaker.ErrCircuitOpen):
				respondMiddlewareError(w, http.StatusServiceUnavailable, "Authentication temporarily unavailable")
			default:
				m.l.Errorf(r.Context(), "delivery.http.middleware.Authenticate: %v", err)
				respondMiddlewareError(w, http.StatusRequestTimeout, "Authentication timed out")
			}
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey{}, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RateLimit guards a route group with the sliding window configured for
// action, keyed by the authenticated user.
func (m *Middleware) RateLimit(action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := UserIDFromContext(r.Context())
			if !ok {
				// Unauthenticated requests fall back to the peer address.
				identity = r.RemoteAddr
			}

			decision := m.rlSvc.Check(r.Context(), action, identity)
			if !decision.Allowed {
				retryAfter := int(decision.RetryAfter.Seconds())
				w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
				respondMiddlewareJSON(w, http.StatusTooManyRequests, RateLimitResponse{
					Error:      "Rate limit exceeded",
					Limit:      decision.Limit,
					Window:     int(decision.Window.Seconds()),
					Remaining:  decision.Remaining,
					RetryAfter: retryAfter,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func respondMiddlewareJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func respondMiddlewareError(w http.ResponseWriter, statusCode int, message string) {
	respondMiddlewareJSON(w, statusCode, ErrorResponse{Error: message})
}
