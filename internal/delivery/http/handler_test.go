package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vogiaan1904/ticketbottle-booking/internal/models"
	"github.com/vogiaan1904/ticketbottle-booking/internal/service"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/breaker"
	"github.com/vogiaan1904/ticketbottle-booking/pkg/logger"
)

type mockReservationService struct {
	reserveFn func(ctx context.Context, input service.ReserveInput) (*models.Booking, error)
	getFn     func(ctx context.Context, id, userID string) (*models.Booking, error)
	listFn    func(ctx context.Context, userID string) ([]models.Booking, error)
	cancelFn  func(ctx context.Context, id, userID string) (*models.Booking, error)
}

func (m *mockReservationService) Reserve(ctx context.Context, input service.ReserveInput) (*models.Booking, error) {
	return m.reserveFn(ctx, input)
}

func (m *mockReservationService) GetBooking(ctx context.Context, id, userID string) (*models.Booking, error) {
	return m.getFn(ctx, id, userID)
}

func (m *mockReservationService) ListUserBookings(ctx context.Context, userID string) ([]models.Booking, error) {
	return m.listFn(ctx, userID)
}

func (m *mockReservationService) CancelBooking(ctx context.Context, id, userID string) (*models.Booking, error) {
	return m.cancelFn(ctx, id, userID)
}

func (m *mockReservationService) HandlePaymentCompleted(ctx context.Context, input service.PaymentCompletedInput) error {
	return nil
}

func (m *mockReservationService) HandlePaymentFailed(ctx context.Context, input service.PaymentFailedInput) error {
	return nil
}

func (m *mockReservationService) HandleBookingCancelled(ctx context.Context, input service.BookingCancelledInput) error {
	return nil
}

type mockIdentityService struct {
	verifyFn func(ctx context.Context, token string) (string, error)
}

func (m *mockIdentityService) Verify(ctx context.Context, token string) (string, error) {
	return m.verifyFn(ctx, token)
}

type mockRateLimitService struct {
	checkFn func(ctx context.Context, action, identity string) service.RateLimitDecision
}

func (m *mockRateLimitService) Check(ctx context.Context, action, identity string) service.RateLimitDecision {
	return m.checkFn(ctx, action, identity)
}

type handlerFixture struct {
	bkSvc  *mockReservationService
	idSvc  *mockIdentityService
	rlSvc  *mockRateLimitService
	server http.Handler
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	f := &handlerFixture{
		bkSvc: &mockReservationService{
			reserveFn: func(ctx context.Context, input service.ReserveInput) (*models.Booking, error) {
				return &models.Booking{
					ID:      "bk-1",
					UserID:  input.UserID,
					EventID: input.EventID,
					Seats:   input.Seats,
					Status:  models.BookingStatusConfirmed,
				}, nil
			},
			getFn: func(ctx context.Context, id, userID string) (*models.Booking, error) {
				return nil, service.ErrBookingNotFound
			},
			listFn: func(ctx context.Context, userID string) ([]models.Booking, error) {
				return nil, nil
			},
			cancelFn: func(ctx context.Context, id, userID string) (*models.Booking, error) {
				return nil, service.ErrBookingNotFound
			},
		},
		idSvc: &mockIdentityService{
			verifyFn: func(ctx context.Context, token string) (string, error) { return "user-1", nil },
		},
		rlSvc: &mockRateLimitService{
			checkFn: func(ctx context.Context, action, identity string) service.RateLimitDecision {
				return service.RateLimitDecision{Allowed: true}
			},
		},
	}

	l := logger.InitializeTestZapLogger()
	h := NewHandler(f.bkSvc, l)
	mw := NewMiddleware(f.idSvc, f.rlSvc, l)
	f.server = NewRouter(h, mw)
	return f
}

func (f *handlerFixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func TestCreateBookingCreated(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(http.MethodPost, "/api/v1/bookings", `{"event_id":"evt-1","seats":4}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}

	var body BookingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.ID != "bk-1" || body.UserID != "user-1" || body.Seats != 4 || body.Status != "confirmed" {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestCreateBookingValidation(t *testing.T) {
	f := newHandlerFixture(t)

	cases := []string{
		`not json`,
		`{"seats":4}`,
		`{"event_id":"evt-1"}`,
		`{"event_id":"evt-1","seats":0}`,
	}
	for _, body := range cases {
		if rec := f.do(http.MethodPost, "/api/v1/bookings", body); rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestCreateBookingStatusMapping(t *testing.T) {
	f := newHandlerFixture(t)

	cases := []struct {
		err  error
		want int
	}{
		{service.ErrCapacityExceeded, http.StatusBadRequest},
		{fmt.Errorf("breaker %q: %w", "catalog", breaker.ErrCircuitOpen), http.StatusServiceUnavailable},
		{fmt.Errorf("%w: timeout", service.ErrDownstreamUnavailable), http.StatusRequestTimeout},
		{fmt.Errorf("%w: write failed", service.ErrPersistence), http.StatusInternalServerError},
		{fmt.Errorf("%w: commit rejected", service.ErrReconciliationFailed), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		f.bkSvc.reserveFn = func(ctx context.Context, input service.ReserveInput) (*models.Booking, error) {
			return nil, tc.err
		}
		if rec := f.do(http.MethodPost, "/api/v1/bookings", `{"event_id":"evt-1","seats":1}`); rec.Code != tc.want {
			t.Errorf("error %v: status = %d, want %d", tc.err, rec.Code, tc.want)
		}
	}
}

func TestCreateBookingMissingCredential(t *testing.T) {
	f := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(`{"event_id":"evt-1","seats":1}`))
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestCreateBookingInvalidCredential(t *testing.T) {
	f := newHandlerFixture(t)

	f.idSvc.verifyFn = func(ctx context.Context, token string) (string, error) {
		return "", service.ErrUnauthorized
	}
	if rec := f.do(http.MethodPost, "/api/v1/bookings", `{"event_id":"evt-1","seats":1}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestCreateBookingRateLimited(t *testing.T) {
	f := newHandlerFixture(t)

	f.rlSvc.checkFn = func(ctx context.Context, action, identity string) service.RateLimitDecision {
		return service.RateLimitDecision{
			Allowed:    false,
			Limit:      5,
			Window:     300 * time.Second,
			Remaining:  0,
			RetryAfter: 300 * time.Second,
		}
	}

	rec := f.do(http.MethodPost, "/api/v1/bookings", `{"event_id":"evt-1","seats":1}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "300" {
		t.Errorf("Retry-After = %q, want 300", got)
	}

	var body RateLimitResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Limit != 5 || body.Window != 300 || body.Remaining != 0 || body.RetryAfter != 300 {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestGetBookingNotFound(t *testing.T) {
	f := newHandlerFixture(t)

	if rec := f.do(http.MethodGet, "/api/v1/bookings/bk-404", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestGetBookingFound(t *testing.T) {
	f := newHandlerFixture(t)

	f.bkSvc.getFn = func(ctx context.Context, id, userID string) (*models.Booking, error) {
		return &models.Booking{ID: id, UserID: userID, EventID: "evt-1", Seats: 2, Status: models.BookingStatusConfirmed}, nil
	}

	rec := f.do(http.MethodGet, "/api/v1/bookings/bk-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body BookingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.ID != "bk-1" || body.UserID != "user-1" {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestListBookings(t *testing.T) {
	f := newHandlerFixture(t)

	f.bkSvc.listFn = func(ctx context.Context, userID string) ([]models.Booking, error) {
		return []models.Booking{
			{ID: "bk-1", UserID: userID, EventID: "evt-1", Seats: 2, Status: models.BookingStatusConfirmed},
			{ID: "bk-2", UserID: userID, EventID: "evt-2", Seats: 1, Status: models.BookingStatusCancelled},
		}, nil
	}

	rec := f.do(http.MethodGet, "/api/v1/bookings", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body []BookingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body) != 2 {
		t.Errorf("got %d bookings, want 2", len(body))
	}
}

func TestCancelBooking(t *testing.T) {
	f := newHandlerFixture(t)

	f.bkSvc.cancelFn = func(ctx context.Context, id, userID string) (*models.Booking, error) {
		return &models.Booking{ID: id, UserID: userID, EventID: "evt-1", Seats: 2, Status: models.BookingStatusCancelled}, nil
	}

	rec := f.do(http.MethodDelete, "/api/v1/bookings/bk-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body BookingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != "cancelled" {
		t.Errorf("status = %s, want cancelled", body.Status)
	}
}
