package adaptor_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vehicle-rental/internal/adaptor"
	"vehicle-rental/internal/data/entity"
	"vehicle-rental/internal/dto/request"
	"vehicle-rental/internal/dto/response"
	"vehicle-rental/internal/usecase"
	"vehicle-rental/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  json.RawMessage `json:"errors"`
}

type fixture struct {
	bookings *mockBookingService
	payments *mockPaymentService
	vehicles *mockVehicleService
	router   *chi.Mux
	staffID  uuid.UUID
}

// newFixture mounts the handlers the way the wiring does, with a stand-in
// for session auth that injects a fixed staff member.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		bookings: new(mockBookingService),
		payments: new(mockPaymentService),
		vehicles: new(mockVehicleService),
		router:   chi.NewRouter(),
		staffID:  uuid.New(),
	}
	t.Cleanup(func() {
		f.bookings.AssertExpectations(t)
		f.payments.AssertExpectations(t)
		f.vehicles.AssertExpectations(t)
	})

	log := zap.NewNop()
	booking := adaptor.NewBookingHandler(f.bookings, log)
	payment := adaptor.NewPaymentHandler(f.payments, log)
	vehicle := adaptor.NewVehicleHandler(f.vehicles, log)

	f.router.Post("/api/bookings", booking.CreateBooking)
	f.router.Get("/api/bookings/{id}", booking.GetBooking)
	f.router.Post("/api/payments/webhook", payment.Webhook)
	f.router.Get("/api/vehicles/available", vehicle.ListAvailable)
	f.router.Get("/api/locations", vehicle.ListLocations)

	f.router.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				ctx := utils.SetUserContext(req.Context(), f.staffID, string(entity.RoleStaff))
				next.ServeHTTP(w, req.WithContext(ctx))
			})
		})
		r.Get("/api/staff/bookings", booking.ListBookings)
		r.Put("/api/staff/bookings/{id}/approve", booking.Approve)
		r.Put("/api/staff/bookings/{id}/complete", booking.CompleteBooking)
	})

	// Reached without the auth stand-in.
	f.router.Put("/anonymous/bookings/{id}/reject", booking.Reject)

	return f
}

func (f *fixture) do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestGetBooking_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"Field errors", usecase.FieldErrors{"customer_email": "must be a valid email"}, http.StatusBadRequest},
		{"Validation", fmt.Errorf("%w: invalid booking id", usecase.ErrValidation), http.StatusBadRequest},
		{"Not found", fmt.Errorf("%w: booking", usecase.ErrNotFound), http.StatusNotFound},
		{"Precondition", fmt.Errorf("%w: booking is not pending", usecase.ErrPrecondition), http.StatusConflict},
		{"Conflict", fmt.Errorf("%w: period taken", usecase.ErrConflict), http.StatusConflict},
		{"Provider down", fmt.Errorf("%w: timeout", usecase.ErrProviderUnavailable), http.StatusServiceUnavailable},
		{"Unexpected", fmt.Errorf("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.bookings.On("GetBooking", mock.Anything, "b-1").Return(nil, tt.err)

			rec, env := f.do(t, http.MethodGet, "/api/bookings/b-1", "")

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.False(t, env.Status)
			if tt.wantStatus == http.StatusServiceUnavailable {
				assert.NotEmpty(t, rec.Header().Get("Retry-After"))
			}
		})
	}
}

func TestCreateBooking(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		f := newFixture(t)
		f.bookings.On("CreateBooking", mock.Anything, mock.MatchedBy(func(req *request.CreateBookingRequest) bool {
			return req.CustomerName == "Siti Rahma"
		})).Return(&response.BookingResponse{ID: "b-1", Status: entity.BookingStatusPending}, nil)

		rec, env := f.do(t, http.MethodPost, "/api/bookings", `{"customer_name":"Siti Rahma"}`)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.True(t, env.Status)
		assert.Contains(t, string(env.Data), `"status":"PENDING"`)
	})

	t.Run("Malformed body", func(t *testing.T) {
		f := newFixture(t)

		rec, env := f.do(t, http.MethodPost, "/api/bookings", `{"customer_name":`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid request body", env.Message)
	})

	t.Run("Field errors are returned by name", func(t *testing.T) {
		f := newFixture(t)
		f.bookings.On("CreateBooking", mock.Anything, mock.Anything).
			Return(nil, usecase.FieldErrors{"vehicle_id": "vehicle_id is required"})

		rec, env := f.do(t, http.MethodPost, "/api/bookings", `{}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"vehicle_id":"vehicle_id is required"}`, string(env.Errors))
	})
}

func TestApprove(t *testing.T) {
	t.Run("Empty body is accepted", func(t *testing.T) {
		f := newFixture(t)
		f.bookings.On("Approve", mock.Anything, "b-1", f.staffID, &request.ReviewBookingRequest{}).
			Return(&response.BookingResponse{ID: "b-1", Status: entity.BookingStatusApproved}, nil)

		rec, env := f.do(t, http.MethodPut, "/api/staff/bookings/b-1/approve", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, env.Status)
	})

	t.Run("Invalid transition reports allowed statuses", func(t *testing.T) {
		f := newFixture(t)
		f.bookings.On("Approve", mock.Anything, "b-1", f.staffID, mock.Anything).
			Return(nil, &usecase.InvalidTransitionError{
				From:    entity.BookingStatusOngoing,
				To:      entity.BookingStatusApproved,
				Allowed: []entity.BookingStatus{entity.BookingStatusCompleted, entity.BookingStatusOverdue},
			})

		rec, env := f.do(t, http.MethodPut, "/api/staff/bookings/b-1/approve", `{"notes":"ok"}`)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.JSONEq(t, `{"current":"ONGOING","allowed":["COMPLETED","OVERDUE"]}`, string(env.Errors))
	})

	t.Run("Anonymous caller", func(t *testing.T) {
		f := newFixture(t)

		rec, _ := f.do(t, http.MethodPut, "/anonymous/bookings/b-1/reject", "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestCompleteBooking_OptionalBody(t *testing.T) {
	f := newFixture(t)
	f.bookings.On("CompleteBooking", mock.Anything, "b-1", &request.CompleteBookingRequest{}).
		Return(&response.BookingResponse{ID: "b-1", Status: entity.BookingStatusCompleted}, nil)

	rec, _ := f.do(t, http.MethodPut, "/api/staff/bookings/b-1/complete", "")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListBookings_QueryDefaults(t *testing.T) {
	f := newFixture(t)
	f.bookings.On("ListBookings", mock.Anything, mock.MatchedBy(func(req *request.ListBookingsRequest) bool {
		return req.Page == 1 && req.PerPage == 20 && req.Status != nil && *req.Status == "PENDING"
	})).Return(&response.PaginatedResponse[response.BookingResponse]{}, nil)

	rec, _ := f.do(t, http.MethodGet, "/api/staff/bookings?status=PENDING&page=zero", "")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhook(t *testing.T) {
	t.Run("Raw payload and signature are forwarded", func(t *testing.T) {
		f := newFixture(t)
		payload := `{"type":"payment_intent.succeeded"}`
		f.payments.On("HandleWebhook", mock.Anything, []byte(payload), "t=1,v1=abc").Return(nil)

		req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(payload))
		req.Header.Set("Stripe-Signature", "t=1,v1=abc")
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Bad signature", func(t *testing.T) {
		f := newFixture(t)
		f.payments.On("HandleWebhook", mock.Anything, mock.Anything, "").
			Return(fmt.Errorf("%w: signature mismatch", usecase.ErrValidation))

		rec, _ := f.do(t, http.MethodPost, "/api/payments/webhook", `{}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Oversized payload", func(t *testing.T) {
		f := newFixture(t)

		rec, _ := f.do(t, http.MethodPost, "/api/payments/webhook", strings.Repeat("x", 65<<10))

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}

func TestListAvailable_Period(t *testing.T) {
	t.Run("Missing and malformed bounds", func(t *testing.T) {
		f := newFixture(t)

		rec, env := f.do(t, http.MethodGet, "/api/vehicles/available?end=tomorrow", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"start":"start is required","end":"end must be RFC3339"}`, string(env.Errors))
	})

	t.Run("Parsed into UTC", func(t *testing.T) {
		f := newFixture(t)
		want := request.PeriodQuery{
			Start: time.Date(2026, 3, 3, 2, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 3, 5, 2, 0, 0, 0, time.UTC),
		}
		f.vehicles.On("ListAvailable", mock.Anything, want, request.PaginatedRequest{Page: 2, PerPage: 20}).
			Return([]response.VehicleResponse{}, nil)

		rec, _ := f.do(t, http.MethodGet,
			"/api/vehicles/available?start=2026-03-03T09:00:00%2B07:00&end=2026-03-05T02:00:00Z&page=2", "")

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestListLocations_CityFilter(t *testing.T) {
	f := newFixture(t)
	f.vehicles.On("ListLocations", mock.Anything, mock.MatchedBy(func(city *string) bool {
		return city != nil && *city == "Bandung"
	})).Return([]response.LocationResponse{{City: "Bandung"}}, nil)

	rec, env := f.do(t, http.MethodGet, "/api/locations?city=%20Bandung%20", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), "Bandung")
}
