package adaptor_test

import (
	"context"
	"time"

	"vehicle-rental/internal/dto/request"
	"vehicle-rental/internal/dto/response"
	"vehicle-rental/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockBookingService struct {
	mock.Mock
}

func (m *mockBookingService) CreateBooking(ctx context.Context, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*response.BookingResponse)
	return resp, args.Error(1)
}

func (m *mockBookingService) GetBooking(ctx context.Context, bookingID string) (*response.BookingDetailResponse, error) {
	args := m.Called(ctx, bookingID)
	resp, _ := args.Get(0).(*response.BookingDetailResponse)
	return resp, args.Error(1)
}

func (m *mockBookingService) ListBookings(ctx context.Context, req *request.ListBookingsRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*response.PaginatedResponse[response.BookingResponse])
	return resp, args.Error(1)
}

func (m *mockBookingService) Approve(ctx context.Context, bookingID string, approverID uuid.UUID, req *request.ReviewBookingRequest) (*response.BookingResponse, error) {
	args := m.Called(ctx, bookingID, approverID, req)
	resp, _ := args.Get(0).(*response.BookingResponse)
	return resp, args.Error(1)
}

func (m *mockBookingService) Reject(ctx context.Context, bookingID string, approverID uuid.UUID, req *request.ReviewBookingRequest) (*response.BookingResponse, error) {
	args := m.Called(ctx, bookingID, approverID, req)
	resp, _ := args.Get(0).(*response.BookingResponse)
	return resp, args.Error(1)
}

func (m *mockBookingService) UpdateStatus(ctx context.Context, bookingID string, actorID uuid.UUID, req *request.UpdateStatusRequest) (*response.BookingResponse, error) {
	args := m.Called(ctx, bookingID, actorID, req)
	resp, _ := args.Get(0).(*response.BookingResponse)
	return resp, args.Error(1)
}

func (m *mockBookingService) CompleteBooking(ctx context.Context, bookingID string, req *request.CompleteBookingRequest) (*response.BookingResponse, error) {
	args := m.Called(ctx, bookingID, req)
	resp, _ := args.Get(0).(*response.BookingResponse)
	return resp, args.Error(1)
}

func (m *mockBookingService) Stats(ctx context.Context) (*response.StatsResponse, error) {
	args := m.Called(ctx)
	resp, _ := args.Get(0).(*response.StatsResponse)
	return resp, args.Error(1)
}

func (m *mockBookingService) MarkOverdue(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}

type mockPaymentService struct {
	mock.Mock
}

func (m *mockPaymentService) CreatePaymentIntent(ctx context.Context, req *request.CreatePaymentIntentRequest) (*response.PaymentIntentResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*response.PaymentIntentResponse)
	return resp, args.Error(1)
}

func (m *mockPaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	return m.Called(ctx, payload, signature).Error(0)
}

func (m *mockPaymentService) HandlePaymentSucceeded(ctx context.Context, event *usecase.PaymentEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockPaymentService) RefundPayment(ctx context.Context, bookingID string) (*response.PaymentResponse, error) {
	args := m.Called(ctx, bookingID)
	resp, _ := args.Get(0).(*response.PaymentResponse)
	return resp, args.Error(1)
}

type mockVehicleService struct {
	mock.Mock
}

func (m *mockVehicleService) Quote(ctx context.Context, vehicleID string, period request.PeriodQuery) (*response.QuoteResponse, error) {
	args := m.Called(ctx, vehicleID, period)
	resp, _ := args.Get(0).(*response.QuoteResponse)
	return resp, args.Error(1)
}

func (m *mockVehicleService) CheckAvailability(ctx context.Context, vehicleID string, period request.PeriodQuery) (*response.AvailabilityResponse, error) {
	args := m.Called(ctx, vehicleID, period)
	resp, _ := args.Get(0).(*response.AvailabilityResponse)
	return resp, args.Error(1)
}

func (m *mockVehicleService) ListAvailable(ctx context.Context, period request.PeriodQuery, page request.PaginatedRequest) ([]response.VehicleResponse, error) {
	args := m.Called(ctx, period, page)
	resp, _ := args.Get(0).([]response.VehicleResponse)
	return resp, args.Error(1)
}

func (m *mockVehicleService) UpdateStatus(ctx context.Context, vehicleID string, req *request.UpdateVehicleStatusRequest) (*response.VehicleResponse, error) {
	args := m.Called(ctx, vehicleID, req)
	resp, _ := args.Get(0).(*response.VehicleResponse)
	return resp, args.Error(1)
}

func (m *mockVehicleService) ListLocations(ctx context.Context, city *string) ([]response.LocationResponse, error) {
	args := m.Called(ctx, city)
	resp, _ := args.Get(0).([]response.LocationResponse)
	return resp, args.Error(1)
}
