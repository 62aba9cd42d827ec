package usecase

import (
	"context"
	"fmt"
	"time"

	"vehicle-rental/internal/data/entity"
	"vehicle-rental/internal/data/repository"
	"vehicle-rental/internal/dto/request"
	"vehicle-rental/internal/dto/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type VehicleService interface {
	Quote(ctx context.Context, vehicleID string, period request.PeriodQuery) (*response.QuoteResponse, error)
	CheckAvailability(ctx context.Context, vehicleID string, period request.PeriodQuery) (*response.AvailabilityResponse, error)
	ListAvailable(ctx context.Context, period request.PeriodQuery, page request.PaginatedRequest) ([]response.VehicleResponse, error)
	UpdateStatus(ctx context.Context, vehicleID string, req *request.UpdateVehicleStatusRequest) (*response.VehicleResponse, error)
	ListLocations(ctx context.Context, city *string) ([]response.LocationResponse, error)
}

type vehicleService struct {
	repo    *repository.Repository
	pricing *PricingCalculator
	cache   CalendarCache
	now     func() time.Time
	log     *zap.Logger
}

func NewVehicleService(repo *repository.Repository, pricing *PricingCalculator, deps Dependencies, log *zap.Logger) VehicleService {
	deps = deps.withDefaults()
	return &vehicleService{
		repo:    repo,
		pricing: pricing,
		cache:   deps.Cache,
		now:     deps.Clock,
		log:     log.With(zap.String("service", "vehicle")),
	}
}

func (s *vehicleService) findVehicle(ctx context.Context, vehicleID string) (*entity.Vehicle, error) {
	id, err := parseID("vehicle_id", vehicleID)
	if err != nil {
		return nil, err
	}

	vehicle, err := s.repo.Vehicle.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, fmt.Errorf("%w: vehicle %s", ErrNotFound, vehicleID)
	}
	return vehicle, nil
}

func (s *vehicleService) Quote(ctx context.Context, vehicleID string, period request.PeriodQuery) (*response.QuoteResponse, error) {
	vehicle, err := s.findVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	quote, err := s.pricing.Quote(vehicle.DailyRate, period.Start, period.End)
	if err != nil {
		return nil, err
	}

	return &response.QuoteResponse{
		VehicleID:     vehicle.ID.String(),
		StartDateTime: period.Start,
		EndDateTime:   period.End,
		DurationDays:  quote.DurationDays,
		DailyRate:     quote.DailyRate,
		BasePrice:     quote.BasePrice,
		DepositAmount: quote.DepositAmount,
		TotalPrice:    quote.TotalPrice,
		Currency:      quote.Currency,
	}, nil
}

// CheckAvailability answers from the cached calendar when possible. The
// answer is advisory; CreateBooking decides under lock.
func (s *vehicleService) CheckAvailability(ctx context.Context, vehicleID string, period request.PeriodQuery) (*response.AvailabilityResponse, error) {
	if !period.End.After(period.Start) {
		return nil, fmt.Errorf("%w: end date must be after start date", ErrValidation)
	}

	vehicle, err := s.findVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	intervals, err := s.calendar(ctx, vehicle.ID)
	if err != nil {
		return nil, err
	}

	conflicts := ConflictingIntervals(intervals, period.Start, period.End, nil)
	resp := &response.AvailabilityResponse{
		VehicleID:     vehicle.ID.String(),
		StartDateTime: period.Start,
		EndDateTime:   period.End,
		Available:     vehicle.Status == entity.VehicleStatusAvailable && len(conflicts) == 0,
		VehicleStatus: vehicle.Status,
	}
	for _, c := range conflicts {
		resp.Conflicts = append(resp.Conflicts, response.BusyPeriod{Start: c.Start, End: c.End})
	}

	return resp, nil
}

func (s *vehicleService) calendar(ctx context.Context, vehicleID uuid.UUID) ([]entity.BookingInterval, error) {
	intervals, hit, err := s.cache.Get(ctx, vehicleID)
	if err != nil {
		s.log.Warn("Calendar cache read failed, using database",
			zap.String("vehicle_id", vehicleID.String()),
			zap.Error(err),
		)
	}
	if hit {
		return intervals, nil
	}

	intervals, err = s.repo.Booking.FindLiveIntervals(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, vehicleID, intervals); err != nil {
		s.log.Warn("Calendar cache write failed",
			zap.String("vehicle_id", vehicleID.String()),
			zap.Error(err),
		)
	}

	return intervals, nil
}

func (s *vehicleService) ListAvailable(ctx context.Context, period request.PeriodQuery, page request.PaginatedRequest) ([]response.VehicleResponse, error) {
	if !period.End.After(period.Start) {
		return nil, fmt.Errorf("%w: end date must be after start date", ErrValidation)
	}

	vehicles, err := s.repo.Vehicle.FindAvailableInRange(ctx, period.Start, period.End, page.Limit(), page.Offset())
	if err != nil {
		return nil, err
	}

	items := make([]response.VehicleResponse, 0, len(vehicles))
	for _, v := range vehicles {
		items = append(items, response.VehicleToResponse(v))
	}
	return items, nil
}

// UpdateStatus is the staff driven vehicle status change. Bookings are not
// touched; a vehicle leaving AVAILABLE only blocks new bookings.
func (s *vehicleService) UpdateStatus(ctx context.Context, vehicleID string, req *request.UpdateVehicleStatusRequest) (*response.VehicleResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	vehicle, err := s.findVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	status := entity.VehicleStatus(req.Status)
	if err := s.repo.Vehicle.UpdateStatus(ctx, vehicle.ID, status); err != nil {
		return nil, err
	}

	s.log.Info("Vehicle status changed",
		zap.String("vehicle_id", vehicle.ID.String()),
		zap.String("from", string(vehicle.Status)),
		zap.String("to", string(status)),
	)

	vehicle.Status = status
	vehicle.UpdatedAt = s.now().UTC()
	resp := response.VehicleToResponse(vehicle)
	return &resp, nil
}

func (s *vehicleService) ListLocations(ctx context.Context, city *string) ([]response.LocationResponse, error) {
	locations, err := s.repo.Location.FindAll(ctx, city)
	if err != nil {
		return nil, err
	}

	items := make([]response.LocationResponse, 0, len(locations))
	for _, l := range locations {
		items = append(items, response.LocationToResponse(l))
	}
	return items, nil
}
