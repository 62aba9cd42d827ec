package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vehicle-rental/internal/data/entity"
	"vehicle-rental/internal/data/repository"
	"vehicle-rental/internal/dto/request"
	"vehicle-rental/internal/dto/response"
	"vehicle-rental/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultRejectNote = "rejected by staff"

type BookingService interface {
	// Public
	CreateBooking(ctx context.Context, req *request.CreateBookingRequest) (*response.BookingResponse, error)
	GetBooking(ctx context.Context, bookingID string) (*response.BookingDetailResponse, error)

	// Staff
	ListBookings(ctx context.Context, req *request.ListBookingsRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	Approve(ctx context.Context, bookingID string, approverID uuid.UUID, req *request.ReviewBookingRequest) (*response.BookingResponse, error)
	Reject(ctx context.Context, bookingID string, approverID uuid.UUID, req *request.ReviewBookingRequest) (*response.BookingResponse, error)
	UpdateStatus(ctx context.Context, bookingID string, actorID uuid.UUID, req *request.UpdateStatusRequest) (*response.BookingResponse, error)
	CompleteBooking(ctx context.Context, bookingID string, req *request.CompleteBookingRequest) (*response.BookingResponse, error)
	Stats(ctx context.Context) (*response.StatsResponse, error)

	// Jobs
	MarkOverdue(ctx context.Context, now time.Time) (int, error)
}

type bookingService struct {
	repo     *repository.Repository
	pricing  *PricingCalculator
	notifier Notifier
	cache    CalendarCache
	now      func() time.Time
	log      *zap.Logger
}

func NewBookingService(repo *repository.Repository, pricing *PricingCalculator, deps Dependencies, log *zap.Logger) BookingService {
	deps = deps.withDefaults()
	return &bookingService{
		repo:     repo,
		pricing:  pricing,
		notifier: deps.Notifier,
		cache:    deps.Cache,
		now:      deps.Clock,
		log:      log.With(zap.String("service", "booking")),
	}
}

// CreateBooking validates and stores a PENDING booking. Checks run cheapest
// and most specific first: dates, vehicle, vehicle status, locations,
// calendar, price. The calendar check and the insert share one transaction
// serialized per vehicle.
func (s *bookingService) CreateBooking(ctx context.Context, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	if err := validateRequest(req); err != nil {
		s.log.Warn("Create booking validation failed", zap.Error(err))
		return nil, err
	}

	vehicleID, err := parseID("vehicle_id", req.VehicleID)
	if err != nil {
		return nil, err
	}
	pickupID, err := parseID("pickup_location_id", req.PickupLocationID)
	if err != nil {
		return nil, err
	}
	returnID, err := parseID("return_location_id", req.ReturnLocationID)
	if err != nil {
		return nil, err
	}

	start, end := req.StartDateTime.UTC(), req.EndDateTime.UTC()
	if err := s.pricing.ValidatePeriod(start, end); err != nil {
		return nil, err
	}

	var booking *entity.Booking
	err = s.repo.Tx.WithinTx(ctx, func(ctx context.Context, tx *repository.Repository) error {
		if err := tx.Booking.LockVehicle(ctx, vehicleID); err != nil {
			return err
		}

		vehicle, err := tx.Vehicle.FindByID(ctx, vehicleID)
		if err != nil {
			return err
		}
		if vehicle == nil {
			return fmt.Errorf("%w: vehicle %s", ErrNotFound, vehicleID)
		}
		if err := ensureVehicleAvailable(vehicle); err != nil {
			return err
		}

		for _, locationID := range []uuid.UUID{pickupID, returnID} {
			location, err := tx.Location.FindByID(ctx, locationID)
			if err != nil {
				return err
			}
			if location == nil {
				return fmt.Errorf("%w: location %s", ErrNotFound, locationID)
			}
		}

		if err := ensureCalendarFree(ctx, tx.Booking, vehicleID, start, end, nil); err != nil {
			return err
		}

		quote, err := s.pricing.Quote(vehicle.DailyRate, start, end)
		if err != nil {
			return err
		}
		if err := checkClientPrice(req, quote); err != nil {
			return err
		}

		now := s.now().UTC()
		booking = &entity.Booking{
			BaseNoDelete: entity.BaseNoDelete{
				ID:        uuid.New(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			Reference:        utils.GenerateBookingRef(now),
			VehicleID:        vehicleID,
			PickupLocationID: pickupID,
			ReturnLocationID: returnID,
			CustomerName:     req.CustomerName,
			CustomerEmail:    req.CustomerEmail,
			CustomerPhone:    req.CustomerPhone,
			StartDateTime:    start,
			EndDateTime:      end,
			TotalPrice:       quote.TotalPrice,
			DepositAmount:    quote.DepositAmount,
			Status:           entity.BookingStatusPending,
			Notes:            req.Notes,
		}

		return mapStoreError(tx.Booking.Create(ctx, booking))
	})
	if err != nil {
		s.logRejected("Create booking rejected", err, zap.String("vehicle_id", req.VehicleID))
		return nil, err
	}

	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("reference", booking.Reference),
		zap.String("vehicle_id", booking.VehicleID.String()),
		zap.Time("start", booking.StartDateTime),
		zap.Time("end", booking.EndDateTime),
		zap.String("total_price", booking.TotalPrice.StringFixed(2)),
	)
	s.afterCommit(ctx, EventBookingCreated, booking)

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

// checkClientPrice accepts omitted price fields and otherwise requires them to
// match the server quote. Deposit may never exceed the total.
func checkClientPrice(req *request.CreateBookingRequest, quote *PriceBreakdown) error {
	total, deposit := quote.TotalPrice, quote.DepositAmount
	if req.TotalPrice != nil {
		if !req.TotalPrice.Round(2).Equal(quote.TotalPrice) {
			return fmt.Errorf("%w: total price %s does not match quote %s",
				ErrValidation, req.TotalPrice.StringFixed(2), quote.TotalPrice.StringFixed(2))
		}
		total = *req.TotalPrice
	}
	if req.DepositAmount != nil {
		if !req.DepositAmount.Round(2).Equal(quote.DepositAmount) {
			return fmt.Errorf("%w: deposit amount %s does not match quote %s",
				ErrValidation, req.DepositAmount.StringFixed(2), quote.DepositAmount.StringFixed(2))
		}
		deposit = *req.DepositAmount
	}
	if deposit.GreaterThan(total) {
		return fmt.Errorf("%w: deposit amount cannot exceed total price", ErrValidation)
	}
	return nil
}

func (s *bookingService) GetBooking(ctx context.Context, bookingID string) (*response.BookingDetailResponse, error) {
	id, err := parseID("booking_id", bookingID)
	if err != nil {
		return nil, err
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("%w: booking %s", ErrNotFound, bookingID)
	}

	detail := &response.BookingDetailResponse{BookingResponse: response.BookingToResponse(booking)}

	payment, err := s.repo.Payment.FindLatestByBookingID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment != nil {
		p := response.PaymentToResponse(payment)
		detail.Payment = &p
	}

	return detail, nil
}

func (s *bookingService) ListBookings(ctx context.Context, req *request.ListBookingsRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var status *entity.BookingStatus
	if req.Status != nil {
		st := entity.BookingStatus(*req.Status)
		status = &st
	}

	bookings, err := s.repo.Booking.List(ctx, status, req.Limit(), req.Offset())
	if err != nil {
		return nil, err
	}

	total, err := s.repo.Booking.Count(ctx, status)
	if err != nil {
		return nil, err
	}

	items := make([]response.BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		items = append(items, response.BookingToResponse(b))
	}

	return response.NewPaginatedResponse(items, req.CurrentPage(), req.Limit(), total), nil
}

// Approve moves a PENDING booking to APPROVED and records the approver.
func (s *bookingService) Approve(ctx context.Context, bookingID string, approverID uuid.UUID, req *request.ReviewBookingRequest) (*response.BookingResponse, error) {
	return s.review(ctx, bookingID, approverID, req, entity.BookingStatusApproved)
}

// Reject cancels a PENDING booking, defaulting the note to "rejected by staff".
func (s *bookingService) Reject(ctx context.Context, bookingID string, approverID uuid.UUID, req *request.ReviewBookingRequest) (*response.BookingResponse, error) {
	return s.review(ctx, bookingID, approverID, req, entity.BookingStatusCancelled)
}

func (s *bookingService) review(ctx context.Context, bookingID string, actorID uuid.UUID, req *request.ReviewBookingRequest, target entity.BookingStatus) (*response.BookingResponse, error) {
	if req == nil {
		req = &request.ReviewBookingRequest{}
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	id, err := parseID("booking_id", bookingID)
	if err != nil {
		return nil, err
	}

	event := EventBookingApproved
	if target == entity.BookingStatusCancelled {
		event = EventBookingRejected
	}

	booking, err := s.transition(ctx, id, event, func(b *entity.Booking) error {
		if err := requireStatus(b.Status, entity.BookingStatusPending, target); err != nil {
			return err
		}
		b.Status = target
		if req.Notes != nil {
			b.Notes = req.Notes
		}
		if target == entity.BookingStatusApproved {
			approver := actorID
			b.ApprovedBy = &approver
		} else if req.Notes == nil {
			note := defaultRejectNote
			b.Notes = &note
		}
		return nil
	})
	if err != nil {
		s.logRejected("Review booking rejected", err,
			zap.String("booking_id", bookingID),
			zap.String("target", string(target)),
			zap.String("actor_id", actorID.String()),
		)
		return nil, err
	}

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

// UpdateStatus is the generic, table driven transition. Entering APPROVED
// records the actor as approver when none is recorded yet.
func (s *bookingService) UpdateStatus(ctx context.Context, bookingID string, actorID uuid.UUID, req *request.UpdateStatusRequest) (*response.BookingResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	id, err := parseID("booking_id", bookingID)
	if err != nil {
		return nil, err
	}
	target := entity.BookingStatus(req.Status)

	booking, err := s.transition(ctx, id, statusEvent(target), func(b *entity.Booking) error {
		if err := checkTransition(b.Status, target); err != nil {
			return err
		}
		b.Status = target
		if req.Notes != nil {
			b.Notes = req.Notes
		}
		if target == entity.BookingStatusApproved && b.ApprovedBy == nil {
			approver := actorID
			b.ApprovedBy = &approver
		}
		return nil
	})
	if err != nil {
		s.logRejected("Update booking status rejected", err,
			zap.String("booking_id", bookingID),
			zap.String("target", req.Status),
		)
		return nil, err
	}

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

// CompleteBooking closes an ONGOING rental. The actual return time is recorded
// only when the caller supplies it.
func (s *bookingService) CompleteBooking(ctx context.Context, bookingID string, req *request.CompleteBookingRequest) (*response.BookingResponse, error) {
	if req == nil {
		req = &request.CompleteBookingRequest{}
	}
	id, err := parseID("booking_id", bookingID)
	if err != nil {
		return nil, err
	}

	booking, err := s.transition(ctx, id, EventBookingCompleted, func(b *entity.Booking) error {
		if err := requireStatus(b.Status, entity.BookingStatusOngoing, entity.BookingStatusCompleted); err != nil {
			return err
		}
		b.Status = entity.BookingStatusCompleted
		if req.ActualReturnDateTime != nil {
			returned := req.ActualReturnDateTime.UTC()
			b.ActualReturnDateTime = &returned
		}
		return nil
	})
	if err != nil {
		s.logRejected("Complete booking rejected", err, zap.String("booking_id", bookingID))
		return nil, err
	}

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) Stats(ctx context.Context) (*response.StatsResponse, error) {
	counts, err := s.repo.Booking.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	revenue, err := s.repo.Payment.Revenue(ctx)
	if err != nil {
		return nil, err
	}

	stats := &response.StatsResponse{
		ByStatus: make(map[entity.BookingStatus]int64, len(counts)),
		Revenue:  revenue,
	}
	for status, n := range counts {
		stats.ByStatus[status] = n
		stats.Total += n
	}

	return stats, nil
}

// MarkOverdue moves every ONGOING booking that ended before now to OVERDUE.
// Bookings that changed status in the meantime are skipped.
func (s *bookingService) MarkOverdue(ctx context.Context, now time.Time) (int, error) {
	candidates, err := s.repo.Booking.FindOverdue(ctx, now)
	if err != nil {
		return 0, err
	}

	marked := 0
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return marked, err
		}

		_, err := s.transition(ctx, candidate.ID, EventBookingOverdue, func(b *entity.Booking) error {
			if err := checkTransition(b.Status, entity.BookingStatusOverdue); err != nil {
				return err
			}
			b.Status = entity.BookingStatusOverdue
			return nil
		})
		if errors.Is(err, ErrInvalidTransition) {
			s.log.Debug("Overdue candidate already moved on", zap.String("booking_id", candidate.ID.String()))
			continue
		}
		if err != nil {
			s.log.Error("Failed to mark booking overdue",
				zap.String("booking_id", candidate.ID.String()),
				zap.Error(err),
			)
			continue
		}
		marked++
	}

	return marked, nil
}

// transition loads the booking FOR UPDATE, lets mutate apply and validate the
// change, then persists it in the same transaction. Notification and cache
// invalidation only happen after commit.
func (s *bookingService) transition(ctx context.Context, id uuid.UUID, event NotificationEvent, mutate func(b *entity.Booking) error) (*entity.Booking, error) {
	var (
		updated *entity.Booking
		from    entity.BookingStatus
	)

	err := s.repo.Tx.WithinTx(ctx, func(ctx context.Context, tx *repository.Repository) error {
		booking, err := tx.Booking.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if booking == nil {
			return fmt.Errorf("%w: booking %s", ErrNotFound, id)
		}

		from = booking.Status
		if err := mutate(booking); err != nil {
			return err
		}
		booking.UpdatedAt = s.now().UTC()

		if err := tx.Booking.Update(ctx, booking); err != nil {
			return mapStoreError(err)
		}
		updated = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Booking status changed",
		zap.String("booking_id", updated.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(updated.Status)),
	)
	s.afterCommit(ctx, event, updated)

	return updated, nil
}

func (s *bookingService) afterCommit(ctx context.Context, event NotificationEvent, booking *entity.Booking) {
	if err := s.cache.Invalidate(ctx, booking.VehicleID); err != nil {
		s.log.Warn("Failed to invalidate vehicle calendar",
			zap.String("vehicle_id", booking.VehicleID.String()),
			zap.Error(err),
		)
	}
	s.notifier.Notify(ctx, event, booking)
}

// logRejected logs caller errors at Warn and everything else at Error.
func (s *bookingService) logRejected(msg string, err error, fields ...zap.Field) {
	logRejected(s.log, msg, err, fields...)
}

func logRejected(log *zap.Logger, msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	if isCallerError(err) {
		log.Warn(msg, fields...)
		return
	}
	log.Error(msg, fields...)
}

func isCallerError(err error) bool {
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrPrecondition, ErrConflict, ErrInvalidTransition} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
