package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"vehicle-rental/internal/data/entity"
	"vehicle-rental/internal/data/repository"
	"vehicle-rental/internal/dto/request"
	"vehicle-rental/internal/dto/response"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PaymentService interface {
	CreatePaymentIntent(ctx context.Context, req *request.CreatePaymentIntentRequest) (*response.PaymentIntentResponse, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	HandlePaymentSucceeded(ctx context.Context, event *PaymentEvent) error
	RefundPayment(ctx context.Context, bookingID string) (*response.PaymentResponse, error)
}

type paymentService struct {
	repo     *repository.Repository
	provider PaymentProvider
	notifier Notifier
	cache    CalendarCache
	currency string
	timeout  time.Duration
	now      func() time.Time
	log      *zap.Logger
}

func NewPaymentService(repo *repository.Repository, currency string, timeout time.Duration, deps Dependencies, log *zap.Logger) PaymentService {
	deps = deps.withDefaults()
	if currency == "" {
		currency = DefaultCurrency
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &paymentService{
		repo:     repo,
		provider: deps.Provider,
		notifier: deps.Notifier,
		cache:    deps.Cache,
		currency: currency,
		timeout:  timeout,
		now:      deps.Clock,
		log:      log.With(zap.String("service", "payment")),
	}
}

// CreatePaymentIntent opens a deposit payment for a PENDING booking. The
// amount must equal the booking deposit in cents exactly.
func (s *paymentService) CreatePaymentIntent(ctx context.Context, req *request.CreatePaymentIntentRequest) (*response.PaymentIntentResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	bookingID, err := parseID("booking_id", req.BookingID)
	if err != nil {
		return nil, err
	}

	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("%w: booking %s", ErrNotFound, bookingID)
	}
	if booking.Status != entity.BookingStatusPending {
		return nil, fmt.Errorf("%w: booking is %s, payment requires PENDING", ErrPrecondition, booking.Status)
	}
	if booking.StartDateTime.Before(s.now()) {
		return nil, fmt.Errorf("%w: booking start date is in the past", ErrValidation)
	}

	expected := ToCents(booking.DepositAmount)
	if req.AmountCents != expected {
		s.log.Warn("Payment intent amount mismatch",
			zap.String("booking_id", bookingID.String()),
			zap.Int64("amount_cents", req.AmountCents),
			zap.Int64("expected_cents", expected),
		)
		return nil, fmt.Errorf("%w: amount mismatch", ErrValidation)
	}

	refunded, err := s.repo.Payment.CountRefundedByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	// provider call stays outside the transaction so no row lock is held across the network
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	intent, err := s.provider.CreatePaymentIntent(callCtx, expected, s.currency, map[string]string{
		MetadataBookingID: booking.ID.String(),
		MetadataReference: booking.Reference,
		MetadataAttempt:   strconv.Itoa(refunded + 1),
	})
	if err != nil {
		s.log.Error("Payment provider failed to create intent",
			zap.String("booking_id", bookingID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: create payment intent: %v", ErrProviderUnavailable, err)
	}

	settled := false
	err = s.repo.Tx.WithinTx(ctx, func(ctx context.Context, tx *repository.Repository) error {
		current, err := tx.Booking.FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("%w: booking %s", ErrNotFound, bookingID)
		}

		// the provider deduplicates on the idempotency key, so a retried request
		// can hand back an intent that is already recorded
		existing, err := tx.Payment.FindByTransactionIDForUpdate(ctx, intent.TransactionID)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.BookingID != bookingID {
				return fmt.Errorf("%w: transaction %s belongs to another booking", ErrConflict, intent.TransactionID)
			}
			// the success webhook was applied before this request recorded the intent
			if existing.Status == entity.PaymentStatusPaid && current.PaymentIntentID != nil && *current.PaymentIntentID == existing.TransactionID {
				settled = true
				return nil
			}
			if existing.Status != entity.PaymentStatusPending {
				return fmt.Errorf("%w: payment %s is already %s", ErrPrecondition, intent.TransactionID, existing.Status)
			}
		}
		if current.Status != entity.BookingStatusPending {
			return fmt.Errorf("%w: booking is %s, payment requires PENDING", ErrPrecondition, current.Status)
		}

		now := s.now().UTC()
		if existing == nil {
			payment := &entity.Payment{
				BaseNoDelete: entity.BaseNoDelete{
					ID:        uuid.New(),
					CreatedAt: now,
					UpdatedAt: now,
				},
				BookingID:     bookingID,
				Amount:        decimal.New(expected, -2),
				Currency:      s.currency,
				Status:        entity.PaymentStatusPending,
				TransactionID: intent.TransactionID,
			}
			if err := tx.Payment.Create(ctx, payment); err != nil {
				return err
			}
		}

		transactionID := intent.TransactionID
		current.PaymentIntentID = &transactionID
		current.UpdatedAt = now
		return tx.Booking.Update(ctx, current)
	})
	if err != nil {
		logRejected(s.log, "Payment intent not recorded", err,
			zap.String("booking_id", bookingID.String()),
			zap.String("transaction_id", intent.TransactionID),
		)
		return nil, err
	}

	msg := "Payment intent created"
	if settled {
		msg = "Payment intent already settled"
	}
	s.log.Info(msg,
		zap.String("booking_id", bookingID.String()),
		zap.String("transaction_id", intent.TransactionID),
		zap.Int64("amount_cents", expected),
	)

	return &response.PaymentIntentResponse{
		BookingID:     bookingID.String(),
		TransactionID: intent.TransactionID,
		ClientSecret:  intent.ClientSecret,
		AmountCents:   expected,
		Currency:      s.currency,
	}, nil
}

// HandleWebhook verifies a provider delivery and routes it. Event types other
// than payment success are acknowledged and ignored.
func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.ParseWebhook(payload, signature)
	if err != nil {
		s.log.Warn("Rejected webhook delivery", zap.Error(err))
		return fmt.Errorf("%w: webhook: %v", ErrValidation, err)
	}

	switch event.Type {
	case ProviderEventPaymentSucceeded:
		return s.HandlePaymentSucceeded(ctx, event)
	default:
		s.log.Info("Ignoring webhook event",
			zap.String("event_id", event.ID),
			zap.String("type", event.Type),
		)
		return nil
	}
}

// HandlePaymentSucceeded is idempotent on the transaction id. Already PAID
// payments are no-ops. A success that arrives before its intent row is
// recorded against the booking named in the intent metadata; events naming no
// known booking are ignored. A booking still PENDING is approved; a booking
// that moved on is left untouched.
func (s *paymentService) HandlePaymentSucceeded(ctx context.Context, event *PaymentEvent) error {
	if event == nil || event.TransactionID == "" {
		s.log.Warn("Payment success event without transaction id")
		return nil
	}
	log := s.log.With(zap.String("transaction_id", event.TransactionID))

	var (
		booking  *entity.Booking
		approved bool
		applied  bool
	)

	err := s.repo.Tx.WithinTx(ctx, func(ctx context.Context, tx *repository.Repository) error {
		payment, err := tx.Payment.FindByTransactionIDForUpdate(ctx, event.TransactionID)
		if err != nil {
			return err
		}
		if payment == nil {
			payment, err = s.recordEarlySuccess(ctx, tx, event, log)
			if err != nil {
				return err
			}
		}
		if payment == nil {
			log.Info("Payment success for unknown transaction, ignoring")
			return nil
		}
		if payment.Status == entity.PaymentStatusPaid {
			log.Info("Duplicate payment success delivery, ignoring")
			return nil
		}
		if payment.Status != entity.PaymentStatusPending {
			log.Warn("Payment success for a payment that is not pending, ignoring",
				zap.String("status", string(payment.Status)))
			return nil
		}

		now := s.now().UTC()
		payment.Status = entity.PaymentStatusPaid
		payment.PaidAt = &now
		payment.UpdatedAt = now
		if err := tx.Payment.Update(ctx, payment); err != nil {
			return err
		}
		applied = true

		booking, err = tx.Booking.FindByIDForUpdate(ctx, payment.BookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			log.Warn("Paid payment has no booking", zap.String("booking_id", payment.BookingID.String()))
			return nil
		}
		if booking.Status != entity.BookingStatusPending {
			log.Info("Booking already left PENDING, payment recorded without transition",
				zap.String("booking_id", booking.ID.String()),
				zap.String("status", string(booking.Status)))
			return nil
		}

		booking.Status = entity.BookingStatusApproved
		booking.UpdatedAt = now
		if err := tx.Booking.Update(ctx, booking); err != nil {
			return mapStoreError(err)
		}
		approved = true
		return nil
	})
	if err != nil {
		log.Error("Failed to apply payment success", zap.Error(err))
		return err
	}
	if !applied || booking == nil {
		return nil
	}

	log.Info("Payment marked paid",
		zap.String("booking_id", booking.ID.String()),
		zap.Bool("booking_approved", approved),
	)
	s.notifier.Notify(ctx, EventPaymentSucceeded, booking)
	if approved {
		s.invalidate(ctx, booking.VehicleID)
		s.notifier.Notify(ctx, EventBookingApproved, booking)
	}

	return nil
}

// recordEarlySuccess creates the PENDING payment row for a success delivered
// before the intent request committed its own row. It returns nil when the
// event names no existing booking.
func (s *paymentService) recordEarlySuccess(ctx context.Context, tx *repository.Repository, event *PaymentEvent, log *zap.Logger) (*entity.Payment, error) {
	bookingID, err := uuid.Parse(event.Metadata[MetadataBookingID])
	if err != nil {
		return nil, nil
	}

	booking, err := tx.Booking.FindByIDForUpdate(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, nil
	}

	// the intent transaction holds the booking lock while it writes its row
	payment, err := tx.Payment.FindByTransactionIDForUpdate(ctx, event.TransactionID)
	if err != nil || payment != nil {
		return payment, err
	}

	amountCents := event.AmountCents
	if amountCents <= 0 {
		amountCents = ToCents(booking.DepositAmount)
	}

	now := s.now().UTC()
	payment = &entity.Payment{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		BookingID:     bookingID,
		Amount:        decimal.New(amountCents, -2),
		Currency:      s.currency,
		Status:        entity.PaymentStatusPending,
		TransactionID: event.TransactionID,
	}
	if err := tx.Payment.Create(ctx, payment); err != nil {
		return nil, err
	}

	if booking.Status == entity.BookingStatusPending {
		transactionID := event.TransactionID
		booking.PaymentIntentID = &transactionID
		booking.UpdatedAt = now
		if err := tx.Booking.Update(ctx, booking); err != nil {
			return nil, mapStoreError(err)
		}
	}

	log.Info("Payment success arrived before its intent was recorded",
		zap.String("booking_id", bookingID.String()),
		zap.Int64("amount_cents", amountCents),
	)
	return payment, nil
}

// RefundPayment refunds the booking's latest PAID payment and reopens the
// booking as PENDING, whatever its current status. A released booking whose
// period was taken by another booking is refunded but stays closed.
func (s *paymentService) RefundPayment(ctx context.Context, bookingID string) (*response.PaymentResponse, error) {
	id, err := parseID("booking_id", bookingID)
	if err != nil {
		return nil, err
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, fmt.Errorf("%w: booking %s", ErrNotFound, id)
	}

	payment, err := s.repo.Payment.FindLatestByBookingID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, fmt.Errorf("%w: no payment for booking %s", ErrNotFound, id)
	}
	if payment.Status != entity.PaymentStatusPaid {
		return nil, fmt.Errorf("%w: payment is %s, only PAID payments can be refunded", ErrPrecondition, payment.Status)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.provider.Refund(callCtx, payment.TransactionID); err != nil {
		s.log.Error("Payment provider failed to refund",
			zap.String("booking_id", bookingID),
			zap.String("transaction_id", payment.TransactionID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: refund: %v", ErrProviderUnavailable, err)
	}

	var (
		refunded *entity.Payment
		reopened *entity.Booking
	)
	err = s.repo.Tx.WithinTx(ctx, func(ctx context.Context, tx *repository.Repository) error {
		if err := tx.Booking.LockVehicle(ctx, booking.VehicleID); err != nil {
			return err
		}

		p, err := tx.Payment.FindLatestByBookingIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if p == nil || p.ID != payment.ID || p.Status != entity.PaymentStatusPaid {
			return fmt.Errorf("%w: payment changed while refunding", ErrPrecondition)
		}

		now := s.now().UTC()
		p.Status = entity.PaymentStatusRefunded
		p.RefundedAt = &now
		p.UpdatedAt = now
		if err := tx.Payment.Update(ctx, p); err != nil {
			return err
		}
		refunded = p

		b, err := tx.Booking.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if b == nil {
			return fmt.Errorf("%w: booking %s", ErrNotFound, id)
		}

		if !b.Status.HoldsVehicle() {
			overlap, err := tx.Booking.HasOverlap(ctx, b.VehicleID, b.StartDateTime, b.EndDateTime, &b.ID)
			if err != nil {
				return err
			}
			if overlap {
				// money already went back; keep the payment record truthful and leave the booking closed
				s.log.Warn("Refunded booking not reopened, its period was taken meanwhile",
					zap.String("booking_id", b.ID.String()),
					zap.String("status", string(b.Status)))
				return nil
			}
		}

		b.Status = entity.BookingStatusPending
		b.UpdatedAt = now
		if err := tx.Booking.Update(ctx, b); err != nil {
			return mapStoreError(err)
		}
		reopened = b
		return nil
	})
	if err != nil {
		logRejected(s.log, "Refund not recorded", err,
			zap.String("booking_id", bookingID),
			zap.String("transaction_id", payment.TransactionID),
		)
		return nil, err
	}

	s.log.Info("Payment refunded",
		zap.String("booking_id", bookingID),
		zap.String("transaction_id", refunded.TransactionID),
		zap.Bool("booking_reopened", reopened != nil),
	)

	notified := booking
	if reopened != nil {
		notified = reopened
		s.invalidate(ctx, reopened.VehicleID)
	}
	s.notifier.Notify(ctx, EventPaymentRefunded, notified)

	resp := response.PaymentToResponse(refunded)
	return &resp, nil
}

func (s *paymentService) invalidate(ctx context.Context, vehicleID uuid.UUID) {
	if err := s.cache.Invalidate(ctx, vehicleID); err != nil {
		s.log.Warn("Failed to invalidate vehicle calendar",
			zap.String("vehicle_id", vehicleID.String()),
			zap.Error(err),
		)
	}
}
