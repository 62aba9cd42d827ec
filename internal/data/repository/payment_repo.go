package repository

import (
	"context"
	"errors"
	"fmt"

	"vehicle-rental/internal/data/entity"
	"vehicle-rental/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	FindByTransactionIDForUpdate(ctx context.Context, transactionID string) (*entity.Payment, error)
	FindLatestByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error)
	FindLatestByBookingIDForUpdate(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error)
	CountRefundedByBookingID(ctx context.Context, bookingID uuid.UUID) (int, error)
	Update(ctx context.Context, payment *entity.Payment) error

	// Revenue sums PAID payments whose booking is APPROVED, ONGOING or COMPLETED.
	Revenue(ctx context.Context) (decimal.Decimal, error)
}

const paymentColumns = `
	id, booking_id, amount, currency, status, transaction_id,
	paid_at, refunded_at, created_at, updated_at`

type paymentRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewPaymentRepository(db database.Querier, log *zap.Logger) PaymentRepository {
	return &paymentRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment")),
	}
}

func scanPayment(row pgx.Row) (*entity.Payment, error) {
	var p entity.Payment
	err := row.Scan(
		&p.ID,
		&p.BookingID,
		&p.Amount,
		&p.Currency,
		&p.Status,
		&p.TransactionID,
		&p.PaidAt,
		&p.RefundedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(ctx, query,
		payment.ID,
		payment.BookingID,
		payment.Amount,
		payment.Currency,
		payment.Status,
		payment.TransactionID,
		payment.PaidAt,
		payment.RefundedAt,
		payment.CreatedAt,
		payment.UpdatedAt,
	)

	if err != nil {
		err = mapWriteError(err)
		r.log.Error("Failed to create payment",
			zap.Error(err),
			zap.String("booking_id", payment.BookingID.String()),
			zap.String("transaction_id", payment.TransactionID),
		)
		return fmt.Errorf("create payment for booking %s: %w", payment.BookingID.String(), err)
	}

	return nil
}

// FindByTransactionIDForUpdate row-locks the payment so concurrent webhook
// deliveries for the same transaction apply one at a time.
func (r *paymentRepository) FindByTransactionIDForUpdate(ctx context.Context, transactionID string) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE transaction_id = $1 FOR UPDATE`

	payment, err := scanPayment(r.db.QueryRow(ctx, query, transactionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment by transaction ID",
			zap.Error(err),
			zap.String("transaction_id", transactionID),
		)
		return nil, fmt.Errorf("find payment by transaction ID %s: %w", transactionID, err)
	}

	return payment, nil
}

func (r *paymentRepository) FindLatestByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	return r.findLatest(ctx, bookingID, false)
}

func (r *paymentRepository) FindLatestByBookingIDForUpdate(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	return r.findLatest(ctx, bookingID, true)
}

func (r *paymentRepository) findLatest(ctx context.Context, bookingID uuid.UUID, lock bool) (*entity.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE booking_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	if lock {
		query += ` FOR UPDATE`
	}

	payment, err := scanPayment(r.db.QueryRow(ctx, query, bookingID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment by booking ID",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find payment by booking ID %s: %w", bookingID.String(), err)
	}

	return payment, nil
}

func (r *paymentRepository) CountRefundedByBookingID(ctx context.Context, bookingID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM payments WHERE booking_id = $1 AND status = 'REFUNDED'`

	var count int
	if err := r.db.QueryRow(ctx, query, bookingID).Scan(&count); err != nil {
		r.log.Error("Failed to count refunded payments",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return 0, fmt.Errorf("count refunded payments for booking %s: %w", bookingID.String(), err)
	}

	return count, nil
}

func (r *paymentRepository) Update(ctx context.Context, payment *entity.Payment) error {
	query := `
		UPDATE payments
		SET status = $2, paid_at = $3, refunded_at = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		payment.ID,
		payment.Status,
		payment.PaidAt,
		payment.RefundedAt,
		payment.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to update payment",
			zap.Error(err),
			zap.String("payment_id", payment.ID.String()),
		)
		return fmt.Errorf("update payment %s: %w", payment.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("payment %s not found", payment.ID.String())
	}

	return nil
}

func (r *paymentRepository) Revenue(ctx context.Context) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(p.amount), 0)::text
		FROM payments p
		JOIN bookings b ON b.id = p.booking_id
		WHERE p.status = 'PAID'
		  AND b.status IN ('APPROVED', 'ONGOING', 'COMPLETED')
	`

	var total string
	if err := r.db.QueryRow(ctx, query).Scan(&total); err != nil {
		r.log.Error("Failed to sum revenue", zap.Error(err))
		return decimal.Zero, fmt.Errorf("sum revenue: %w", err)
	}

	revenue, err := decimal.NewFromString(total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse revenue %q: %w", total, err)
	}

	return revenue, nil
}
