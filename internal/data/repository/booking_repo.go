package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vehicle-rental/internal/data/entity"
	"vehicle-rental/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	Update(ctx context.Context, booking *entity.Booking) error
	List(ctx context.Context, status *entity.BookingStatus, limit, offset int) ([]*entity.Booking, error)
	Count(ctx context.Context, status *entity.BookingStatus) (int64, error)

	// Calendar queries
	LockVehicle(ctx context.Context, vehicleID uuid.UUID) error
	HasOverlap(ctx context.Context, vehicleID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error)
	FindLiveIntervals(ctx context.Context, vehicleID uuid.UUID) ([]entity.BookingInterval, error)

	// Business queries
	FindOverdue(ctx context.Context, now time.Time) ([]*entity.Booking, error)
	CountByStatus(ctx context.Context) (map[entity.BookingStatus]int64, error)
}

const bookingColumns = `
	id, reference, vehicle_id, pickup_location_id, return_location_id,
	customer_name, customer_email, customer_phone,
	start_date_time, end_date_time, total_price, deposit_amount, status,
	actual_return_date_time, notes, approved_by, payment_intent_id,
	created_at, updated_at`

type bookingRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewBookingRepository(db database.Querier, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var b entity.Booking
	err := row.Scan(
		&b.ID,
		&b.Reference,
		&b.VehicleID,
		&b.PickupLocationID,
		&b.ReturnLocationID,
		&b.CustomerName,
		&b.CustomerEmail,
		&b.CustomerPhone,
		&b.StartDateTime,
		&b.EndDateTime,
		&b.TotalPrice,
		&b.DepositAmount,
		&b.Status,
		&b.ActualReturnDateTime,
		&b.Notes,
		&b.ApprovedBy,
		&b.PaymentIntentID,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	_, err := r.db.Exec(ctx, query,
		booking.ID,
		booking.Reference,
		booking.VehicleID,
		booking.PickupLocationID,
		booking.ReturnLocationID,
		booking.CustomerName,
		booking.CustomerEmail,
		booking.CustomerPhone,
		booking.StartDateTime,
		booking.EndDateTime,
		booking.TotalPrice,
		booking.DepositAmount,
		booking.Status,
		booking.ActualReturnDateTime,
		booking.Notes,
		booking.ApprovedBy,
		booking.PaymentIntentID,
		booking.CreatedAt,
		booking.UpdatedAt,
	)

	if err != nil {
		err = mapWriteError(err)
		if errors.Is(err, ErrOverlap) {
			r.log.Warn("Booking insert rejected by overlap constraint",
				zap.String("vehicle_id", booking.VehicleID.String()),
				zap.Time("start", booking.StartDateTime),
				zap.Time("end", booking.EndDateTime),
			)
			return err
		}
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("reference", booking.Reference),
			zap.String("vehicle_id", booking.VehicleID.String()),
		)
		return fmt.Errorf("create booking %s: %w", booking.Reference, err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return r.findByID(ctx, id, false)
}

// FindByIDForUpdate row-locks the booking until the surrounding transaction ends.
func (r *bookingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return r.findByID(ctx, id, true)
}

func (r *bookingRepository) findByID(ctx context.Context, id uuid.UUID, lock bool) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return booking, nil
}

// Update persists the mutable part of a booking: status and the fields the
// lifecycle records alongside it.
func (r *bookingRepository) Update(ctx context.Context, booking *entity.Booking) error {
	query := `
		UPDATE bookings
		SET status = $2, notes = $3, approved_by = $4, actual_return_date_time = $5,
		    payment_intent_id = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		booking.ID,
		booking.Status,
		booking.Notes,
		booking.ApprovedBy,
		booking.ActualReturnDateTime,
		booking.PaymentIntentID,
		booking.UpdatedAt,
	)

	if err != nil {
		err = mapWriteError(err)
		if errors.Is(err, ErrOverlap) {
			r.log.Warn("Booking update rejected by overlap constraint",
				zap.String("booking_id", booking.ID.String()),
				zap.String("status", string(booking.Status)),
			)
			return err
		}
		r.log.Error("Failed to update booking",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
		)
		return fmt.Errorf("update booking %s: %w", booking.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s not found", booking.ID.String())
	}

	return nil
}

func (r *bookingRepository) List(ctx context.Context, status *entity.BookingStatus, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, statusArg(status), limit, offset)
	if err != nil {
		r.log.Error("Failed to list bookings",
			zap.Error(err),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	return r.collect(rows)
}

func (r *bookingRepository) Count(ctx context.Context, status *entity.BookingStatus) (int64, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE ($1::text IS NULL OR status = $1)`

	var count int64
	if err := r.db.QueryRow(ctx, query, statusArg(status)).Scan(&count); err != nil {
		r.log.Error("Failed to count bookings", zap.Error(err))
		return 0, fmt.Errorf("count bookings: %w", err)
	}

	return count, nil
}

// LockVehicle takes a transaction scoped advisory lock keyed by the vehicle,
// serializing every calendar mutation for that vehicle until commit.
func (r *bookingRepository) LockVehicle(ctx context.Context, vehicleID uuid.UUID) error {
	query := `SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`

	if _, err := r.db.Exec(ctx, query, vehicleID.String()); err != nil {
		r.log.Error("Failed to lock vehicle calendar",
			zap.Error(err),
			zap.String("vehicle_id", vehicleID.String()),
		)
		return fmt.Errorf("lock vehicle %s: %w", vehicleID.String(), err)
	}

	return nil
}

// HasOverlap reports whether a live booking of the vehicle intersects the
// half-open period [start, end). Touching endpoints do not overlap.
func (r *bookingRepository) HasOverlap(ctx context.Context, vehicleID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE vehicle_id = $1
			  AND status IN ('PENDING', 'APPROVED', 'ONGOING')
			  AND start_date_time < $3
			  AND end_date_time > $2
			  AND ($4::uuid IS NULL OR id <> $4)
		)
	`

	var exists bool
	if err := r.db.QueryRow(ctx, query, vehicleID, start, end, excludeID).Scan(&exists); err != nil {
		r.log.Error("Failed to check booking overlap",
			zap.Error(err),
			zap.String("vehicle_id", vehicleID.String()),
		)
		return false, fmt.Errorf("check overlap for vehicle %s: %w", vehicleID.String(), err)
	}

	return exists, nil
}

func (r *bookingRepository) FindLiveIntervals(ctx context.Context, vehicleID uuid.UUID) ([]entity.BookingInterval, error) {
	query := `
		SELECT id, start_date_time, end_date_time, status
		FROM bookings
		WHERE vehicle_id = $1
		  AND status IN ('PENDING', 'APPROVED', 'ONGOING')
		ORDER BY start_date_time
	`

	rows, err := r.db.Query(ctx, query, vehicleID)
	if err != nil {
		r.log.Error("Failed to load vehicle calendar",
			zap.Error(err),
			zap.String("vehicle_id", vehicleID.String()),
		)
		return nil, fmt.Errorf("load calendar for vehicle %s: %w", vehicleID.String(), err)
	}
	defer rows.Close()

	intervals := []entity.BookingInterval{}
	for rows.Next() {
		var iv entity.BookingInterval
		if err := rows.Scan(&iv.BookingID, &iv.Start, &iv.End, &iv.Status); err != nil {
			r.log.Error("Failed to scan calendar row", zap.Error(err))
			return nil, fmt.Errorf("scan calendar row: %w", err)
		}
		intervals = append(intervals, iv)
	}

	return intervals, rows.Err()
}

// FindOverdue returns ONGOING bookings whose period ended before now.
func (r *bookingRepository) FindOverdue(ctx context.Context, now time.Time) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = 'ONGOING' AND end_date_time < $1
		ORDER BY end_date_time
	`

	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		r.log.Error("Failed to find overdue bookings", zap.Error(err))
		return nil, fmt.Errorf("find overdue bookings: %w", err)
	}
	defer rows.Close()

	return r.collect(rows)
}

func (r *bookingRepository) CountByStatus(ctx context.Context) (map[entity.BookingStatus]int64, error) {
	query := `SELECT status, COUNT(*) FROM bookings GROUP BY status`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.Error("Failed to count bookings by status", zap.Error(err))
		return nil, fmt.Errorf("count bookings by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[entity.BookingStatus]int64)
	for rows.Next() {
		var status entity.BookingStatus
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = n
	}

	return counts, rows.Err()
}

func (r *bookingRepository) collect(rows pgx.Rows) ([]*entity.Booking, error) {
	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking rows: %w", err)
	}

	return bookings, nil
}

func statusArg(status *entity.BookingStatus) *string {
	if status == nil {
		return nil
	}
	s := string(*status)
	return &s
}
