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

type VehicleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Vehicle, error)
	FindAvailableInRange(ctx context.Context, start, end time.Time, limit, offset int) ([]*entity.Vehicle, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.VehicleStatus) error
}

const vehicleColumns = `
	v.id, v.make, v.model, v.year, v.license_plate, v.daily_rate, v.status,
	v.created_at, v.updated_at, v.deleted_at`

type vehicleRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewVehicleRepository(db database.Querier, log *zap.Logger) VehicleRepository {
	return &vehicleRepository{
		db:  db,
		log: log.With(zap.String("repository", "vehicle")),
	}
}

func scanVehicle(row pgx.Row) (*entity.Vehicle, error) {
	var v entity.Vehicle
	err := row.Scan(
		&v.ID,
		&v.Make,
		&v.Model,
		&v.Year,
		&v.LicensePlate,
		&v.DailyRate,
		&v.Status,
		&v.CreatedAt,
		&v.UpdatedAt,
		&v.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *vehicleRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles v WHERE v.id = $1 AND v.deleted_at IS NULL`

	vehicle, err := scanVehicle(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find vehicle by ID",
			zap.Error(err),
			zap.String("vehicle_id", id.String()),
		)
		return nil, fmt.Errorf("find vehicle by ID %s: %w", id.String(), err)
	}

	return vehicle, nil
}

// FindAvailableInRange lists AVAILABLE vehicles with no live booking
// intersecting [start, end).
func (r *vehicleRepository) FindAvailableInRange(ctx context.Context, start, end time.Time, limit, offset int) ([]*entity.Vehicle, error) {
	query := `
		SELECT ` + vehicleColumns + `
		FROM vehicles v
		WHERE v.deleted_at IS NULL
		  AND v.status = 'AVAILABLE'
		  AND NOT EXISTS (
			SELECT 1 FROM bookings b
			WHERE b.vehicle_id = v.id
			  AND b.status IN ('PENDING', 'APPROVED', 'ONGOING')
			  AND b.start_date_time < $2
			  AND b.end_date_time > $1
		  )
		ORDER BY v.daily_rate, v.make, v.model
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Query(ctx, query, start, end, limit, offset)
	if err != nil {
		r.log.Error("Failed to find available vehicles",
			zap.Error(err),
			zap.Time("start", start),
			zap.Time("end", end),
		)
		return nil, fmt.Errorf("find available vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []*entity.Vehicle
	for rows.Next() {
		vehicle, err := scanVehicle(rows)
		if err != nil {
			r.log.Error("Failed to scan vehicle row", zap.Error(err))
			return nil, fmt.Errorf("scan vehicle row: %w", err)
		}
		vehicles = append(vehicles, vehicle)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vehicle rows: %w", err)
	}

	return vehicles, nil
}

func (r *vehicleRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.VehicleStatus) error {
	query := `UPDATE vehicles SET status = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		r.log.Error("Failed to update vehicle status",
			zap.Error(err),
			zap.String("vehicle_id", id.String()),
			zap.String("status", string(status)),
		)
		return fmt.Errorf("update vehicle %s status to %s: %w", id.String(), string(status), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("vehicle %s not found", id.String())
	}

	return nil
}
