package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"vehicle-rental/internal/data/entity"
	"vehicle-rental/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type LocationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Location, error)
	FindAll(ctx context.Context, cityFilter *string) ([]*entity.Location, error)
}

type locationRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewLocationRepository(db database.Querier, log *zap.Logger) LocationRepository {
	return &locationRepository{
		db:  db,
		log: log.With(zap.String("repository", "location")),
	}
}

func (r *locationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Location, error) {
	query := `
		SELECT id, name, address, city, created_at, updated_at, deleted_at
		FROM locations
		WHERE id = $1 AND deleted_at IS NULL
	`

	var location entity.Location
	err := r.db.QueryRow(ctx, query, id).Scan(
		&location.ID,
		&location.Name,
		&location.Address,
		&location.City,
		&location.CreatedAt,
		&location.UpdatedAt,
		&location.DeletedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find location by ID",
			zap.Error(err),
			zap.String("location_id", id.String()),
		)
		return nil, fmt.Errorf("find location by ID %s: %w", id.String(), err)
	}

	return &location, nil
}

func (r *locationRepository) FindAll(ctx context.Context, cityFilter *string) ([]*entity.Location, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT id, name, address, city, created_at, updated_at
		FROM locations
		WHERE deleted_at IS NULL
	`)

	args := []any{}
	if cityFilter != nil && *cityFilter != "" {
		queryBuilder.WriteString(" AND city ILIKE $1")
		args = append(args, "%"+*cityFilter+"%")
	}
	queryBuilder.WriteString(" ORDER BY city, name")

	rows, err := r.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		r.log.Error("Failed to list locations",
			zap.Error(err),
			zap.Stringp("city_filter", cityFilter),
		)
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var locations []*entity.Location
	for rows.Next() {
		var location entity.Location
		err := rows.Scan(
			&location.ID,
			&location.Name,
			&location.Address,
			&location.City,
			&location.CreatedAt,
			&location.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan location row", zap.Error(err))
			return nil, fmt.Errorf("scan location row: %w", err)
		}
		locations = append(locations, &location)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate location rows: %w", err)
	}

	return locations, nil
}
