package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrOverlap is returned when a write would give a vehicle two live bookings
// with intersecting periods. The bookings_no_overlap exclusion constraint
// raises it at the storage level.
var ErrOverlap = errors.New("booking overlaps a live booking for the vehicle")

// ErrDuplicate is returned on a unique violation, e.g. a reused transaction id.
var ErrDuplicate = errors.New("duplicate record")

const (
	pgExclusionViolation = "23P01"
	pgUniqueViolation    = "23505"
)

// mapWriteError converts constraint violations into repository sentinels and
// leaves every other error untouched.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgExclusionViolation:
		return ErrOverlap
	case pgUniqueViolation:
		return ErrDuplicate
	}
	return err
}
