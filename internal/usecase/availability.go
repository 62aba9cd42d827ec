package usecase

import (
	"context"
	"fmt"
	"time"

	"vehicle-rental/internal/data/entity"
	"vehicle-rental/internal/data/repository"

	"github.com/google/uuid"
)

// CalendarCache keeps a short lived copy of each vehicle's live booking
// intervals for the public availability endpoint. It is advisory only:
// booking creation always re-checks against the store.
type CalendarCache interface {
	Get(ctx context.Context, vehicleID uuid.UUID) ([]entity.BookingInterval, bool, error)
	Set(ctx context.Context, vehicleID uuid.UUID, intervals []entity.BookingInterval) error
	Invalidate(ctx context.Context, vehicleID uuid.UUID) error
}

// NopCalendarCache never hits, so every read goes to the store.
type NopCalendarCache struct{}

func (NopCalendarCache) Get(context.Context, uuid.UUID) ([]entity.BookingInterval, bool, error) {
	return nil, false, nil
}

func (NopCalendarCache) Set(context.Context, uuid.UUID, []entity.BookingInterval) error { return nil }

func (NopCalendarCache) Invalidate(context.Context, uuid.UUID) error { return nil }

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
// Periods that only touch at an endpoint do not.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// ConflictingIntervals returns the live intervals intersecting [start, end),
// ignoring the booking excludeID when set.
func ConflictingIntervals(intervals []entity.BookingInterval, start, end time.Time, excludeID *uuid.UUID) []entity.BookingInterval {
	var conflicts []entity.BookingInterval
	for _, iv := range intervals {
		if !iv.Status.HoldsVehicle() {
			continue
		}
		if excludeID != nil && iv.BookingID == *excludeID {
			continue
		}
		if Overlaps(iv.Start, iv.End, start, end) {
			conflicts = append(conflicts, iv)
		}
	}
	return conflicts
}

// ensureVehicleAvailable fails when staff have taken the vehicle out of
// service, whatever its calendar says.
func ensureVehicleAvailable(vehicle *entity.Vehicle) error {
	if vehicle.Status != entity.VehicleStatusAvailable {
		return fmt.Errorf("%w: vehicle %s is %s", ErrPrecondition, vehicle.ID, vehicle.Status)
	}
	return nil
}

// ensureCalendarFree is the authoritative overlap check. Callers run it inside
// a transaction holding the vehicle's advisory lock so that the check and the
// following write are atomic.
func ensureCalendarFree(ctx context.Context, bookings repository.BookingRepository, vehicleID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) error {
	overlap, err := bookings.HasOverlap(ctx, vehicleID, start, end, excludeID)
	if err != nil {
		return err
	}
	if overlap {
		return fmt.Errorf("%w: vehicle is not available for the selected dates", ErrConflict)
	}
	return nil
}
