package usecase

import (
	"errors"
	"fmt"
	"strings"

	"vehicle-rental/internal/data/entity"
	"vehicle-rental/internal/data/repository"
	"vehicle-rental/pkg/utils"

	"github.com/google/uuid"
)

// Error kinds surfaced to callers. Wrap them with fmt.Errorf("%w: ...") and
// test with errors.Is.
var (
	// ErrValidation marks malformed input: date ordering, amount mismatch, bad ids.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a missing vehicle, location, booking or payment.
	ErrNotFound = errors.New("not found")
	// ErrPrecondition marks an entity that exists but is in the wrong state.
	ErrPrecondition = errors.New("precondition failed")
	// ErrConflict marks contention on a vehicle's calendar.
	ErrConflict = errors.New("conflict")
	// ErrInvalidTransition marks a status change the lifecycle does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrProviderUnavailable marks a failed payment provider call; callers may retry.
	ErrProviderUnavailable = errors.New("payment provider unavailable")
)

// InvalidTransitionError reports the rejected move and where the booking could go instead.
type InvalidTransitionError struct {
	From    entity.BookingStatus
	To      entity.BookingStatus
	Allowed []entity.BookingStatus
}

func (e *InvalidTransitionError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}
	if len(allowed) == 0 {
		return fmt.Sprintf("%s: %s is terminal, cannot move to %s", ErrInvalidTransition, e.From, e.To)
	}
	return fmt.Sprintf("%s: %s -> %s (allowed: %s)", ErrInvalidTransition, e.From, e.To, strings.Join(allowed, ", "))
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// FieldErrors is a request validation failure keyed by field name.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, utils.FormatValidationErrors(e))
}

func (e FieldErrors) Unwrap() error {
	return ErrValidation
}

func validateRequest(req any) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return FieldErrors(errs)
	}
	return nil
}

func parseID(field, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s %q", ErrValidation, field, value)
	}
	return id, nil
}

// mapStoreError translates storage constraint violations into core errors.
func mapStoreError(err error) error {
	if errors.Is(err, repository.ErrOverlap) {
		return fmt.Errorf("%w: vehicle is not available for the selected dates", ErrConflict)
	}
	return err
}
