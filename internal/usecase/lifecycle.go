package usecase

import (
	"vehicle-rental/internal/data/entity"
)

// transitions is the booking status machine. Statuses without an entry are terminal.
var transitions = map[entity.BookingStatus][]entity.BookingStatus{
	entity.BookingStatusPending:  {entity.BookingStatusApproved, entity.BookingStatusCancelled},
	entity.BookingStatusApproved: {entity.BookingStatusOngoing, entity.BookingStatusCancelled},
	entity.BookingStatusOngoing:  {entity.BookingStatusCompleted, entity.BookingStatusOverdue},
	entity.BookingStatusOverdue:  {entity.BookingStatusCompleted},
}

// AllowedTransitions returns the statuses reachable from from in one step.
func AllowedTransitions(from entity.BookingStatus) []entity.BookingStatus {
	next := transitions[from]
	out := make([]entity.BookingStatus, len(next))
	copy(out, next)
	return out
}

func CanTransition(from, to entity.BookingStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// checkTransition returns an *InvalidTransitionError when from -> to is not in the table.
func checkTransition(from, to entity.BookingStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	return &InvalidTransitionError{From: from, To: to, Allowed: AllowedTransitions(from)}
}

// requireStatus is the stricter guard of operations bound to one source status,
// such as approve (PENDING) or complete (ONGOING).
func requireStatus(current, required, to entity.BookingStatus) error {
	if current != required {
		return &InvalidTransitionError{From: current, To: to, Allowed: AllowedTransitions(current)}
	}
	return checkTransition(current, to)
}

// statusEvent is the notification published when a booking enters status.
func statusEvent(status entity.BookingStatus) NotificationEvent {
	switch status {
	case entity.BookingStatusApproved:
		return EventBookingApproved
	case entity.BookingStatusCompleted:
		return EventBookingCompleted
	case entity.BookingStatusOverdue:
		return EventBookingOverdue
	default:
		return EventBookingStatusChanged
	}
}
