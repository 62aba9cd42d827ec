package usecase

import (
	"context"

	"vehicle-rental/internal/data/entity"
)

type NotificationEvent string

const (
	EventBookingCreated       NotificationEvent = "booking.created"
	EventBookingApproved      NotificationEvent = "booking.approved"
	EventBookingRejected      NotificationEvent = "booking.rejected"
	EventBookingStatusChanged NotificationEvent = "booking.status_changed"
	EventBookingCompleted     NotificationEvent = "booking.completed"
	EventBookingOverdue       NotificationEvent = "booking.overdue"
	EventPaymentSucceeded     NotificationEvent = "payment.succeeded"
	EventPaymentRefunded      NotificationEvent = "payment.refunded"
)

// Notifier is fire-and-forget. Notify must not block on delivery and its
// failures never undo the state change being announced.
type Notifier interface {
	Notify(ctx context.Context, event NotificationEvent, booking *entity.Booking)
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, NotificationEvent, *entity.Booking) {}
