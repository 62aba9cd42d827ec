package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusApproved  BookingStatus = "APPROVED"
	BookingStatusOngoing   BookingStatus = "ONGOING"
	BookingStatusCompleted BookingStatus = "COMPLETED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusOverdue   BookingStatus = "OVERDUE"
)

// HoldingStatuses are the statuses under which a booking occupies its
// vehicle's calendar.
var HoldingStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusApproved,
	BookingStatusOngoing,
}

// HoldsVehicle reports whether a booking in this status blocks the vehicle.
func (s BookingStatus) HoldsVehicle() bool {
	for _, h := range HoldingStatuses {
		if s == h {
			return true
		}
	}
	return false
}

type Booking struct {
	BaseNoDelete
	Reference            string          `db:"reference"`
	VehicleID            uuid.UUID       `db:"vehicle_id"`
	PickupLocationID     uuid.UUID       `db:"pickup_location_id"`
	ReturnLocationID     uuid.UUID       `db:"return_location_id"`
	CustomerName         string          `db:"customer_name"`
	CustomerEmail        string          `db:"customer_email"`
	CustomerPhone        *string         `db:"customer_phone"`
	StartDateTime        time.Time       `db:"start_date_time"`
	EndDateTime          time.Time       `db:"end_date_time"`
	TotalPrice           decimal.Decimal `db:"total_price"`
	DepositAmount        decimal.Decimal `db:"deposit_amount"`
	Status               BookingStatus   `db:"status"`
	ActualReturnDateTime *time.Time      `db:"actual_return_date_time"`
	Notes                *string         `db:"notes"`
	ApprovedBy           *uuid.UUID      `db:"approved_by"`
	PaymentIntentID      *string         `db:"payment_intent_id"`
}

// BookingInterval is the calendar footprint of a booking that holds a vehicle.
type BookingInterval struct {
	BookingID uuid.UUID     `json:"booking_id"`
	Start     time.Time     `json:"start"`
	End       time.Time     `json:"end"`
	Status    BookingStatus `json:"status"`
}
