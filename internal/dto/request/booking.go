package request

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateBookingRequest is the public booking submission. Price fields are
// optional; when present they must match the server side quote.
type CreateBookingRequest struct {
	VehicleID        string           `json:"vehicle_id" validate:"required,uuid"`
	PickupLocationID string           `json:"pickup_location_id" validate:"required,uuid"`
	ReturnLocationID string           `json:"return_location_id" validate:"required,uuid"`
	StartDateTime    time.Time        `json:"start_date_time" validate:"required"`
	EndDateTime      time.Time        `json:"end_date_time" validate:"required"`
	CustomerName     string           `json:"customer_name" validate:"required,min=2,max=120"`
	CustomerEmail    string           `json:"customer_email" validate:"required,email,max=255"`
	CustomerPhone    *string          `json:"customer_phone,omitempty" validate:"omitempty,e164"`
	TotalPrice       *decimal.Decimal `json:"total_price,omitempty"`
	DepositAmount    *decimal.Decimal `json:"deposit_amount,omitempty"`
	Notes            *string          `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// ReviewBookingRequest carries the optional staff note for approve and reject.
type ReviewBookingRequest struct {
	Notes *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type UpdateStatusRequest struct {
	Status string  `json:"status" validate:"required,oneof=PENDING APPROVED ONGOING COMPLETED CANCELLED OVERDUE"`
	Notes  *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type CompleteBookingRequest struct {
	ActualReturnDateTime *time.Time `json:"actual_return_date_time,omitempty"`
}

type ListBookingsRequest struct {
	PaginatedRequest
	Status *string `json:"status,omitempty" validate:"omitempty,oneof=PENDING APPROVED ONGOING COMPLETED CANCELLED OVERDUE"`
}
