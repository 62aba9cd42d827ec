package request

import "time"

// PeriodQuery is the [start, end) window of the vehicle search, quote and
// availability endpoints.
type PeriodQuery struct {
	Start time.Time
	End   time.Time
}

type UpdateVehicleStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=AVAILABLE RENTED MAINTENANCE DAMAGED RESERVED"`
}
