package response

import (
	"time"

	"vehicle-rental/internal/data/entity"

	"github.com/shopspring/decimal"
)

type VehicleResponse struct {
	ID           string               `json:"id"`
	Make         string               `json:"make"`
	Model        string               `json:"model"`
	Year         int                  `json:"year"`
	LicensePlate string               `json:"license_plate"`
	DailyRate    decimal.Decimal      `json:"daily_rate"`
	Status       entity.VehicleStatus `json:"status"`
}

type LocationResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
}

type QuoteResponse struct {
	VehicleID     string          `json:"vehicle_id"`
	StartDateTime time.Time       `json:"start_date_time"`
	EndDateTime   time.Time       `json:"end_date_time"`
	DurationDays  int64           `json:"duration_days"`
	DailyRate     decimal.Decimal `json:"daily_rate"`
	BasePrice     decimal.Decimal `json:"base_price"`
	DepositAmount decimal.Decimal `json:"deposit_amount"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	Currency      string          `json:"currency"`
}

type BusyPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type AvailabilityResponse struct {
	VehicleID     string               `json:"vehicle_id"`
	StartDateTime time.Time            `json:"start_date_time"`
	EndDateTime   time.Time            `json:"end_date_time"`
	Available     bool                 `json:"available"`
	VehicleStatus entity.VehicleStatus `json:"vehicle_status"`
	Conflicts     []BusyPeriod         `json:"conflicts,omitempty"`
}

func VehicleToResponse(v *entity.Vehicle) VehicleResponse {
	return VehicleResponse{
		ID:           v.ID.String(),
		Make:         v.Make,
		Model:        v.Model,
		Year:         v.Year,
		LicensePlate: v.LicensePlate,
		DailyRate:    v.DailyRate,
		Status:       v.Status,
	}
}

func LocationToResponse(l *entity.Location) LocationResponse {
	return LocationResponse{
		ID:      l.ID.String(),
		Name:    l.Name,
		Address: l.Address,
		City:    l.City,
	}
}
