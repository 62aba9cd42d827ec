package response

import (
	"time"

	"vehicle-rental/internal/data/entity"

	"github.com/shopspring/decimal"
)

type BookingResponse struct {
	ID                   string               `json:"id"`
	Reference            string               `json:"reference"`
	VehicleID            string               `json:"vehicle_id"`
	PickupLocationID     string               `json:"pickup_location_id"`
	ReturnLocationID     string               `json:"return_location_id"`
	CustomerName         string               `json:"customer_name"`
	CustomerEmail        string               `json:"customer_email"`
	CustomerPhone        *string              `json:"customer_phone,omitempty"`
	StartDateTime        time.Time            `json:"start_date_time"`
	EndDateTime          time.Time            `json:"end_date_time"`
	TotalPrice           decimal.Decimal      `json:"total_price"`
	DepositAmount        decimal.Decimal      `json:"deposit_amount"`
	Status               entity.BookingStatus `json:"status"`
	ActualReturnDateTime *time.Time           `json:"actual_return_date_time,omitempty"`
	Notes                *string              `json:"notes,omitempty"`
	ApprovedBy           *string              `json:"approved_by,omitempty"`
	PaymentIntentID      *string              `json:"payment_intent_id,omitempty"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
}

type BookingDetailResponse struct {
	BookingResponse
	Payment *PaymentResponse `json:"payment,omitempty"`
}

type StatsResponse struct {
	ByStatus map[entity.BookingStatus]int64 `json:"by_status"`
	Total    int64                          `json:"total"`
	Revenue  decimal.Decimal                `json:"revenue"`
}

// Helper converters
func BookingToResponse(b *entity.Booking) BookingResponse {
	resp := BookingResponse{
		ID:                   b.ID.String(),
		Reference:            b.Reference,
		VehicleID:            b.VehicleID.String(),
		PickupLocationID:     b.PickupLocationID.String(),
		ReturnLocationID:     b.ReturnLocationID.String(),
		CustomerName:         b.CustomerName,
		CustomerEmail:        b.CustomerEmail,
		CustomerPhone:        b.CustomerPhone,
		StartDateTime:        b.StartDateTime,
		EndDateTime:          b.EndDateTime,
		TotalPrice:           b.TotalPrice,
		DepositAmount:        b.DepositAmount,
		Status:               b.Status,
		ActualReturnDateTime: b.ActualReturnDateTime,
		Notes:                b.Notes,
		PaymentIntentID:      b.PaymentIntentID,
		CreatedAt:            b.CreatedAt,
		UpdatedAt:            b.UpdatedAt,
	}
	if b.ApprovedBy != nil {
		approver := b.ApprovedBy.String()
		resp.ApprovedBy = &approver
	}
	return resp
}
