package notify

import (
	"time"

	"vehicle-rental/internal/data/entity"
	"vehicle-rental/internal/usecase"

	"github.com/shopspring/decimal"
)

// Message is the JSON body published for every booking event. It carries what
// an email or SMS worker needs without reading the database.
type Message struct {
	Event         usecase.NotificationEvent `json:"event"`
	OccurredAt    time.Time                 `json:"occurred_at"`
	BookingID     string                    `json:"booking_id"`
	Reference     string                    `json:"reference"`
	VehicleID     string                    `json:"vehicle_id"`
	Status        entity.BookingStatus      `json:"status"`
	CustomerName  string                    `json:"customer_name"`
	CustomerEmail string                    `json:"customer_email"`
	CustomerPhone *string                   `json:"customer_phone,omitempty"`
	StartDateTime time.Time                 `json:"start_date_time"`
	EndDateTime   time.Time                 `json:"end_date_time"`
	TotalPrice    decimal.Decimal           `json:"total_price"`
	DepositAmount decimal.Decimal           `json:"deposit_amount"`
	Notes         *string                   `json:"notes,omitempty"`
}

func NewMessage(event usecase.NotificationEvent, b *entity.Booking, at time.Time) Message {
	return Message{
		Event:         event,
		OccurredAt:    at.UTC(),
		BookingID:     b.ID.String(),
		Reference:     b.Reference,
		VehicleID:     b.VehicleID.String(),
		Status:        b.Status,
		CustomerName:  b.CustomerName,
		CustomerEmail: b.CustomerEmail,
		CustomerPhone: b.CustomerPhone,
		StartDateTime: b.StartDateTime,
		EndDateTime:   b.EndDateTime,
		TotalPrice:    b.TotalPrice,
		DepositAmount: b.DepositAmount,
		Notes:         b.Notes,
	}
}
