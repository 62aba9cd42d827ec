package response

import (
	"time"

	"vehicle-rental/internal/data/entity"

	"github.com/shopspring/decimal"
)

type PaymentResponse struct {
	ID            string               `json:"id"`
	BookingID     string               `json:"booking_id"`
	Amount        decimal.Decimal      `json:"amount"`
	Currency      string               `json:"currency"`
	Status        entity.PaymentStatus `json:"status"`
	TransactionID string               `json:"transaction_id"`
	PaidAt        *time.Time           `json:"paid_at,omitempty"`
	RefundedAt    *time.Time           `json:"refunded_at,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
}

type PaymentIntentResponse struct {
	BookingID     string `json:"booking_id"`
	TransactionID string `json:"transaction_id"`
	ClientSecret  string `json:"client_secret"`
	AmountCents   int64  `json:"amount_cents"`
	Currency      string `json:"currency"`
}

func PaymentToResponse(p *entity.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID.String(),
		BookingID:     p.BookingID.String(),
		Amount:        p.Amount,
		Currency:      p.Currency,
		Status:        p.Status,
		TransactionID: p.TransactionID,
		PaidAt:        p.PaidAt,
		RefundedAt:    p.RefundedAt,
		CreatedAt:     p.CreatedAt,
	}
}
