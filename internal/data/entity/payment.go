package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

type Payment struct {
	BaseNoDelete
	BookingID     uuid.UUID       `db:"booking_id"`
	Amount        decimal.Decimal `db:"amount"`
	Currency      string          `db:"currency"`
	Status        PaymentStatus   `db:"status"`
	TransactionID string          `db:"transaction_id"`
	PaidAt        *time.Time      `db:"paid_at"`
	RefundedAt    *time.Time      `db:"refunded_at"`
}
