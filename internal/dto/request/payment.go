package request

type CreatePaymentIntentRequest struct {
	BookingID   string `json:"booking_id" validate:"required,uuid"`
	AmountCents int64  `json:"amount_cents" validate:"required,gt=0"`
}
