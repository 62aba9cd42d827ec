package usecase

import "context"

// ProviderEventPaymentSucceeded is the webhook type that confirms a deposit.
const ProviderEventPaymentSucceeded = "payment_intent.succeeded"

// Metadata keys attached to every payment intent. The provider echoes them
// back on webhook deliveries.
const (
	MetadataBookingID = "booking_id"
	MetadataReference = "reference"
	// MetadataAttempt numbers the payment attempts of one booking. Retries
	// within an attempt share it; a payment after a refund starts a new one.
	MetadataAttempt = "attempt"
)

type PaymentIntent struct {
	TransactionID string
	ClientSecret  string
}

// PaymentEvent is a verified webhook delivery.
type PaymentEvent struct {
	ID            string
	Type          string
	TransactionID string
	// AmountCents is zero when the provider did not report an amount.
	AmountCents int64
	Metadata    map[string]string
}

// PaymentProvider is the external processor collecting deposits.
type PaymentProvider interface {
	CreatePaymentIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*PaymentIntent, error)
	Refund(ctx context.Context, transactionID string) error
	ParseWebhook(payload []byte, signature string) (*PaymentEvent, error)
}
