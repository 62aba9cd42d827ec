package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"vehicle-rental/internal/usecase"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/refund"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

// Stripe collects deposits through PaymentIntents and verifies webhooks with
// the endpoint signing secret.
type Stripe struct {
	intents       paymentintent.Client
	refunds       refund.Client
	webhookSecret string
	log           *zap.Logger
}

// NewStripe builds the adapter with its own backend. Retries are disabled:
// the caller bounds every call with a timeout and surfaces failures as retryable.
func NewStripe(secretKey, webhookSecret string, timeout time.Duration, log *zap.Logger) *Stripe {
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		MaxNetworkRetries: stripe.Int64(0),
	})

	return &Stripe{
		intents:       paymentintent.Client{B: backend, Key: secretKey},
		refunds:       refund.Client{B: backend, Key: secretKey},
		webhookSecret: webhookSecret,
		log:           log.With(zap.String("provider", "stripe")),
	}
}

func (s *Stripe) CreatePaymentIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*usecase.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	if key := IntentIdempotencyKey(amountCents, metadata); key != "" {
		params.SetIdempotencyKey(key)
	}

	pi, err := s.intents.New(params)
	if err != nil {
		return nil, describe(err)
	}

	s.log.Debug("Payment intent created", zap.String("payment_intent", pi.ID))
	return &usecase.PaymentIntent{TransactionID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// IntentIdempotencyKey makes a retried request for the same booking, amount
// and attempt return the same intent. A payment after a refund carries a new
// attempt and so gets a fresh intent.
func IntentIdempotencyKey(amountCents int64, metadata map[string]string) string {
	bookingID := metadata[usecase.MetadataBookingID]
	if bookingID == "" {
		return ""
	}
	key := fmt.Sprintf("booking-%s-%d", bookingID, amountCents)
	if attempt := metadata[usecase.MetadataAttempt]; attempt != "" {
		key += "-" + attempt
	}
	return key
}

func (s *Stripe) Refund(ctx context.Context, transactionID string) error {
	params := &stripe.RefundParams{PaymentIntent: stripe.String(transactionID)}
	params.Context = ctx
	params.SetIdempotencyKey("refund-" + transactionID)

	if _, err := s.refunds.New(params); err != nil {
		return describe(err)
	}
	return nil
}

func (s *Stripe) ParseWebhook(payload []byte, signature string) (*usecase.PaymentEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("verify signature: %w", err)
	}

	out := &usecase.PaymentEvent{ID: event.ID, Type: string(event.Type)}
	if strings.HasPrefix(out.Type, "payment_intent.") && event.Data != nil {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("decode payment intent: %w", err)
		}
		out.TransactionID = pi.ID
		out.AmountCents = pi.Amount
		out.Metadata = pi.Metadata
	}

	return out, nil
}

// describe keeps the stripe error type and request id in the message.
func describe(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return fmt.Errorf("stripe %s (status %d, request %s): %w", stripeErr.Type, stripeErr.HTTPStatusCode, stripeErr.RequestID, err)
	}
	return fmt.Errorf("stripe: %w", err)
}
