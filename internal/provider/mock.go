package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"vehicle-rental/internal/usecase"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Mock is the local development processor. It issues pi_mock_ ids and accepts
// unsigned JSON webhooks of the form
//
//	{"id": "...", "type": "payment_intent.succeeded", "transaction_id": "pi_mock_...", "metadata": {...}}
type Mock struct {
	log *zap.Logger
}

func NewMock(log *zap.Logger) *Mock {
	return &Mock{log: log.With(zap.String("provider", "mock"))}
}

func (m *Mock) CreatePaymentIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*usecase.PaymentIntent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if amountCents <= 0 {
		return nil, fmt.Errorf("mock: invalid amount %d", amountCents)
	}

	id := "pi_mock_" + uuid.NewString()
	m.log.Info("Mock payment intent created",
		zap.String("transaction_id", id),
		zap.Int64("amount_cents", amountCents),
		zap.String("currency", currency),
		zap.Any("metadata", metadata),
	)

	return &usecase.PaymentIntent{TransactionID: id, ClientSecret: id + "_secret_" + uuid.NewString()}, nil
}

func (m *Mock) Refund(ctx context.Context, transactionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.log.Info("Mock refund issued", zap.String("transaction_id", transactionID))
	return nil
}

type mockWebhook struct {
	ID            string            `json:"id"`
	Type          string            `json:"type"`
	TransactionID string            `json:"transaction_id"`
	AmountCents   int64             `json:"amount_cents"`
	Metadata      map[string]string `json:"metadata"`
}

func (m *Mock) ParseWebhook(payload []byte, _ string) (*usecase.PaymentEvent, error) {
	var hook mockWebhook
	if err := json.Unmarshal(payload, &hook); err != nil {
		return nil, fmt.Errorf("mock: decode webhook: %w", err)
	}
	if hook.Type == "" {
		return nil, errors.New("mock: webhook type is required")
	}
	if hook.ID == "" {
		hook.ID = "evt_mock_" + uuid.NewString()
	}

	return &usecase.PaymentEvent{
		ID:            hook.ID,
		Type:          hook.Type,
		TransactionID: hook.TransactionID,
		AmountCents:   hook.AmountCents,
		Metadata:      hook.Metadata,
	}, nil
}
