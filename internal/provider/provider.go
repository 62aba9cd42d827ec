// Package provider holds the payment processor adapters behind usecase.PaymentProvider.
package provider

import (
	"fmt"

	"vehicle-rental/internal/usecase"
	"vehicle-rental/pkg/utils"

	"go.uber.org/zap"
)

// New selects the adapter named by PAYMENT_PROVIDER.
func New(cfg utils.PaymentConfig, log *zap.Logger) (usecase.PaymentProvider, error) {
	switch cfg.Provider {
	case utils.ProviderStripe:
		return NewStripe(cfg.StripeKey, cfg.WebhookSecret, cfg.Timeout, log), nil
	case utils.ProviderMock, "":
		return NewMock(log), nil
	default:
		return nil, fmt.Errorf("unknown payment provider %q", cfg.Provider)
	}
}
