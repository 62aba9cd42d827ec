package wire

import (
	"vehicle-rental/internal/adaptor"
	"vehicle-rental/internal/data/repository"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wirePayment(
	r chi.Router,
	paymentHandler *adaptor.PaymentHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	r.Post("/api/payments/intent", paymentHandler.CreatePaymentIntent)

	// Provider callback, authenticated by its signature header
	r.Post("/api/payments/webhook", paymentHandler.Webhook)

	// ==================== STAFF ROUTES ====================
	r.Group(func(r chi.Router) {
		staffOnly(r, repo, log)
		r.Post("/api/staff/bookings/{id}/refund", paymentHandler.RefundPayment)
	})
}
