package adaptor

import (
	"errors"
	"io"
	"net/http"

	"vehicle-rental/internal/dto/request"
	"vehicle-rental/internal/usecase"
	"vehicle-rental/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	maxWebhookBytes = 64 << 10
	signatureHeader = "Stripe-Signature"
)

type PaymentHandler struct {
	service usecase.PaymentService
	log     *zap.Logger
}

func NewPaymentHandler(service usecase.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log.With(zap.String("handler", "payment")),
	}
}

// CreatePaymentIntent handles POST /api/payments/intent (public)
func (h *PaymentHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req request.CreatePaymentIntentRequest
	if err := decodeJSON(r, &req, false); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	intent, err := h.service.CreatePaymentIntent(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create payment intent")
		return
	}

	utils.ResponseCreated(w, "success", intent)
}

// Webhook handles POST /api/payments/webhook. The signature covers the raw
// body, so it is read unparsed.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.ResponseJSON(w, http.StatusRequestEntityTooLarge, false, "Payload too large", nil, nil)
			return
		}
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := h.service.HandleWebhook(r.Context(), payload, r.Header.Get(signatureHeader)); err != nil {
		handleServiceError(w, h.log, err, "handle payment webhook")
		return
	}

	utils.ResponseSuccess(w, "received", nil)
}

// RefundPayment handles POST /api/staff/bookings/{id}/refund
func (h *PaymentHandler) RefundPayment(w http.ResponseWriter, r *http.Request) {
	payment, err := h.service.RefundPayment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "refund payment")
		return
	}

	utils.ResponseSuccess(w, "Payment refunded", payment)
}
