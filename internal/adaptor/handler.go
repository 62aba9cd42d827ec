package adaptor

import (
	"vehicle-rental/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Booking *BookingHandler
	Payment *PaymentHandler
	Vehicle *VehicleHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Booking: NewBookingHandler(service.Booking, log),
		Payment: NewPaymentHandler(service.Payment, log),
		Vehicle: NewVehicleHandler(service.Vehicle, log),
	}
}
