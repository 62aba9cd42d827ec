package usecase

import (
	"time"

	"vehicle-rental/internal/data/repository"
	"vehicle-rental/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Booking BookingService
	Payment PaymentService
	Vehicle VehicleService
}

// Dependencies are the collaborators outside the database. Nil members fall
// back to no-op implementations and the wall clock.
type Dependencies struct {
	Provider PaymentProvider
	Notifier Notifier
	Cache    CalendarCache
	Clock    func() time.Time
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Notifier == nil {
		d.Notifier = NopNotifier{}
	}
	if d.Cache == nil {
		d.Cache = NopCalendarCache{}
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	return d
}

func NewService(repo *repository.Repository, config *utils.Config, deps Dependencies, log *zap.Logger) *Service {
	deps = deps.withDefaults()
	pricing := NewPricingCalculator(config.Payment.Currency, deps.Clock)

	return &Service{
		Booking: NewBookingService(repo, pricing, deps, log),
		Payment: NewPaymentService(repo, config.Payment.Currency, config.Payment.Timeout, deps, log),
		Vehicle: NewVehicleService(repo, pricing, deps, log),
	}
}
