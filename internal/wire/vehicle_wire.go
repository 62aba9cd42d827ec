package wire

import (
	"vehicle-rental/internal/adaptor"
	"vehicle-rental/internal/data/repository"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireVehicle(
	r chi.Router,
	vehicleHandler *adaptor.VehicleHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	// All range endpoints take RFC3339 ?start=&end=
	r.Get("/api/vehicles/available", vehicleHandler.ListAvailable)
	r.Get("/api/vehicles/{id}/availability", vehicleHandler.CheckAvailability)
	r.Get("/api/vehicles/{id}/quote", vehicleHandler.Quote)
	r.Get("/api/locations", vehicleHandler.ListLocations)

	// ==================== STAFF ROUTES ====================
	r.Group(func(r chi.Router) {
		staffOnly(r, repo, log)
		r.Put("/api/staff/vehicles/{id}/status", vehicleHandler.UpdateStatus)
	})
}
