package wire

import (
	"vehicle-rental/internal/adaptor"
	"vehicle-rental/internal/data/repository"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	r.Post("/api/bookings", bookingHandler.CreateBooking)
	r.Get("/api/bookings/{id}", bookingHandler.GetBooking)

	// ==================== STAFF ROUTES ====================
	r.Group(func(r chi.Router) {
		staffOnly(r, repo, log)

		r.Get("/api/staff/bookings", bookingHandler.ListBookings)
		r.Put("/api/staff/bookings/{id}/approve", bookingHandler.Approve)
		r.Put("/api/staff/bookings/{id}/reject", bookingHandler.Reject)
		r.Put("/api/staff/bookings/{id}/status", bookingHandler.UpdateStatus)
		r.Put("/api/staff/bookings/{id}/complete", bookingHandler.CompleteBooking)
		r.Get("/api/staff/stats", bookingHandler.Stats)
	})
}
