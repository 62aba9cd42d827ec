package adaptor

import (
	"context"
	"net/http"

	"vehicle-rental/internal/dto/request"
	"vehicle-rental/internal/dto/response"
	"vehicle-rental/internal/usecase"
	"vehicle-rental/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingHandler struct {
	service usecase.BookingService
	log     *zap.Logger
}

func NewBookingHandler(service usecase.BookingService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log.With(zap.String("handler", "booking")),
	}
}

// CreateBooking handles POST /api/bookings (public)
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req request.CreateBookingRequest
	if err := decodeJSON(r, &req, false); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	booking, err := h.service.CreateBooking(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create booking")
		return
	}

	utils.ResponseCreated(w, "Booking submitted", booking)
}

// GetBooking handles GET /api/bookings/{id} (public)
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.service.GetBooking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get booking")
		return
	}

	utils.ResponseSuccess(w, "success", booking)
}

// ==================== STAFF METHODS ====================

// ListBookings handles GET /api/staff/bookings?status=&page=&per_page=
func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	req := &request.ListBookingsRequest{
		PaginatedRequest: request.PaginatedRequest{
			Page:    utils.ParseInt(query.Get("page"), 1),
			PerPage: utils.ParseInt(query.Get("per_page"), 20),
		},
	}
	if status := query.Get("status"); status != "" {
		req.Status = &status
	}

	bookings, err := h.service.ListBookings(r.Context(), req)
	if err != nil {
		handleServiceError(w, h.log, err, "list bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}

// Approve handles PUT /api/staff/bookings/{id}/approve
func (h *BookingHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.service.Approve, "approve booking")
}

// Reject handles PUT /api/staff/bookings/{id}/reject
func (h *BookingHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.service.Reject, "reject booking")
}

type reviewFunc func(ctx context.Context, bookingID string, actorID uuid.UUID, req *request.ReviewBookingRequest) (*response.BookingResponse, error)

func (h *BookingHandler) review(w http.ResponseWriter, r *http.Request, apply reviewFunc, operation string) {
	actorID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.ReviewBookingRequest
	if err := decodeJSON(r, &req, true); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	booking, err := apply(r.Context(), chi.URLParam(r, "id"), actorID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, operation)
		return
	}

	utils.ResponseSuccess(w, "success", booking)
}

// UpdateStatus handles PUT /api/staff/bookings/{id}/status
func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actorID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.UpdateStatusRequest
	if err := decodeJSON(r, &req, false); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	booking, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), actorID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update booking status")
		return
	}

	utils.ResponseSuccess(w, "success", booking)
}

// CompleteBooking handles PUT /api/staff/bookings/{id}/complete (body optional)
func (h *BookingHandler) CompleteBooking(w http.ResponseWriter, r *http.Request) {
	var req request.CompleteBookingRequest
	if err := decodeJSON(r, &req, true); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	booking, err := h.service.CompleteBooking(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "complete booking")
		return
	}

	utils.ResponseSuccess(w, "success", booking)
}

// Stats handles GET /api/staff/stats
func (h *BookingHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		handleServiceError(w, h.log, err, "get booking stats")
		return
	}

	utils.ResponseSuccess(w, "success", stats)
}
