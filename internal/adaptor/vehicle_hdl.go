package adaptor

import (
	"net/http"
	"strings"

	"vehicle-rental/internal/dto/request"
	"vehicle-rental/internal/usecase"
	"vehicle-rental/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type VehicleHandler struct {
	service usecase.VehicleService
	log     *zap.Logger
}

func NewVehicleHandler(service usecase.VehicleService, log *zap.Logger) *VehicleHandler {
	return &VehicleHandler{
		service: service,
		log:     log.With(zap.String("handler", "vehicle")),
	}
}

// parsePeriod reads the mandatory start and end query parameters.
func parsePeriod(r *http.Request) (request.PeriodQuery, map[string]string) {
	query := r.URL.Query()
	errs := make(map[string]string)

	start, err := utils.ParseTimeParam("start", query.Get("start"))
	if err != nil {
		errs["start"] = err.Error()
	}
	end, err := utils.ParseTimeParam("end", query.Get("end"))
	if err != nil {
		errs["end"] = err.Error()
	}

	return request.PeriodQuery{Start: start, End: end}, errs
}

// ListAvailable handles GET /api/vehicles/available?start=&end=&page=&per_page=
func (h *VehicleHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	period, errs := parsePeriod(r)
	if len(errs) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", errs)
		return
	}

	query := r.URL.Query()
	page := request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 20),
	}

	vehicles, err := h.service.ListAvailable(r.Context(), period, page)
	if err != nil {
		handleServiceError(w, h.log, err, "list available vehicles")
		return
	}

	utils.ResponseSuccess(w, "success", vehicles)
}

// CheckAvailability handles GET /api/vehicles/{id}/availability?start=&end=
func (h *VehicleHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	period, errs := parsePeriod(r)
	if len(errs) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", errs)
		return
	}

	availability, err := h.service.CheckAvailability(r.Context(), chi.URLParam(r, "id"), period)
	if err != nil {
		handleServiceError(w, h.log, err, "check availability")
		return
	}

	utils.ResponseSuccess(w, "success", availability)
}

// Quote handles GET /api/vehicles/{id}/quote?start=&end=
func (h *VehicleHandler) Quote(w http.ResponseWriter, r *http.Request) {
	period, errs := parsePeriod(r)
	if len(errs) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", errs)
		return
	}

	quote, err := h.service.Quote(r.Context(), chi.URLParam(r, "id"), period)
	if err != nil {
		handleServiceError(w, h.log, err, "quote rental")
		return
	}

	utils.ResponseSuccess(w, "success", quote)
}

// ListLocations handles GET /api/locations?city=
func (h *VehicleHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	var city *string
	if c := strings.TrimSpace(r.URL.Query().Get("city")); c != "" {
		city = &c
	}

	locations, err := h.service.ListLocations(r.Context(), city)
	if err != nil {
		handleServiceError(w, h.log, err, "list locations")
		return
	}

	utils.ResponseSuccess(w, "success", locations)
}

// ==================== STAFF METHODS ====================

// UpdateStatus handles PUT /api/staff/vehicles/{id}/status
func (h *VehicleHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateVehicleStatusRequest
	if err := decodeJSON(r, &req, false); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	vehicle, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update vehicle status")
		return
	}

	utils.ResponseSuccess(w, "success", vehicle)
}
