package adaptor

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"vehicle-rental/internal/usecase"
	"vehicle-rental/pkg/utils"

	"go.uber.org/zap"
)

// handleServiceError maps service errors onto the HTTP status contract.
// Caller mistakes are logged at warn, everything unexpected at error.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var fieldErrs usecase.FieldErrors
	var transitionErr *usecase.InvalidTransitionError

	switch {
	case errors.As(err, &fieldErrs):
		log.Warn(operation+" validation failed", zap.Error(err), zap.String("operation", operation))
		utils.ResponseBadRequest(w, "Validation failed", map[string]string(fieldErrs))

	case errors.Is(err, usecase.ErrValidation):
		log.Warn("Invalid input for "+operation, zap.Error(err), zap.String("operation", operation))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrNotFound):
		log.Warn(operation+" failed - not found", zap.Error(err), zap.String("operation", operation))
		utils.ResponseNotFound(w, err.Error())

	case errors.As(err, &transitionErr):
		log.Warn(operation+" failed - invalid transition", zap.Error(err), zap.String("operation", operation))
		utils.ResponseConflict(w, err.Error(), map[string]any{
			"current": transitionErr.From,
			"allowed": transitionErr.Allowed,
		})

	case errors.Is(err, usecase.ErrPrecondition), errors.Is(err, usecase.ErrConflict):
		log.Warn(operation+" failed - conflict", zap.Error(err), zap.String("operation", operation))
		utils.ResponseConflict(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrProviderUnavailable):
		log.Error(operation+" failed - payment provider", zap.Error(err), zap.String("operation", operation))
		utils.ResponseServiceUnavailable(w, "Payment provider unavailable, retry later")

	default:
		log.Error("Failed to "+operation, zap.Error(err), zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}

// decodeJSON reads a request body. With optional set an empty body leaves
// dst untouched.
func decodeJSON(r *http.Request, dst any, optional bool) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if optional && errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
