package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/h-tadlaoui/nova-app/internal/matching"
	"github.com/h-tadlaoui/nova-app/internal/model"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Error().Err(err).Msg("encoding response")
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

type validationResponse struct {
	Error  string             `json:"error"`
	Fields []model.FieldError `json:"fields"`
}

// writeServiceError maps domain and matching errors to HTTP statuses.
// Anything unrecognized is logged and reported as a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		jsonResponse(w, http.StatusBadRequest, validationResponse{Error: "validation failed", Fields: verr.Errors})
	case errors.Is(err, model.ErrValidation):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrNotFound):
		jsonError(w, http.StatusNotFound, "not found")
	case errors.Is(err, model.ErrForbidden):
		jsonError(w, http.StatusForbidden, "insufficient permissions")
	case errors.Is(err, model.ErrConflict):
		jsonError(w, http.StatusConflict, err.Error())
	case errors.Is(err, matching.ErrRateLimited):
		jsonError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
	case errors.Is(err, matching.ErrQuotaExhausted):
		jsonError(w, http.StatusPaymentRequired, "scoring credits exhausted")
	case errors.Is(err, matching.ErrScoringFailed):
		logger(r).Error().Err(err).Msg("scoring failed")
		jsonError(w, http.StatusBadGateway, "match scoring failed")
	case errors.Is(err, context.DeadlineExceeded):
		logger(r).Error().Err(err).Msg("request timed out")
		jsonError(w, http.StatusGatewayTimeout, "operation timed out")
	default:
		logger(r).Error().Err(err).Msg("internal error")
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}

// logger returns the request-scoped logger.
func logger(r *http.Request) *zerolog.Logger {
	return zerolog.Ctx(r.Context())
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, model.NewValidationError("id", "must be a positive integer")
	}
	return id, nil
}
