package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/zatekoja/clinicbooking/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/clinicbooking/pkg/errors"
)

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Details []apperrors.FieldError `json:"details,omitempty"`
}

// errorMessages holds the client-facing text for tags whose internal message must not leak
type errorMessages struct {
	configuration string
	upstream      string
	internal      string
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, ErrorResponse{Error: message})
}

// StatusForError maps an error tag to its HTTP status. No route addresses a single
// event, so a NOT_FOUND from the calendar is an internal failure here.
func StatusForError(err error) int {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case apperrors.ErrorTypeConfiguration, apperrors.ErrorTypeUpstreamUnavailable:
		return http.StatusServiceUnavailable
	case apperrors.ErrorTypeBookingConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondWithAppError writes the error with its tag's status. Validation and conflict
// messages are shown to the client; everything else uses the handler's fixed text.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error, messages errorMessages) {
	status := StatusForError(err)
	logger := observability.LoggerFromContext(r.Context())

	body := ErrorResponse{Error: messages.internal}
	appErr, ok := apperrors.AsAppError(err)
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeValidation, apperrors.ErrorTypeBookingConflict:
		body.Error = appErr.Message
		body.Details = appErr.Fields
		logger.Info().Err(err).Int("status", status).Msg("Request rejected")
		respondWithJSON(w, status, body)
		return
	case apperrors.ErrorTypeConfiguration:
		body.Error = messages.configuration
		if ok {
			logger.Error().Strs("missing", appErr.Missing).Msg("Service is not configured")
		}
	case apperrors.ErrorTypeUpstreamUnavailable:
		body.Error = messages.upstream
		logger.Error().Err(err).Msg("Upstream service unavailable")
	default:
		logger.Error().Err(err).Msg("Request failed")
	}
	respondWithJSON(w, status, body)
}
