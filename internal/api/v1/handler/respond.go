package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"app/internal/apperr"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// baseHandler carries the pieces every handler shares.
type baseHandler struct {
	validate *validator.Validate
	logger   zerolog.Logger
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// statusFor maps domain error codes to HTTP status codes.
func statusFor(code apperr.Code) int {
	switch code {
	case apperr.CodePermissionDenied:
		return http.StatusForbidden
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeConflict, apperr.CodeOwnershipConflict:
		return http.StatusConflict
	case apperr.CodeQuotaExceeded:
		return http.StatusUnprocessableEntity
	case apperr.CodeInviteExpired, apperr.CodeInviteExhausted, apperr.CodeInviteRevoked:
		return http.StatusGone
	case apperr.CodeInvalidRole, apperr.CodeValidation:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError renders a domain error as JSON. Unclassified errors are logged
// and reported as an opaque 500.
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	var e *apperr.Error
	if !errors.As(err, &e) {
		logger.Error().Err(err).Msg("Unhandled internal error")
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Code:    "INTERNAL",
			Message: "internal server error",
		})
		return
	}

	body := errorBody{Code: string(e.Code), Message: e.Message}
	switch e.Code {
	case apperr.CodeQuotaExceeded:
		body.Details = map[string]any{
			"kind":    string(e.Kind),
			"limit":   e.Limit,
			"current": e.Current,
		}
	case apperr.CodeNotFound:
		if e.Entity != "" {
			body.Details = map[string]any{"entity": e.Entity}
		}
	}
	writeJSON(w, statusFor(e.Code), body)
}

// decodeValid decodes the request body into v and runs struct validation.
func (h *baseHandler) decodeValid(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, h.logger, apperr.Validation("invalid JSON payload"))
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		writeError(w, h.logger, apperr.Validation(err.Error()))
		return false
	}
	return true
}
