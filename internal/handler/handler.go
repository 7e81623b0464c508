package handler

import (
	"encoding/json"
	"net/http"

	"promo-console/internal/middleware"

	"github.com/rs/zerolog"
)

// ErrorResponse is the body of a console request that could not be served.
// RequestID matches the X-Request-ID response header and the request log.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// writeJSON writes a JSON response with the given status code. The console
// state is never cached.
func writeJSON(w http.ResponseWriter, status int, data interface{}, logger zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error().Err(err).Int("status", status).Msg("failed to encode response")
	}
}

// writeError logs and writes an error response for r.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string, logger zerolog.Logger) {
	requestID := middleware.GetRequestID(r.Context())
	logger.Error().
		Str("error", message).
		Int("status", status).
		Str("path", r.URL.Path).
		Str("request_id", requestID).
		Msg("handler error")
	writeJSON(w, status, ErrorResponse{Error: message, RequestID: requestID}, logger)
}
