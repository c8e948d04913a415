package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// writeJSON encodes data as the response body under the given status.
// Once WriteHeader runs the status is on the wire, so an encode failure
// can only be logged, never reported back to the client.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// ErrorResponse is the JSON error body. Error is a stable machine-readable
// code (e.g. SESSION_NOT_FOUND); Message carries human-readable detail.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeError writes an ErrorResponse with the given status.
func writeError(w http.ResponseWriter, status int, err string, message string) {
	writeJSON(w, status, ErrorResponse{Error: err, Message: message})
}
