// ABOUTME: JSON response helpers for middleware
// ABOUTME: Middleware errors use the same {"detail": ...} shape as handlers

package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

// writeJSONError writes {"detail": message} with the given status code
func writeJSONError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, errorResponse{Detail: message})
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode middleware response", "error", err)
	}
}
