package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// respondError writes a machine-readable error category plus a human message.
func respondError(w http.ResponseWriter, status int, category, message string) {
	respondJSON(w, status, map[string]string{
		"error":   category,
		"message": message,
	})
}

// respondValidation writes a per-field error map.
func respondValidation(w http.ResponseWriter, errs map[string]string) {
	respondJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"error":  "validation_failed",
		"errors": errs,
	})
}
