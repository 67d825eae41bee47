// Package handler provides HTTP handlers for the gateway's local API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/devlinkhq/client-gateway/internal/backend"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeBackendError maps a backend client error to a local response:
// expired sessions surface as 401 so the shell redirects to login, client
// mistakes pass through, everything else is a transient upstream failure
// the user can retry.
func writeBackendError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "session expired")
	case errors.Is(err, backend.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
			writeError(w, apiErr.Status, apiErr.Message)
			return
		}
		writeError(w, http.StatusBadGateway, fallback)
	}
}
