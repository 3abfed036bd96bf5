// Package health exposes the service liveness endpoint.
package health

import (
	"encoding/json"
	"net/http"
)

// NewHandler returns an HTTP handler serving GET /health.
func NewHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})
}
