// Package results serves previously generated artifacts and persisted run
// history.
package results

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/atlasgrid/geochange/core/geojson"
	"github.com/atlasgrid/geochange/core/logger"
	"github.com/atlasgrid/geochange/core/model"
	"github.com/atlasgrid/geochange/core/render"
)

// RunLister lists persisted runs.
type RunLister interface {
	List(ctx context.Context, site string, limit int) ([]model.Run, error)
}

// ObservationLister lists persisted live observations.
type ObservationLister interface {
	List(ctx context.Context, site string, limit int) ([]model.Observation, error)
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// NewGeoJSONHandler serves the last generated GeoJSON for a site.
func NewGeoJSONHandler(exporter geojson.FileExporter, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		site := r.URL.Query().Get("dataset_type")
		if site == "" {
			writeError(w, http.StatusBadRequest, "query parameter dataset_type is required")
			return
		}
		data, err := os.ReadFile(exporter.Path(site))
		if err != nil {
			writeError(w, http.StatusNotFound, fmt.Sprintf("no GeoJSON found for dataset type %q", site))
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		if _, err := w.Write(data); err != nil {
			log.Errorf("write geojson: %v", err)
		}
	})
}

// NewVisualizationHandler serves the last generated PNG for a site.
func NewVisualizationHandler(scatter render.Scatter, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		site := r.URL.Query().Get("dataset_type")
		if site == "" {
			writeError(w, http.StatusBadRequest, "query parameter dataset_type is required")
			return
		}
		path := scatter.Path(site)
		if _, err := os.Stat(path); err != nil {
			writeError(w, http.StatusNotFound, fmt.Sprintf("no visualization found for dataset type %q", site))
			return
		}
		w.Header().Set("Content-Type", "image/png")
		http.ServeFile(w, r, path)
	})
}

// NewRunsHandler serves persisted run history via GET /api/runs.
func NewRunsHandler(runs RunLister, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		list, err := runs.List(r.Context(), r.URL.Query().Get("site"), 0)
		if err != nil {
			log.Errorf("list runs: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to list runs")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(list); err != nil {
			log.Errorf("encode runs: %v", err)
		}
	})
}

// NewObservationsHandler serves recent live observations via GET /api/observations.
func NewObservationsHandler(obs ObservationLister, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		list, err := obs.List(r.Context(), r.URL.Query().Get("site"), 0)
		if err != nil {
			log.Errorf("list observations: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to list observations")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(list); err != nil {
			log.Errorf("encode observations: %v", err)
		}
	})
}

func writeError(w http.ResponseWriter, code int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Detail: detail})
}
