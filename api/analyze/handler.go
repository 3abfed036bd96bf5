// Package analyze exposes the change-detection operation over HTTP.
package analyze

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/atlasgrid/geochange/core/analysis"
	"github.com/atlasgrid/geochange/core/logger"
)

// Runner runs one analysis pass for a site.
type Runner interface {
	Analyze(ctx context.Context, site string) (*analysis.Outcome, error)
}

type response struct {
	Summary           any    `json:"summary"`
	GeoJSON           any    `json:"geojson"`
	VisualizationPath string `json:"visualization_path"`
	Changes           any    `json:"changes"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// NewHandler returns an HTTP handler serving GET /analyze-building-changes/.
// All analysis failures map to 400, mirroring the historical API contract.
func NewHandler(runner Runner, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		site := r.URL.Query().Get("dataset_type")
		if site == "" {
			writeError(w, http.StatusBadRequest, "query parameter dataset_type is required")
			return
		}
		out, err := runner.Analyze(r.Context(), site)
		if err != nil {
			log.Warnf("analysis for %s failed: %v", site, err)
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		resp := response{
			Summary:           out.Summary,
			GeoJSON:           out.FeatureCollection,
			VisualizationPath: out.Run.VisualizationPath,
			Changes:           out.Changes,
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Errorf("encode response: %v", err)
		}
	})
}

func writeError(w http.ResponseWriter, code int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Detail: detail})
}
