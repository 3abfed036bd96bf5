package model

import "time"

// Run records one completed analysis pass, including where its artifacts were
// written. Runs are persisted so history survives restarts.
type Run struct {
	ID                string    `json:"id"`
	Site              string    `json:"site"`
	BaselineYear      string    `json:"baseline_year"`
	ComparisonYear    string    `json:"comparison_year"`
	StartedAt         time.Time `json:"started_at"`
	CompletedAt       time.Time `json:"completed_at"`
	Summary           Summary   `json:"summary"`
	GeoJSONPath       string    `json:"geojson_path"`
	VisualizationPath string    `json:"visualization_path"`
}
