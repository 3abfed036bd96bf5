// Package geojson builds and persists GeoJSON documents describing detected
// presence changes.
package geojson

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/atlasgrid/geochange/core/model"
)

// FeatureCollection is a standard GeoJSON feature collection.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a single geographic feature with geometry and properties.
type Feature struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Geometry   Geometry       `json:"geometry"`
}

// Geometry holds a Point geometry. Coordinates are [longitude, latitude].
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// FromChanges converts detected changes to a feature collection. The per-year
// presence values are keyed by the snapshot year labels, e.g. "year_2021".
func FromChanges(changes []model.Change, baselineYear, comparisonYear string) FeatureCollection {
	features := make([]Feature, 0, len(changes))
	for _, c := range changes {
		features = append(features, Feature{
			Type: "Feature",
			Properties: map[string]any{
				"change_type": string(c.Type),
				fmt.Sprintf("year_%s", baselineYear):   c.BaselinePresence,
				fmt.Sprintf("year_%s", comparisonYear): c.ComparisonPresence,
				"geo": c.Geo,
			},
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{c.Longitude, c.Latitude},
			},
		})
	}
	return FeatureCollection{Type: "FeatureCollection", Features: features}
}

// FileExporter writes feature collections under a base directory using the
// naming scheme building_changes_<site>.geojson.
type FileExporter struct {
	Dir string
}

// Path returns the artifact location for the named site.
func (e FileExporter) Path(site string) string {
	return filepath.Join(e.Dir, fmt.Sprintf("building_changes_%s.geojson", site))
}

// Write persists the collection and returns the written path.
func (e FileExporter) Write(site string, fc FeatureCollection) (string, error) {
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create geojson dir: %w", err)
	}
	data, err := json.Marshal(fc)
	if err != nil {
		return "", fmt.Errorf("encode geojson: %w", err)
	}
	path := e.Path(site)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write geojson: %w", err)
	}
	return path, nil
}
