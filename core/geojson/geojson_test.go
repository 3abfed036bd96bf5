package geojson

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/atlasgrid/geochange/core/model"
)

func TestFromChanges(t *testing.T) {
	changes := []model.Change{
		{Latitude: 28.5, Longitude: 77.1, Type: model.ChangeNew, BaselinePresence: 0, ComparisonPresence: 1, Geo: "g"},
		{Latitude: 28.6, Longitude: 77.2, Type: model.ChangeRemoved, BaselinePresence: 1, ComparisonPresence: 0},
	}
	fc := FromChanges(changes, "2021", "2023")
	if fc.Type != "FeatureCollection" || len(fc.Features) != 2 {
		t.Fatalf("unexpected collection %+v", fc)
	}
	f := fc.Features[0]
	if f.Geometry.Type != "Point" {
		t.Fatalf("geometry type %q", f.Geometry.Type)
	}
	if f.Geometry.Coordinates[0] != 77.1 || f.Geometry.Coordinates[1] != 28.5 {
		t.Fatalf("coordinates must be [lon, lat], got %v", f.Geometry.Coordinates)
	}
	if f.Properties["change_type"] != "new" {
		t.Fatalf("change_type %v", f.Properties["change_type"])
	}
	if f.Properties["year_2021"] != 0 || f.Properties["year_2023"] != 1 {
		t.Fatalf("year properties %v", f.Properties)
	}
	if fc.Features[1].Properties["change_type"] != "removed" {
		t.Fatalf("second change should be removed")
	}
}

func TestFromChangesEmpty(t *testing.T) {
	fc := FromChanges(nil, "2021", "2023")
	data, err := json.Marshal(fc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	// An empty result must serialize as an empty array, not null.
	if !strings.Contains(string(data), `"features":[]`) {
		t.Fatalf("unexpected encoding %s", data)
	}
}

func TestFileExporterWrite(t *testing.T) {
	dir := t.TempDir()
	exp := FileExporter{Dir: dir}
	fc := FromChanges([]model.Change{{Latitude: 1, Longitude: 2, Type: model.ChangeNew}}, "2021", "2023")
	path, err := exp.Write("SRM", fc)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.HasSuffix(path, "building_changes_SRM.geojson") {
		t.Fatalf("unexpected path %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	var got FeatureCollection
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Features) != 1 {
		t.Fatalf("expected one feature")
	}
}
