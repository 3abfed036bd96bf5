package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/atlasgrid/geochange/core/model"
)

// Column names expected in snapshot exports. The geometry column is optional;
// column order is not significant.
const (
	colLatitude  = "latitude"
	colLongitude = "longitude"
	colPresence  = "presence"
	colGeo       = ".geo"
)

// Load reads a snapshot CSV and tags it with the given year label.
func Load(path, year string) (model.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	snap, err := Parse(f, year)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return snap, nil
}

// Parse reads snapshot CSV data from r. The first record must be a header
// containing at least the latitude, longitude and presence columns.
func Parse(r io.Reader, year string) (model.Snapshot, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{colLatitude, colLongitude, colPresence} {
		if _, ok := idx[required]; !ok {
			return model.Snapshot{}, fmt.Errorf("missing column %q", required)
		}
	}
	geoIdx, hasGeo := idx[colGeo]

	snap := model.Snapshot{Year: year}
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return model.Snapshot{}, fmt.Errorf("row %d: %w", row, err)
		}
		lat, err := strconv.ParseFloat(rec[idx[colLatitude]], 64)
		if err != nil {
			return model.Snapshot{}, fmt.Errorf("row %d: latitude: %w", row, err)
		}
		lon, err := strconv.ParseFloat(rec[idx[colLongitude]], 64)
		if err != nil {
			return model.Snapshot{}, fmt.Errorf("row %d: longitude: %w", row, err)
		}
		// Presence flags come out of raster exports as "0", "1" or
		// "1.0" depending on the tool.
		pres, err := strconv.ParseFloat(rec[idx[colPresence]], 64)
		if err != nil {
			return model.Snapshot{}, fmt.Errorf("row %d: presence: %w", row, err)
		}
		p := model.Point{Latitude: lat, Longitude: lon}
		if pres != 0 {
			p.Presence = 1
		}
		if hasGeo && geoIdx < len(rec) {
			p.Geo = rec[geoIdx]
		}
		snap.Points = append(snap.Points, p)
	}
	return snap, nil
}
