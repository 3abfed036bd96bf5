// Package analysis implements presence change detection between two yearly
// snapshots of a site.
package analysis

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/atlasgrid/geochange/core/model"
)

// DefaultPrecision is the number of decimal places used to match coordinates
// across snapshots. Six decimals is roughly a tenth of a metre.
const DefaultPrecision = 6

// ErrNoMatches is returned when the two snapshots share no coordinates.
var ErrNoMatches = errors.New("snapshots share no coordinates")

// Result holds the outcome of one change-detection pass.
type Result struct {
	Matched []model.Match
	Changes []model.Change
	Summary model.Summary
}

type coordKey struct {
	lat, lon int64
}

func keyOf(lat, lon float64, scale float64) coordKey {
	return coordKey{
		lat: int64(math.Round(lat * scale)),
		lon: int64(math.Round(lon * scale)),
	}
}

// Detect joins the baseline and comparison snapshots on their coordinates and
// flags points whose presence changed. Only coordinates present in both
// snapshots are compared. Duplicate coordinates within a snapshot resolve to
// the last row, matching the source exports' own semantics.
func Detect(base, cmp model.Snapshot, precision int) (*Result, error) {
	if precision <= 0 {
		precision = DefaultPrecision
	}
	scale := math.Pow10(precision)

	baseByCoord := make(map[coordKey]model.Point, len(base.Points))
	for _, p := range base.Points {
		baseByCoord[keyOf(p.Latitude, p.Longitude, scale)] = p
	}

	// Changes is non-nil so a clean pass serializes as an empty list.
	res := &Result{Changes: []model.Change{}}
	matchedAt := make(map[coordKey]int)
	for _, p := range cmp.Points {
		k := keyOf(p.Latitude, p.Longitude, scale)
		bp, ok := baseByCoord[k]
		if !ok {
			continue
		}
		m := model.Match{
			Latitude:           p.Latitude,
			Longitude:          p.Longitude,
			BaselinePresence:   bp.Presence,
			ComparisonPresence: p.Presence,
			BaselineGeo:        bp.Geo,
			ComparisonGeo:      p.Geo,
			Changed:            bp.Presence != p.Presence,
		}
		if i, seen := matchedAt[k]; seen {
			res.Matched[i] = m
			continue
		}
		matchedAt[k] = len(res.Matched)
		res.Matched = append(res.Matched, m)
	}
	if len(res.Matched) == 0 {
		return nil, ErrNoMatches
	}

	for _, m := range res.Matched {
		if !m.Changed {
			continue
		}
		c := model.Change{
			Latitude:           m.Latitude,
			Longitude:          m.Longitude,
			BaselinePresence:   m.BaselinePresence,
			ComparisonPresence: m.ComparisonPresence,
		}
		if m.ComparisonPresence > m.BaselinePresence {
			c.Type = model.ChangeNew
		} else {
			c.Type = model.ChangeRemoved
		}
		// Prefer the comparison-year geometry, fall back to baseline.
		c.Geo = m.ComparisonGeo
		if c.Geo == "" {
			c.Geo = m.BaselineGeo
		}
		res.Changes = append(res.Changes, c)
	}

	res.Summary = summarize(res.Matched, res.Changes)
	return res, nil
}

func summarize(matched []model.Match, changes []model.Change) model.Summary {
	s := model.Summary{
		TotalPoints:  len(matched),
		TotalChanges: len(changes),
	}
	s.ChangePercentage = float64(len(changes)) / float64(len(matched)) * 100
	for _, c := range changes {
		switch c.Type {
		case model.ChangeNew:
			s.NewBuildings++
		case model.ChangeRemoved:
			s.RemovedBuildings++
		}
	}
	if len(changes) == 0 {
		return s
	}

	lats := make([]float64, len(changes))
	lons := make([]float64, len(changes))
	for i, c := range changes {
		lats[i] = c.Latitude
		lons[i] = c.Longitude
	}
	s.CentroidLatitude = stat.Mean(lats, nil)
	s.CentroidLongitude = stat.Mean(lons, nil)
	if len(changes) > 1 {
		s.SpreadLatitude = stat.StdDev(lats, nil)
		s.SpreadLongitude = stat.StdDev(lons, nil)
	}
	return s
}
