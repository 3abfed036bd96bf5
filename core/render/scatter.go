// Package render draws scatter-plot visualizations of change-detection
// passes. The output mirrors the classic matplotlib rendering: all matched
// points in translucent blue, changed points as red crosses.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/atlasgrid/geochange/core/model"
)

const (
	width  = 1200
	height = 800
	margin = 60
)

var (
	pointColor  = color.NRGBA{R: 31, G: 119, B: 180, A: 96}
	changeColor = color.NRGBA{R: 214, G: 39, B: 40, A: 255}
	background  = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// Scatter writes PNG visualizations under a base directory using the naming
// scheme building_changes_visualization_<site>.png.
type Scatter struct {
	Dir string
}

// Path returns the artifact location for the named site.
func (s Scatter) Path(site string) string {
	return filepath.Join(s.Dir, fmt.Sprintf("building_changes_visualization_%s.png", site))
}

// Render draws the matched points with changes highlighted and returns the
// written path.
func (s Scatter) Render(site string, matched []model.Match, changes []model.Change) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create visualization dir: %w", err)
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, background)
		}
	}

	proj := newProjection(matched)
	for _, m := range matched {
		x, y := proj.toPixel(m.Longitude, m.Latitude)
		drawSquare(img, x, y, 2, pointColor)
	}
	for _, c := range changes {
		x, y := proj.toPixel(c.Longitude, c.Latitude)
		drawCross(img, x, y, 5, changeColor)
	}

	path := s.Path(site)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create visualization: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	return path, nil
}

// projection maps geographic coordinates onto the canvas, preserving the data
// bounding box with a fixed pixel margin. Latitude grows upward, pixel rows
// grow downward, so the y axis is flipped.
type projection struct {
	minLon, maxLon float64
	minLat, maxLat float64
}

func newProjection(matched []model.Match) projection {
	p := projection{minLon: 180, maxLon: -180, minLat: 90, maxLat: -90}
	for _, m := range matched {
		if m.Longitude < p.minLon {
			p.minLon = m.Longitude
		}
		if m.Longitude > p.maxLon {
			p.maxLon = m.Longitude
		}
		if m.Latitude < p.minLat {
			p.minLat = m.Latitude
		}
		if m.Latitude > p.maxLat {
			p.maxLat = m.Latitude
		}
	}
	// Degenerate extents (single point, or no points at all) still need a
	// non-zero span to divide by.
	if p.maxLon-p.minLon < 1e-9 {
		p.minLon -= 0.0005
		p.maxLon += 0.0005
	}
	if p.maxLat-p.minLat < 1e-9 {
		p.minLat -= 0.0005
		p.maxLat += 0.0005
	}
	return p
}

func (p projection) toPixel(lon, lat float64) (int, int) {
	x := margin + (lon-p.minLon)/(p.maxLon-p.minLon)*float64(width-2*margin)
	y := margin + (p.maxLat-lat)/(p.maxLat-p.minLat)*float64(height-2*margin)
	return int(x), int(y)
}

func drawSquare(img *image.NRGBA, cx, cy, r int, c color.NRGBA) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			set(img, cx+dx, cy+dy, c)
		}
	}
}

func drawCross(img *image.NRGBA, cx, cy, r int, c color.NRGBA) {
	for d := -r; d <= r; d++ {
		set(img, cx+d, cy+d, c)
		set(img, cx+d, cy-d, c)
		// Thicken the stroke by one pixel so crosses stay visible on
		// dense plots.
		set(img, cx+d+1, cy+d, c)
		set(img, cx+d+1, cy-d, c)
	}
}

func set(img *image.NRGBA, x, y int, c color.NRGBA) {
	if x < 0 || y < 0 || x >= width || y >= height {
		return
	}
	img.SetNRGBA(x, y, c)
}
