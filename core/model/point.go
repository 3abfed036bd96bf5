package model

// Point is a single surveyed location within a yearly snapshot. Presence is 1
// when a building footprint was detected at the coordinate, 0 otherwise. Geo
// carries the raw geometry payload from the source export, if any.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Presence  int     `json:"presence"`
	Geo       string  `json:"geo,omitempty"`
}

// Snapshot is one year's worth of surveyed points for a site.
type Snapshot struct {
	Year   string  `json:"year"`
	Points []Point `json:"points"`
}
