package model

import (
	"fmt"
	"time"
)

// Observation is a live point report received from a field device or an
// upstream export job, keyed to a site.
type Observation struct {
	Site       string    `json:"site"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Presence   int       `json:"presence"`
	Source     string    `json:"source"`
	ObservedAt time.Time `json:"observed_at"`
}

// Validate checks coordinate ranges and the presence flag.
func (o Observation) Validate() error {
	if o.Site == "" {
		return fmt.Errorf("observation missing site")
	}
	if o.Latitude < -90 || o.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range", o.Latitude)
	}
	if o.Longitude < -180 || o.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range", o.Longitude)
	}
	if o.Presence != 0 && o.Presence != 1 {
		return fmt.Errorf("presence must be 0 or 1, got %d", o.Presence)
	}
	return nil
}
