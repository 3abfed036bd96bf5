package model

// ChangeType classifies a presence change between the two snapshot years.
type ChangeType string

const (
	// ChangeNew marks a coordinate where a building appeared in the
	// comparison year.
	ChangeNew ChangeType = "new"
	// ChangeRemoved marks a coordinate where a building disappeared.
	ChangeRemoved ChangeType = "removed"
)

// Change is a single coordinate whose presence flag differs between the
// baseline and comparison snapshots.
type Change struct {
	Latitude           float64    `json:"latitude"`
	Longitude          float64    `json:"longitude"`
	Type               ChangeType `json:"change_type"`
	BaselinePresence   int        `json:"baseline_presence"`
	ComparisonPresence int        `json:"comparison_presence"`
	Geo                string     `json:"geo,omitempty"`
}

// Match is a coordinate present in both snapshots, with the presence flag of
// each year.
type Match struct {
	Latitude           float64
	Longitude          float64
	BaselinePresence   int
	ComparisonPresence int
	BaselineGeo        string
	ComparisonGeo      string
	Changed            bool
}

// Summary aggregates one change-detection pass over a site.
type Summary struct {
	TotalPoints      int     `json:"total_points"`
	TotalChanges     int     `json:"total_changes"`
	ChangePercentage float64 `json:"change_percentage"`
	NewBuildings     int     `json:"new_buildings"`
	RemovedBuildings int     `json:"removed_buildings"`
	// Centroid and spread of the changed coordinates. Zero when no change
	// was detected.
	CentroidLatitude  float64 `json:"centroid_latitude"`
	CentroidLongitude float64 `json:"centroid_longitude"`
	SpreadLatitude    float64 `json:"spread_latitude"`
	SpreadLongitude   float64 `json:"spread_longitude"`
}
