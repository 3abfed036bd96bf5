// Package metrics defines the sink interface used to record analysis and
// ingest events for observability purposes.
package metrics

import (
	"time"

	"github.com/atlasgrid/geochange/core/model"
)

// AnalysisRecord represents one completed (or failed) analysis pass.
type AnalysisRecord struct {
	Site        string
	Status      string // "ok" or "error"
	Summary     model.Summary
	Duration    time.Duration
	CompletedAt time.Time
}

// IngestRecord represents one live observation received over MQTT.
type IngestRecord struct {
	Observation model.Observation
	Accepted    bool
}

// Sink records analysis and ingest events.
type Sink interface {
	RecordAnalysis(records []AnalysisRecord) error
	RecordIngest(records []IngestRecord) error
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordAnalysis([]AnalysisRecord) error { return nil }
func (NopSink) RecordIngest([]IngestRecord) error     { return nil }
