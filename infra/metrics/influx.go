package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/atlasgrid/geochange/core/metrics"
	"github.com/atlasgrid/geochange/infra/logger"
)

// InfluxSink writes analysis and ingest events to an InfluxDB instance using
// the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg coremetrics.Config) coremetrics.Sink {
	sink := NewInfluxSink(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordAnalysis writes each pass as an analysis_run point.
func (s *InfluxSink) RecordAnalysis(records []coremetrics.AnalysisRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, r := range records {
		p := write.NewPointWithMeasurement("analysis_run").
			AddTag("site", r.Site).
			AddTag("status", r.Status).
			AddField("total_points", r.Summary.TotalPoints).
			AddField("total_changes", r.Summary.TotalChanges).
			AddField("change_percentage", round3(r.Summary.ChangePercentage)).
			AddField("new_buildings", r.Summary.NewBuildings).
			AddField("removed_buildings", r.Summary.RemovedBuildings).
			AddField("duration_ms", r.Duration.Milliseconds()).
			SetTime(r.CompletedAt)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordIngest writes each received observation as an observation point.
func (s *InfluxSink) RecordIngest(records []coremetrics.IngestRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, r := range records {
		o := r.Observation
		p := write.NewPointWithMeasurement("observation").
			AddTag("site", o.Site).
			AddTag("source", o.Source).
			AddField("latitude", o.Latitude).
			AddField("longitude", o.Longitude).
			AddField("presence", o.Presence).
			AddField("accepted", r.Accepted).
			SetTime(o.ObservedAt)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
