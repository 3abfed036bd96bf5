package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/atlasgrid/geochange/core/metrics"
	"github.com/atlasgrid/geochange/core/model"
)

func newWriteCaptureServer(t *testing.T, body *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		*body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestInfluxSink_RecordAnalysis(t *testing.T) {
	var body string
	srv := newWriteCaptureServer(t, &body)

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()

	now := time.Now()
	rec := coremetrics.AnalysisRecord{
		Site:   "SRM",
		Status: "ok",
		Summary: model.Summary{
			TotalPoints:      2,
			TotalChanges:     1,
			ChangePercentage: 50,
			NewBuildings:     1,
		},
		Duration:    1500 * time.Millisecond,
		CompletedAt: now,
	}
	if err := sink.RecordAnalysis([]coremetrics.AnalysisRecord{rec}); err != nil {
		t.Fatalf("record error: %v", err)
	}

	p := write.NewPointWithMeasurement("analysis_run").
		AddTag("site", "SRM").
		AddTag("status", "ok").
		AddField("total_points", 2).
		AddField("total_changes", 1).
		AddField("change_percentage", 50.0).
		AddField("new_buildings", 1).
		AddField("removed_buildings", 0).
		AddField("duration_ms", int64(1500)).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if strings.TrimSpace(body) != expected {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestInfluxSink_RecordIngest(t *testing.T) {
	var body string
	srv := newWriteCaptureServer(t, &body)

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()

	observedAt := time.Unix(1700000000, 0).UTC()
	rec := coremetrics.IngestRecord{
		Observation: model.Observation{
			Site:       "SRM",
			Latitude:   28.5,
			Longitude:  77.1,
			Presence:   1,
			Source:     "drone",
			ObservedAt: observedAt,
		},
		Accepted: true,
	}
	if err := sink.RecordIngest([]coremetrics.IngestRecord{rec}); err != nil {
		t.Fatalf("record error: %v", err)
	}

	p := write.NewPointWithMeasurement("observation").
		AddTag("site", "SRM").
		AddTag("source", "drone").
		AddField("latitude", 28.5).
		AddField("longitude", 77.1).
		AddField("presence", 1).
		AddField("accepted", true).
		SetTime(observedAt)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if strings.TrimSpace(body) != expected {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	cfg := coremetrics.Config{
		InfluxURL:    srv.URL + "/api/v2/write",
		InfluxToken:  "tok",
		InfluxOrg:    "org",
		InfluxBucket: "bucket",
	}
	sink := NewInfluxSinkWithFallback(cfg)
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
