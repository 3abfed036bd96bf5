package analysis

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/atlasgrid/geochange/core/geojson"
	"github.com/atlasgrid/geochange/core/logger"
	"github.com/atlasgrid/geochange/core/metrics"
	"github.com/atlasgrid/geochange/core/model"
	"github.com/atlasgrid/geochange/internal/eventbus"
)

// SnapshotLoader resolves a site to its baseline and comparison snapshots.
type SnapshotLoader interface {
	LoadPair(site string) (base, cmp model.Snapshot, err error)
}

// Exporter persists a feature collection and returns the artifact path.
type Exporter interface {
	Write(site string, fc geojson.FeatureCollection) (string, error)
}

// Renderer persists a visualization of the pass and returns the artifact path.
type Renderer interface {
	Render(site string, matched []model.Match, changes []model.Change) (string, error)
}

// RunStore persists completed runs.
type RunStore interface {
	Insert(ctx context.Context, run model.Run) error
}

// Outcome is the full result of one analysis pass, as served to API clients.
type Outcome struct {
	Run               model.Run                 `json:"run"`
	Summary           model.Summary             `json:"summary"`
	Changes           []model.Change            `json:"changes"`
	FeatureCollection geojson.FeatureCollection `json:"geojson"`
}

// Manager orchestrates one analysis pass: load, detect, export, render and
// persist. Completed passes are published on the event bus for the metrics
// recorder.
type Manager struct {
	loader    SnapshotLoader
	exporter  Exporter
	renderer  Renderer
	runs      RunStore
	bus       *eventbus.Bus[metrics.AnalysisRecord]
	log       logger.Logger
	precision int
}

// NewManager wires an analysis manager. runs may be nil when persistence is
// not configured.
func NewManager(
	loader SnapshotLoader,
	exporter Exporter,
	renderer Renderer,
	runs RunStore,
	bus *eventbus.Bus[metrics.AnalysisRecord],
	log logger.Logger,
	precision int,
) *Manager {
	if precision <= 0 {
		precision = DefaultPrecision
	}
	return &Manager{
		loader:    loader,
		exporter:  exporter,
		renderer:  renderer,
		runs:      runs,
		bus:       bus,
		log:       log,
		precision: precision,
	}
}

// Analyze runs change detection for the named site and writes all artifacts.
func (m *Manager) Analyze(ctx context.Context, site string) (*Outcome, error) {
	started := time.Now().UTC()

	base, cmp, err := m.loader.LoadPair(site)
	if err != nil {
		m.record(site, "error", model.Summary{}, started)
		return nil, err
	}
	res, err := Detect(base, cmp, m.precision)
	if err != nil {
		m.record(site, "error", model.Summary{}, started)
		return nil, err
	}

	fc := geojson.FromChanges(res.Changes, base.Year, cmp.Year)
	geojsonPath, err := m.exporter.Write(site, fc)
	if err != nil {
		m.record(site, "error", res.Summary, started)
		return nil, err
	}
	vizPath, err := m.renderer.Render(site, res.Matched, res.Changes)
	if err != nil {
		m.record(site, "error", res.Summary, started)
		return nil, err
	}

	run := model.Run{
		ID:                uuid.NewString(),
		Site:              site,
		BaselineYear:      base.Year,
		ComparisonYear:    cmp.Year,
		StartedAt:         started,
		CompletedAt:       time.Now().UTC(),
		Summary:           res.Summary,
		GeoJSONPath:       geojsonPath,
		VisualizationPath: vizPath,
	}
	if m.runs != nil {
		// History is best effort: a storage failure must not fail the
		// analysis itself.
		if err := m.runs.Insert(ctx, run); err != nil {
			m.log.Warnf("persist run %s: %v", run.ID, err)
		}
	}
	m.record(site, "ok", res.Summary, started)

	return &Outcome{
		Run:               run,
		Summary:           res.Summary,
		Changes:           res.Changes,
		FeatureCollection: fc,
	}, nil
}

func (m *Manager) record(site, status string, summary model.Summary, started time.Time) {
	if m.bus == nil {
		return
	}
	now := time.Now().UTC()
	m.bus.Publish(metrics.AnalysisRecord{
		Site:        site,
		Status:      status,
		Summary:     summary,
		Duration:    now.Sub(started),
		CompletedAt: now,
	})
}
