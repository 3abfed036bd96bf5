// Package app wires the configuration into a runnable service.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/atlasgrid/geochange/api/analyze"
	"github.com/atlasgrid/geochange/api/health"
	"github.com/atlasgrid/geochange/api/middleware"
	"github.com/atlasgrid/geochange/api/results"
	"github.com/atlasgrid/geochange/config"
	"github.com/atlasgrid/geochange/core/analysis"
	"github.com/atlasgrid/geochange/core/dataset"
	"github.com/atlasgrid/geochange/core/geojson"
	"github.com/atlasgrid/geochange/core/ingest"
	coremetrics "github.com/atlasgrid/geochange/core/metrics"
	"github.com/atlasgrid/geochange/core/render"
	"github.com/atlasgrid/geochange/infra/logger"
	"github.com/atlasgrid/geochange/infra/metrics"
	"github.com/atlasgrid/geochange/infra/mqtt"
	"github.com/atlasgrid/geochange/infra/store"
	"github.com/atlasgrid/geochange/internal/eventbus"
)

// Service orchestrates the analysis manager, the API server and the
// observation ingest.
type Service struct {
	Manager *analysis.Manager

	cfg      *config.Config
	log      logger.Logger
	db       *sql.DB
	runs     *store.RunRepo
	obs      *store.ObservationRepo
	bus      *eventbus.Bus[coremetrics.AnalysisRecord]
	sink     coremetrics.Sink
	exporter geojson.FileExporter
	renderer render.Scatter
	sub      *mqtt.Subscriber
}

// New creates a Service from the configuration.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	registry, err := dataset.NewRegistry(cfg.Datasets)
	if err != nil {
		return nil, fmt.Errorf("dataset registry: %w", err)
	}

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics))
	}
	var sink coremetrics.Sink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = coremetrics.NewMultiSink(sinks...)
	}

	svc := &Service{
		cfg:      cfg,
		log:      logg,
		sink:     sink,
		bus:      eventbus.New[coremetrics.AnalysisRecord](),
		exporter: geojson.FileExporter{Dir: cfg.Output.GeoJSONDir},
		renderer: render.Scatter{Dir: cfg.Output.VisualizationDir},
	}

	var runStore analysis.RunStore
	if cfg.Storage.Path != "" {
		db, err := store.Open(ctx, cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		svc.db = db
		svc.runs = store.NewRunRepo(db)
		svc.obs = store.NewObservationRepo(db)
		runStore = svc.runs
	}

	svc.Manager = analysis.NewManager(
		registry,
		svc.exporter,
		svc.renderer,
		runStore,
		svc.bus,
		logg,
		cfg.Analysis.CoordinatePrecision,
	)

	if cfg.Ingest.Enabled {
		if svc.obs == nil {
			return nil, fmt.Errorf("ingest requires storage.path to be configured")
		}
		handler := ingest.NewHandler(svc.obs, sink, logg)
		sub, err := mqtt.NewSubscriber(cfg.Ingest, handler.Handle, sink)
		if err != nil {
			return nil, fmt.Errorf("mqtt subscriber: %w", err)
		}
		svc.sub = sub
	}
	return svc, nil
}

// Run starts the API server, the metrics server and the analysis recorder,
// blocking until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	// Subscribe before serving so the first analysis cannot publish ahead of
	// the recorder.
	go s.recordAnalyses(s.bus.Subscribe())
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:    s.cfg.Server.Addr,
		Handler: middleware.CORS(s.routes()),
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("API listening on %s", s.cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Errorf("api shutdown: %v", err)
	}
	return nil
}

func (s *Service) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/analyze-building-changes/", analyze.NewHandler(s.Manager, s.log))
	mux.Handle("/geojson/", results.NewGeoJSONHandler(s.exporter, s.log))
	mux.Handle("/visualization/", results.NewVisualizationHandler(s.renderer, s.log))
	mux.Handle("/health", health.NewHandler())
	if s.runs != nil {
		mux.Handle("/api/runs", results.NewRunsHandler(s.runs, s.log))
	}
	if s.obs != nil {
		mux.Handle("/api/observations", results.NewObservationsHandler(s.obs, s.log))
	}
	return mux
}

// recordAnalyses drains the event bus into the metrics sink.
func (s *Service) recordAnalyses(events <-chan coremetrics.AnalysisRecord) {
	for rec := range events {
		if err := s.sink.RecordAnalysis([]coremetrics.AnalysisRecord{rec}); err != nil {
			s.log.Warnf("record analysis: %v", err)
		}
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	if s.sub != nil {
		s.sub.Close()
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
