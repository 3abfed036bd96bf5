package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/atlasgrid/geochange/core/metrics"
)

// PromSink records analysis and ingest events in Prometheus metrics.
type PromSink struct {
	analyses     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	changePct    *prometheus.GaugeVec
	observations *prometheus.CounterVec
}

// NewPromSink registers analysis metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.Sink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (coremetrics.Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	analyses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "analysis_runs_total",
		Help: "Total number of analysis passes",
	}, []string{"site", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "analysis_duration_seconds",
		Help:    "Wall-clock duration of analysis passes",
		Buckets: prometheus.DefBuckets,
	}, []string{"site"})
	changePct := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "analysis_change_percentage",
		Help: "Change percentage reported by the latest analysis pass",
	}, []string{"site"})
	observations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "observations_ingested_total",
		Help: "Live observations received over MQTT",
	}, []string{"site", "accepted"})

	if err := reg.Register(analyses); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			analyses = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			duration = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(changePct); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			changePct = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(observations); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			observations = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{analyses: analyses, duration: duration, changePct: changePct, observations: observations}, nil
}

// RecordAnalysis increments the run counter and records duration and change
// percentage for each pass.
func (s *PromSink) RecordAnalysis(records []coremetrics.AnalysisRecord) error {
	for _, r := range records {
		s.analyses.WithLabelValues(r.Site, r.Status).Inc()
		s.duration.WithLabelValues(r.Site).Observe(r.Duration.Seconds())
		if r.Status == "ok" {
			s.changePct.WithLabelValues(r.Site).Set(r.Summary.ChangePercentage)
		}
	}
	return nil
}

// RecordIngest counts received observations per site and acceptance.
func (s *PromSink) RecordIngest(records []coremetrics.IngestRecord) error {
	for _, r := range records {
		s.observations.WithLabelValues(r.Observation.Site, strconv.FormatBool(r.Accepted)).Inc()
	}
	return nil
}
