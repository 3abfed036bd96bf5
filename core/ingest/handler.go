// Package ingest routes live observations into storage and the metrics sinks.
package ingest

import (
	"context"
	"time"

	"github.com/atlasgrid/geochange/core/logger"
	"github.com/atlasgrid/geochange/core/metrics"
	"github.com/atlasgrid/geochange/core/model"
)

// ObservationStore persists observations.
type ObservationStore interface {
	Insert(ctx context.Context, o model.Observation) error
}

// Handler stores each observation and records the ingest event.
type Handler struct {
	store   ObservationStore
	sink    metrics.Sink
	log     logger.Logger
	timeout time.Duration
}

// NewHandler wires an ingest handler. sink may be nil.
func NewHandler(store ObservationStore, sink metrics.Sink, log logger.Logger) *Handler {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Handler{store: store, sink: sink, log: log, timeout: 5 * time.Second}
}

// Handle persists one observation. Storage failures are logged and surface in
// the ingest metrics as rejected observations.
func (h *Handler) Handle(o model.Observation) {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	accepted := true
	if err := h.store.Insert(ctx, o); err != nil {
		accepted = false
		h.log.Errorf("store observation for %s: %v", o.Site, err)
	}
	if err := h.sink.RecordIngest([]metrics.IngestRecord{{Observation: o, Accepted: accepted}}); err != nil {
		h.log.Warnf("record ingest: %v", err)
	}
}
