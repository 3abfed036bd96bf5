package metrics

import "errors"

// MultiSink fans records out to several sinks. Errors are joined so one
// failing sink does not hide the others.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink returns a sink writing to all given sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) RecordAnalysis(records []AnalysisRecord) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordAnalysis(records); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordIngest(records []IngestRecord) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordIngest(records); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
