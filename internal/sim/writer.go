package sim

import "dronedispatch/internal/telemetry"

// TelemetryWriter is an interface to support different output writers.
type TelemetryWriter interface {
	Write(telemetry.TrackingSample) error
}

// Optional: writers can also support batch mode.
type batchWriter interface {
	WriteBatch([]telemetry.TrackingSample) error
}

// MultiWriter fans samples out to multiple writers.
type MultiWriter struct {
	writers []TelemetryWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(writers ...TelemetryWriter) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write sends a sample to all writers.
func (mw *MultiWriter) Write(sample telemetry.TrackingSample) error {
	for _, w := range mw.writers {
		if err := w.Write(sample); err != nil {
			return err
		}
	}
	return nil
}

// WriteBatch sends multiple samples to all writers, using batch mode where
// supported.
func (mw *MultiWriter) WriteBatch(samples []telemetry.TrackingSample) error {
	for _, w := range mw.writers {
		if bw, ok := w.(batchWriter); ok {
			if err := bw.WriteBatch(samples); err != nil {
				return err
			}
			continue
		}
		for _, s := range samples {
			if err := w.Write(s); err != nil {
				return err
			}
		}
	}
	return nil
}
