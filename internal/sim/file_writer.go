package sim

import (
	"encoding/json"
	"os"

	"dronedispatch/internal/telemetry"
)

// FileWriter appends tracking samples to a JSONL file.
type FileWriter struct {
	file *os.File
	enc  *json.Encoder
}

// NewFileWriter creates a FileWriter, truncating any existing file at path.
func NewFileWriter(path string) (*FileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &FileWriter{file: f, enc: json.NewEncoder(f)}, nil
}

// Write logs a single sample.
func (f *FileWriter) Write(sample telemetry.TrackingSample) error {
	return f.enc.Encode(sample)
}

// WriteBatch logs multiple samples.
func (f *FileWriter) WriteBatch(samples []telemetry.TrackingSample) error {
	for _, s := range samples {
		if err := f.Write(s); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying file.
func (f *FileWriter) Close() error {
	return f.file.Close()
}
