// Writer implementation printing samples to STDOUT as JSON lines.
package sim

import (
	"encoding/json"
	"fmt"

	"dronedispatch/internal/telemetry"
)

// StdoutJSONWriter prints tracking samples to STDOUT.
type StdoutJSONWriter struct{}

// Write outputs a single sample.
func (w *StdoutJSONWriter) Write(sample telemetry.TrackingSample) error {
	data, _ := json.Marshal(sample)
	fmt.Println(string(data))
	return nil
}

// WriteBatch outputs multiple samples.
func (w *StdoutJSONWriter) WriteBatch(samples []telemetry.TrackingSample) error {
	for _, s := range samples {
		_ = w.Write(s)
	}
	return nil
}
