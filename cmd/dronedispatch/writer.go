package main

import (
	"os"

	"dronedispatch/internal/sim"
)

// newWriters composes the telemetry sink from flags and env vars: stdout JSON
// by default, GreptimeDB when GREPTIMEDB_ENDPOINT is set, plus an optional
// JSONL export file and the interactive TUI. The cleanup function closes any
// opened resources.
func newWriters(printOnly bool, logFile string, tui bool) (sim.TelemetryWriter, func(), error) {
	var writers []sim.TelemetryWriter
	var closers []func()

	if tui {
		tw := sim.NewTUIWriter()
		writers = append(writers, tw)
		closers = append(closers, func() { tw.Close() })
	}

	endpoint := os.Getenv("GREPTIMEDB_ENDPOINT")
	if !printOnly && endpoint != "" {
		database := os.Getenv("GREPTIMEDB_DATABASE")
		if database == "" {
			database = "public"
		}
		gw, err := sim.NewGreptimeDBWriter(endpoint, database)
		if err != nil {
			return nil, nil, err
		}
		writers = append(writers, gw)
	} else if !tui {
		writers = append(writers, &sim.StdoutJSONWriter{})
	}

	if logFile != "" {
		fw, err := sim.NewFileWriter(logFile)
		if err != nil {
			return nil, nil, err
		}
		writers = append(writers, fw)
		closers = append(closers, func() { fw.Close() })
	}

	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}
	if len(writers) == 1 {
		return writers[0], cleanup, nil
	}
	return sim.NewMultiWriter(writers...), cleanup, nil
}
