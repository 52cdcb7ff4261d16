package sim

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"
	"time"

	"encoding/json"

	"dronedispatch/internal/fleet"
	"dronedispatch/internal/telemetry"
)

func TestFileWriter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tracking.jsonl")
	fw, err := NewFileWriter(path)
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}

	ts := time.Unix(0, 0).UTC()
	order := int64(9)
	samples := []telemetry.TrackingSample{
		{DroneID: 1, OrderID: &order, Lat: 10.1, Lng: 106.1, SpeedKMH: 50, BatteryPct: 90, Status: fleet.StatusInDelivery, Timestamp: ts},
		{DroneID: 2, Lat: 10.2, Lng: 106.2, BatteryPct: 80, Status: fleet.StatusReturning, Timestamp: ts},
	}
	if err := fw.WriteBatch(samples); err != nil {
		t.Fatalf("write batch: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	var got []telemetry.TrackingSample
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var s telemetry.TrackingSample
		if err := json.Unmarshal(sc.Bytes(), &s); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		got = append(got, s)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(got))
	}
	if got[0].DroneID != 1 || got[0].OrderID == nil || *got[0].OrderID != 9 {
		t.Fatalf("unexpected first sample: %#v", got[0])
	}
	if got[1].Status != fleet.StatusReturning {
		t.Fatalf("unexpected second sample status: %s", got[1].Status)
	}
}
