package config

import (
	"os"
	"path/filepath"
	"testing"
)

const testSchema = `
listen_addr?:           string
tick_interval_seconds?: int & >0
cruise_speed_kmh?:      number & >0
fleet?: [...{
	name:           string & !=""
	max_payload_kg: number & >0
	max_range_km:   number & >0
}]
`

func writeFiles(t *testing.T, yamlBody string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "service.yaml")
	schemaPath := filepath.Join(dir, "service.cue")
	if err := os.WriteFile(cfgPath, []byte(yamlBody), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(schemaPath, []byte(testSchema), 0o644); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	return cfgPath, schemaPath
}

func TestLoad_Valid(t *testing.T) {
	cfgPath, schemaPath := writeFiles(t, `
listen_addr: ":9090"
tick_interval_seconds: 2
cruise_speed_kmh: 42
fleet:
  - name: Falcon Alpha
    max_payload_kg: 6
    max_range_km: 20
`)

	cfg, err := Load(cfgPath, schemaPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":9090" {
		t.Errorf("unexpected listen addr %q", cfg.ListenAddr)
	}
	if cfg.TickIntervalSeconds != 2 {
		t.Errorf("unexpected tick interval %d", cfg.TickIntervalSeconds)
	}
	if len(cfg.Fleet) != 1 || cfg.Fleet[0].Name != "Falcon Alpha" {
		t.Errorf("unexpected fleet: %+v", cfg.Fleet)
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfgPath, schemaPath := writeFiles(t, `listen_addr: ":9090"`)

	cfg, err := Load(cfgPath, schemaPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TickIntervalSeconds != 5 {
		t.Errorf("expected default tick of 5 s, got %d", cfg.TickIntervalSeconds)
	}
	if cfg.CruiseSpeedKMH != 50 {
		t.Errorf("expected default cruise speed 50, got %f", cfg.CruiseSpeedKMH)
	}
	if cfg.BatteryDrainPerKM != 0.5 {
		t.Errorf("expected default drain 0.5, got %f", cfg.BatteryDrainPerKM)
	}
	if cfg.ArrivalThresholdKM != 0.05 {
		t.Errorf("expected default arrival threshold, got %f", cfg.ArrivalThresholdKM)
	}
	if cfg.Telemetry.PositionTTLSeconds != 60 || cfg.Telemetry.HistoryLimit != 1000 {
		t.Errorf("expected telemetry defaults, got %+v", cfg.Telemetry)
	}
}

func TestLoad_SchemaViolation(t *testing.T) {
	cfgPath, schemaPath := writeFiles(t, `
tick_interval_seconds: -1
`)

	if _, err := Load(cfgPath, schemaPath); err == nil {
		t.Fatal("expected schema violation for negative tick interval")
	}
}

func TestLoad_MissingFleetFields(t *testing.T) {
	cfgPath, schemaPath := writeFiles(t, `
fleet:
  - name: ""
    max_payload_kg: 6
    max_range_km: 20
`)

	if _, err := Load(cfgPath, schemaPath); err == nil {
		t.Fatal("expected schema violation for empty drone name")
	}
}
