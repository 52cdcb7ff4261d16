// Package config loads the service YAML configuration, validated against a
// CUE schema before unmarshaling.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"dronedispatch/internal/geo"
)

// TelemetryConfig tunes the publisher: live-cache freshness, history
// retention, and subscriber channel depth.
type TelemetryConfig struct {
	PositionTTLSeconds int `yaml:"position_ttl_seconds"`
	HistoryLimit       int `yaml:"history_limit"`
	SubscriberBuffer   int `yaml:"subscriber_buffer"`
}

// SeedDrone describes one drone provisioned at startup.
type SeedDrone struct {
	Name         string     `yaml:"name"`
	Model        string     `yaml:"model"`
	MaxPayloadKG float64    `yaml:"max_payload_kg"`
	MaxRangeKM   float64    `yaml:"max_range_km"`
	BatteryPct   float64    `yaml:"battery_pct"`
	Base         *geo.Point `yaml:"base"`
}

// ServiceConfig is the root configuration for the dispatch service.
type ServiceConfig struct {
	ListenAddr          string          `yaml:"listen_addr"`
	LogLevel            string          `yaml:"log_level"`
	TickIntervalSeconds int             `yaml:"tick_interval_seconds"`
	CruiseSpeedKMH      float64         `yaml:"cruise_speed_kmh"`
	BatteryDrainPerKM   float64         `yaml:"battery_drain_per_km"`
	MinAssignBattery    float64         `yaml:"min_assign_battery"`
	LowBatteryPct       float64         `yaml:"low_battery_pct"`
	ArrivalThresholdKM  float64         `yaml:"arrival_threshold_km"`
	CruiseAltitudeM     float64         `yaml:"cruise_altitude_m"`
	DefaultBase         geo.Point       `yaml:"default_base"`
	Telemetry           TelemetryConfig `yaml:"telemetry"`
	Fleet               []SeedDrone     `yaml:"fleet"`
}

// TickInterval returns the simulator period.
func (c *ServiceConfig) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalSeconds) * time.Second
}

// PositionTTL returns the live-cache freshness window.
func (c *ServiceConfig) PositionTTL() time.Duration {
	return time.Duration(c.Telemetry.PositionTTLSeconds) * time.Second
}

// applyDefaults fills unset knobs with the values the original deployment
// used (5 s GPS interval, 50 km/h cruise, 0.5 %/km drain, Saigon base).
func (c *ServiceConfig) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.TickIntervalSeconds <= 0 {
		c.TickIntervalSeconds = 5
	}
	if c.CruiseSpeedKMH <= 0 {
		c.CruiseSpeedKMH = 50
	}
	if c.BatteryDrainPerKM <= 0 {
		c.BatteryDrainPerKM = 0.5
	}
	if c.MinAssignBattery <= 0 {
		c.MinAssignBattery = 20
	}
	if c.LowBatteryPct <= 0 {
		c.LowBatteryPct = 15
	}
	if c.ArrivalThresholdKM <= 0 {
		c.ArrivalThresholdKM = 0.05
	}
	if c.CruiseAltitudeM <= 0 {
		c.CruiseAltitudeM = 30
	}
	if c.DefaultBase == (geo.Point{}) {
		c.DefaultBase = geo.Point{Lat: 10.762622, Lng: 106.660172}
	}
	if c.Telemetry.PositionTTLSeconds <= 0 {
		c.Telemetry.PositionTTLSeconds = 60
	}
	if c.Telemetry.HistoryLimit <= 0 {
		c.Telemetry.HistoryLimit = 1000
	}
	if c.Telemetry.SubscriberBuffer <= 0 {
		c.Telemetry.SubscriberBuffer = 16
	}
}

// Load reads YAML config, validates it against the CUE schema, and applies
// defaults for unset keys.
func Load(configPath, cueSchemaPath string) (*ServiceConfig, error) {
	if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var cfg ServiceConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}
