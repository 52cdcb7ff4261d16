// Package telemetry holds the tracking sample type and the publisher that
// fans live position data out to caches, history, and subscribers.
package telemetry

import (
	"os"
	"time"

	"dronedispatch/internal/fleet"
	"dronedispatch/internal/geo"
)

// TrackingSample is one immutable point-in-time telemetry record, captured
// once per simulation tick for every airborne drone.
type TrackingSample struct {
	DroneID    int64        `json:"drone_id"` // TAG
	OrderID    *int64       `json:"order_id,omitempty"`
	Lat        float64      `json:"lat"`         // FIELD
	Lng        float64      `json:"lng"`         // FIELD
	AltitudeM  float64      `json:"altitude_m"`  // FIELD
	SpeedKMH   float64      `json:"speed_kmh"`   // FIELD
	BatteryPct float64      `json:"battery_pct"` // FIELD
	Status     fleet.Status `json:"status"`      // FIELD
	Timestamp  time.Time    `json:"ts"`          // TIME INDEX
}

// TrackingTableName holds the table name used when exporting samples to
// GreptimeDB. It defaults to "drone_tracking" but can be overridden via the
// GREPTIMEDB_TABLE environment variable.
var TrackingTableName = func() string {
	if env := os.Getenv("GREPTIMEDB_TABLE"); env != "" {
		return env
	}
	return "drone_tracking"
}()

func (TrackingSample) TableName() string {
	return TrackingTableName
}

// CurrentPosition is the live-position view served to dashboards: the cached
// last sample when fresh, otherwise the registry's stored state.
type CurrentPosition struct {
	DroneID     int64        `json:"drone_id"`
	Lat         float64      `json:"lat"`
	Lng         float64      `json:"lng"`
	Status      fleet.Status `json:"status"`
	BatteryPct  float64      `json:"battery_pct"`
	Destination *geo.Point   `json:"destination,omitempty"`
	Timestamp   time.Time    `json:"timestamp"`
}
