// Package fleet owns the drone records and their life-cycle state machine.
// All mutations go through the Registry so invariants hold under concurrency.
package fleet

import (
	"time"

	"dronedispatch/internal/geo"
)

// Status is a drone life-cycle state.
type Status string

// Drone status constants.
const (
	StatusIdle        Status = "idle"
	StatusInDelivery  Status = "in_delivery"
	StatusReturning   Status = "returning"
	StatusCharging    Status = "charging"
	StatusMaintenance Status = "maintenance"
)

// Airborne reports whether a drone in this status is advanced by the
// flight simulator.
func (s Status) Airborne() bool {
	return s == StatusInDelivery || s == StatusReturning
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusIdle, StatusInDelivery, StatusReturning, StatusCharging, StatusMaintenance:
		return true
	}
	return false
}

// Drone is one physical delivery unit. Destination is non-nil iff the drone
// is airborne; AssignedOrderID is non-nil iff the drone is flying for an
// order.
type Drone struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	Model            string     `json:"model,omitempty"`
	Status           Status     `json:"status"`
	BatteryPct       float64    `json:"battery_pct"`
	MaxPayloadKG     float64    `json:"max_payload_kg"`
	MaxRangeKM       float64    `json:"max_range_km"`
	Position         geo.Point  `json:"position"`
	Destination      *geo.Point `json:"destination,omitempty"`
	Base             geo.Point  `json:"base"`
	AssignedOrderID  *int64     `json:"assigned_order_id,omitempty"`
	TotalDistanceKM  float64    `json:"total_distance_km"`
	TotalFlightHours float64    `json:"total_flight_hours"`
	TotalDeliveries  int64      `json:"total_deliveries"`
	CreatedAt        time.Time  `json:"created_at"`
	LastUpdate       time.Time  `json:"last_update"`
}

// clone returns a deep copy safe to hand out as a snapshot.
func (d *Drone) clone() Drone {
	cp := *d
	if d.Destination != nil {
		dest := *d.Destination
		cp.Destination = &dest
	}
	if d.AssignedOrderID != nil {
		order := *d.AssignedOrderID
		cp.AssignedOrderID = &order
	}
	return cp
}

// Spec describes a drone to provision.
type Spec struct {
	Name         string
	Model        string
	MaxPayloadKG float64
	MaxRangeKM   float64
	Base         geo.Point
	BatteryPct   float64 // zero means full battery
}

// Stats summarizes a drone's cumulative flight counters.
type Stats struct {
	DroneID                int64   `json:"drone_id"`
	Name                   string  `json:"name"`
	Status                 Status  `json:"status"`
	BatteryPct             float64 `json:"battery_pct"`
	TotalDistanceKM        float64 `json:"total_distance_km"`
	TotalFlightHours       float64 `json:"total_flight_hours"`
	TotalDeliveries        int64   `json:"total_deliveries"`
	AvgDistancePerDelivery float64 `json:"avg_distance_per_delivery"`
}
