// Package dispatch selects the best idle drone for a pending delivery.
package dispatch

import (
	"sort"

	"dronedispatch/internal/fleet"
	"dronedispatch/internal/geo"
)

// Registry is the slice of the fleet registry the assigner needs.
type Registry interface {
	List(filter ...fleet.Status) []fleet.Drone
	CompareAndAssign(id, orderID int64, dest geo.Point) (fleet.Drone, error)
}

// Request describes a pending delivery to dispatch. Origin is the restaurant
// position, used only for ranking; the chosen drone flies directly to the
// delivery destination (pickup is modeled as instantaneous).
type Request struct {
	OrderID     int64     `json:"order_id"`
	WeightKG    float64   `json:"weight_kg"`
	Origin      geo.Point `json:"origin"`
	Destination geo.Point `json:"destination"`
}

// Assigner picks drones for deliveries against the fleet registry.
type Assigner struct {
	reg        Registry
	minBattery float64
}

// NewAssigner creates an assigner. A non-positive battery gate falls back to
// the registry default.
func NewAssigner(reg Registry, minBattery float64) *Assigner {
	if minBattery <= 0 {
		minBattery = fleet.DefaultMinAssignBattery
	}
	return &Assigner{reg: reg, minBattery: minBattery}
}

// Assign selects and atomically claims the best idle drone for the request.
// When the claim loses a race to a concurrent assignment, the selection is
// retried once against a fresh snapshot before giving up with ErrConflict.
func (a *Assigner) Assign(req Request) (fleet.Drone, error) {
	d, err := a.tryAssign(req)
	if err == nil {
		return d, nil
	}
	switch err {
	case fleet.ErrNoCapacity, fleet.ErrNoSuitableDrone:
		return fleet.Drone{}, err
	}

	// Lost the claim; one more pass over fresh state.
	d, err = a.tryAssign(req)
	if err == nil {
		return d, nil
	}
	switch err {
	case fleet.ErrNoCapacity, fleet.ErrNoSuitableDrone:
		return fleet.Drone{}, err
	}
	return fleet.Drone{}, fleet.ErrConflict
}

func (a *Assigner) tryAssign(req Request) (fleet.Drone, error) {
	idle := a.reg.List(fleet.StatusIdle)
	if len(idle) == 0 {
		return fleet.Drone{}, fleet.ErrNoCapacity
	}

	var candidates []fleet.Drone
	for _, d := range idle {
		if d.BatteryPct < a.minBattery {
			continue
		}
		if d.MaxPayloadKG < req.WeightKG {
			continue
		}
		if geo.DistanceKM(d.Position, req.Destination) > d.MaxRangeKM {
			continue
		}
		candidates = append(candidates, d)
	}
	if len(candidates) == 0 {
		return fleet.Drone{}, fleet.ErrNoSuitableDrone
	}

	rank(candidates, req.Origin)
	return a.reg.CompareAndAssign(candidates[0].ID, req.OrderID, req.Destination)
}

// rank orders candidates by proximity to the order origin. Drones without a
// known position sort behind all located ones, by highest battery. Exact
// ties resolve to the lowest drone id so selection is deterministic.
func rank(candidates []fleet.Drone, origin geo.Point) {
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		aLocated := a.Position != geo.Point{}
		bLocated := b.Position != geo.Point{}
		if aLocated != bLocated {
			return aLocated
		}
		if aLocated {
			da := geo.DistanceKM(a.Position, origin)
			db := geo.DistanceKM(b.Position, origin)
			if da != db {
				return da < db
			}
		} else if a.BatteryPct != b.BatteryPct {
			return a.BatteryPct > b.BatteryPct
		}
		return a.ID < b.ID
	})
}
