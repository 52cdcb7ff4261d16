package fleet

import (
	"sort"
	"sync"
	"time"

	"dronedispatch/internal/geo"
)

// Default battery thresholds in percent.
const (
	DefaultMinAssignBattery = 20.0
	DefaultLowBatteryPct    = 15.0
)

// Registry is the single owner of drone mutable state. Every mutation runs
// under one lock, so an assignment racing a simulator tick resolves to
// exactly one winner.
type Registry struct {
	mu         sync.RWMutex
	drones     map[int64]*Drone
	nextID     int64
	minAssign  float64
	lowBattery float64
	now        func() time.Time
}

// NewRegistry creates an empty registry. Battery thresholds at or below zero
// fall back to the defaults (assign gate 20%, auto-charge 15%).
func NewRegistry(minAssignBattery, lowBatteryPct float64) *Registry {
	if minAssignBattery <= 0 {
		minAssignBattery = DefaultMinAssignBattery
	}
	if lowBatteryPct <= 0 {
		lowBatteryPct = DefaultLowBatteryPct
	}
	return &Registry{
		drones:     make(map[int64]*Drone),
		nextID:     1,
		minAssign:  minAssignBattery,
		lowBattery: lowBatteryPct,
		now:        time.Now,
	}
}

// SetClock overrides the registry time source. Intended for tests.
func (r *Registry) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// Create provisions a new idle drone at its base position.
func (r *Registry) Create(spec Spec) Drone {
	r.mu.Lock()
	defer r.mu.Unlock()

	battery := spec.BatteryPct
	if battery <= 0 {
		battery = 100
	}
	battery = clampBattery(battery)

	ts := r.now().UTC()
	d := &Drone{
		ID:           r.nextID,
		Name:         spec.Name,
		Model:        spec.Model,
		Status:       StatusIdle,
		BatteryPct:   battery,
		MaxPayloadKG: spec.MaxPayloadKG,
		MaxRangeKM:   spec.MaxRangeKM,
		Position:     spec.Base,
		Base:         spec.Base,
		CreatedAt:    ts,
		LastUpdate:   ts,
	}
	r.nextID++
	r.drones[d.ID] = d
	return d.clone()
}

// List returns snapshots of all drones, ordered by id. With filters, only
// drones in one of the given statuses are returned.
func (r *Registry) List(filter ...Status) []Drone {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Drone
	for _, d := range r.drones {
		if len(filter) > 0 && !statusIn(d.Status, filter) {
			continue
		}
		out = append(out, d.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns a snapshot of one drone.
func (r *Registry) Get(id int64) (Drone, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.drones[id]
	if !ok {
		return Drone{}, ErrNotFound
	}
	return d.clone(), nil
}

// CompareAndAssign atomically moves an idle drone into delivery. It fails
// without side effects when the drone is not idle, its battery is below the
// assignment gate, or the destination exceeds its range from the current
// position.
func (r *Registry) CompareAndAssign(id, orderID int64, dest geo.Point) (Drone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.drones[id]
	if !ok {
		return Drone{}, ErrNotFound
	}
	if d.Status != StatusIdle {
		return Drone{}, ErrInvalidState
	}
	if d.BatteryPct < r.minAssign {
		return Drone{}, ErrInsufficientBattery
	}
	if geo.DistanceKM(d.Position, dest) > d.MaxRangeKM {
		return Drone{}, ErrOutOfRange
	}

	destination := dest
	order := orderID
	d.Status = StatusInDelivery
	d.Destination = &destination
	d.AssignedOrderID = &order
	d.LastUpdate = r.now().UTC()
	return d.clone(), nil
}

// ApplyTick applies one simulator step to an airborne drone: position,
// battery drain, cumulative counters, and on arrival the life-cycle
// transition (delivery leg done: head home; return leg done: idle again).
// Battery is clamped to [0,100]. Idle drones ending up under the low-battery
// threshold go straight to charging.
func (r *Registry) ApplyTick(id int64, newPos geo.Point, batteryDrain, distanceDelta, hoursDelta float64, arrived bool) (Drone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.drones[id]
	if !ok {
		return Drone{}, ErrNotFound
	}
	if !d.Status.Airborne() {
		// An administrative transition won the race against this tick.
		return Drone{}, ErrInvalidState
	}

	d.Position = newPos
	d.BatteryPct = clampBattery(d.BatteryPct - batteryDrain)
	d.TotalDistanceKM += distanceDelta
	d.TotalFlightHours += hoursDelta
	d.LastUpdate = r.now().UTC()

	if arrived {
		switch d.Status {
		case StatusInDelivery:
			base := d.Base
			d.Status = StatusReturning
			d.Destination = &base
			d.TotalDeliveries++
		case StatusReturning:
			d.Status = StatusIdle
			d.Destination = nil
			d.AssignedOrderID = nil
		}
	}
	if d.Status == StatusIdle && d.BatteryPct < r.lowBattery {
		d.Status = StatusCharging
	}
	return d.clone(), nil
}

// SweepLowBattery moves every idle drone below the low-battery threshold to
// charging and returns the affected ids. The simulator calls this once per
// tick for drones the airborne pass never touches.
func (r *Registry) SweepLowBattery() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var swept []int64
	for _, d := range r.drones {
		if d.Status == StatusIdle && d.BatteryPct < r.lowBattery {
			d.Status = StatusCharging
			d.LastUpdate = r.now().UTC()
			swept = append(swept, d.ID)
		}
	}
	sort.Slice(swept, func(i, j int) bool { return swept[i] < swept[j] })
	return swept
}

// ReturnToBase recalls a drone: it keeps flying (or starts flying) toward its
// base position. Recalling an idle drone is a no-op; a drone in maintenance
// cannot be recalled.
func (r *Registry) ReturnToBase(id int64) (Drone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.drones[id]
	if !ok {
		return Drone{}, ErrNotFound
	}
	switch d.Status {
	case StatusMaintenance:
		return Drone{}, ErrInvalidState
	case StatusIdle:
		return d.clone(), nil
	}

	base := d.Base
	d.Status = StatusReturning
	d.Destination = &base
	d.LastUpdate = r.now().UTC()
	return d.clone(), nil
}

// SetCharging sends a drone to the charger, aborting any flight. Drones in
// maintenance stay there until cleared.
func (r *Registry) SetCharging(id int64) (Drone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.drones[id]
	if !ok {
		return Drone{}, ErrNotFound
	}
	if d.Status == StatusMaintenance {
		return Drone{}, ErrInvalidState
	}

	d.Status = StatusCharging
	d.Destination = nil
	d.AssignedOrderID = nil
	d.LastUpdate = r.now().UTC()
	return d.clone(), nil
}

// CompleteCharging finishes a charge cycle: full battery, back to idle.
func (r *Registry) CompleteCharging(id int64) (Drone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.drones[id]
	if !ok {
		return Drone{}, ErrNotFound
	}
	if d.Status != StatusCharging {
		return Drone{}, ErrInvalidState
	}

	d.Status = StatusIdle
	d.BatteryPct = 100
	d.LastUpdate = r.now().UTC()
	return d.clone(), nil
}

// SetMaintenance pulls a drone out of rotation from any status.
func (r *Registry) SetMaintenance(id int64) (Drone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.drones[id]
	if !ok {
		return Drone{}, ErrNotFound
	}

	d.Status = StatusMaintenance
	d.Destination = nil
	d.AssignedOrderID = nil
	d.LastUpdate = r.now().UTC()
	return d.clone(), nil
}

// ClearMaintenance is the only way out of maintenance; the drone becomes
// idle at its current position.
func (r *Registry) ClearMaintenance(id int64) (Drone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.drones[id]
	if !ok {
		return Drone{}, ErrNotFound
	}
	if d.Status != StatusMaintenance {
		return Drone{}, ErrInvalidState
	}

	d.Status = StatusIdle
	d.LastUpdate = r.now().UTC()
	return d.clone(), nil
}

// Stats returns cumulative flight counters for one drone.
func (r *Registry) Stats(id int64) (Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.drones[id]
	if !ok {
		return Stats{}, ErrNotFound
	}

	deliveries := d.TotalDeliveries
	if deliveries == 0 {
		deliveries = 1
	}
	return Stats{
		DroneID:                d.ID,
		Name:                   d.Name,
		Status:                 d.Status,
		BatteryPct:             d.BatteryPct,
		TotalDistanceKM:        d.TotalDistanceKM,
		TotalFlightHours:       d.TotalFlightHours,
		TotalDeliveries:        d.TotalDeliveries,
		AvgDistancePerDelivery: d.TotalDistanceKM / float64(deliveries),
	}, nil
}

func clampBattery(pct float64) float64 {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

func statusIn(s Status, set []Status) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}
