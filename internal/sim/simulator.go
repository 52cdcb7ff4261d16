// Package sim advances airborne drones toward their destinations on a fixed
// tick and emits one tracking sample per drone per tick.
package sim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dronedispatch/internal/fleet"
	"dronedispatch/internal/geo"
	"dronedispatch/internal/logging"
	"dronedispatch/internal/telemetry"
)

// Publisher receives every tick's samples for live distribution.
type Publisher interface {
	Publish(telemetry.TrackingSample)
}

// Config carries the flight tuning knobs.
type Config struct {
	TickInterval       time.Duration
	CruiseSpeedKMH     float64
	BatteryDrainPerKM  float64
	ArrivalThresholdKM float64
	CruiseAltitudeM    float64
}

// Simulator is the single writer of tick-driven drone mutations. One
// instance runs per process; request handlers share the registry with it.
type Simulator struct {
	reg    *fleet.Registry
	pub    Publisher
	writer TelemetryWriter
	cfg    Config
	now    func() time.Time
}

// NewSimulator wires the simulator to the registry, publisher, and telemetry
// writer. Zero config values fall back to the service defaults.
func NewSimulator(reg *fleet.Registry, pub Publisher, writer TelemetryWriter, cfg Config) *Simulator {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 5 * time.Second
	}
	if cfg.CruiseSpeedKMH <= 0 {
		cfg.CruiseSpeedKMH = 50
	}
	if cfg.BatteryDrainPerKM <= 0 {
		cfg.BatteryDrainPerKM = 0.5
	}
	if cfg.ArrivalThresholdKM <= 0 {
		cfg.ArrivalThresholdKM = 0.05
	}
	if cfg.CruiseAltitudeM <= 0 {
		cfg.CruiseAltitudeM = 30
	}
	return &Simulator{reg: reg, pub: pub, writer: writer, cfg: cfg, now: time.Now}
}

// SetClock overrides the simulator time source. Intended for tests.
func (s *Simulator) SetClock(now func() time.Time) {
	s.now = now
}

// Run starts the simulation loop and stops when the context is done.
func (s *Simulator) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	log.Info("starting flight simulator", "tick_interval", s.cfg.TickInterval)
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Tick(ctx)
		case <-ctx.Done():
			log.Info("stopping flight simulator")
			return
		}
	}
}

// Tick advances every airborne drone once. A failure for one drone is logged
// and skipped; the rest of the batch proceeds. Exported so tests and the
// bridge can drive the clock manually.
func (s *Simulator) Tick(ctx context.Context) {
	log := logging.FromContext(ctx)
	airborne := s.reg.List(fleet.StatusInDelivery, fleet.StatusReturning)

	batch := make([]telemetry.TrackingSample, 0, len(airborne))
	for _, d := range airborne {
		sample, err := s.advance(d)
		if err != nil {
			if errors.Is(err, fleet.ErrInvalidState) {
				// An administrative transition landed between the snapshot
				// and this step; the drone is simply no longer airborne.
				log.Debug("drone left airborne set mid-tick", "drone_id", d.ID)
				continue
			}
			log.Error("tick failed for drone", "drone_id", d.ID, "ts", s.now().UTC(), "err", err)
			continue
		}
		batch = append(batch, sample)
	}

	for _, sample := range batch {
		s.pub.Publish(sample)
	}
	s.write(ctx, batch)

	if swept := s.reg.SweepLowBattery(); len(swept) > 0 {
		log.Info("low-battery drones sent to charging", "drone_ids", swept)
	}
}

// advance computes one flight step for a drone and applies it through the
// registry. The returned sample reflects post-tick state, including any
// arrival transition.
func (s *Simulator) advance(d fleet.Drone) (telemetry.TrackingSample, error) {
	if d.Destination == nil {
		return telemetry.TrackingSample{}, fmt.Errorf("airborne drone %d has no destination", d.ID)
	}

	dt := s.cfg.TickInterval.Seconds()
	newPos, remaining, speed := geo.Advance(d.Position, *d.Destination, s.cfg.CruiseSpeedKMH, dt)

	distanceDelta := geo.DistanceKM(d.Position, newPos)
	drain := distanceDelta * s.cfg.BatteryDrainPerKM
	arrived := remaining < s.cfg.ArrivalThresholdKM

	updated, err := s.reg.ApplyTick(d.ID, newPos, drain, distanceDelta, dt/3600, arrived)
	if err != nil {
		return telemetry.TrackingSample{}, err
	}

	return telemetry.TrackingSample{
		DroneID:    updated.ID,
		OrderID:    updated.AssignedOrderID,
		Lat:        updated.Position.Lat,
		Lng:        updated.Position.Lng,
		AltitudeM:  s.cfg.CruiseAltitudeM,
		SpeedKMH:   speed,
		BatteryPct: updated.BatteryPct,
		Status:     updated.Status,
		Timestamp:  s.now().UTC(),
	}, nil
}

// write hands the batch to the telemetry writer, preferring batch mode.
// Writer errors are logged and never abort the tick.
func (s *Simulator) write(ctx context.Context, batch []telemetry.TrackingSample) {
	if s.writer == nil || len(batch) == 0 {
		return
	}
	log := logging.FromContext(ctx)

	if bw, ok := s.writer.(batchWriter); ok {
		if err := bw.WriteBatch(batch); err != nil {
			log.Error("batch write failed", "err", err)
		}
		return
	}
	for _, sample := range batch {
		if err := s.writer.Write(sample); err != nil {
			log.Error("write failed", "drone_id", sample.DroneID, "err", err)
		}
	}
}
