package telemetry

import (
	"errors"
	"testing"
	"time"

	"dronedispatch/internal/fleet"
	"dronedispatch/internal/geo"
)

// fakeSource serves canned drone snapshots as the cache fallback.
type fakeSource struct {
	drones map[int64]fleet.Drone
}

func (f *fakeSource) Get(id int64) (fleet.Drone, error) {
	d, ok := f.drones[id]
	if !ok {
		return fleet.Drone{}, fleet.ErrNotFound
	}
	return d, nil
}

func sampleAt(droneID int64, ts time.Time, lat float64) TrackingSample {
	return TrackingSample{
		DroneID:    droneID,
		Lat:        lat,
		Lng:        106.66,
		AltitudeM:  30,
		SpeedKMH:   50,
		BatteryPct: 90,
		Status:     fleet.StatusInDelivery,
		Timestamp:  ts,
	}
}

func TestCurrentPosition_ServedFromCache(t *testing.T) {
	src := &fakeSource{drones: map[int64]fleet.Drone{}}
	pub := NewPublisher(src, time.Minute, 10, 4)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	pub.SetClock(func() time.Time { return base })
	pub.Publish(sampleAt(1, base, 10.76))

	got, err := pub.CurrentPosition(1)
	if err != nil {
		t.Fatalf("CurrentPosition: %v", err)
	}
	if got.Lat != 10.76 || got.Status != fleet.StatusInDelivery {
		t.Errorf("unexpected cached position: %+v", got)
	}
}

func TestCurrentPosition_FallbackAfterTTL(t *testing.T) {
	dest := geo.Point{Lat: 10.8, Lng: 106.7}
	src := &fakeSource{drones: map[int64]fleet.Drone{
		1: {
			ID:          1,
			Status:      fleet.StatusReturning,
			BatteryPct:  55,
			Position:    geo.Point{Lat: 10.70, Lng: 106.60},
			Destination: &dest,
			LastUpdate:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	}}
	pub := NewPublisher(src, time.Minute, 10, 4)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := base
	pub.SetClock(func() time.Time { return now })
	pub.Publish(sampleAt(1, base, 10.76))

	now = base.Add(2 * time.Minute) // cache entry expired
	got, err := pub.CurrentPosition(1)
	if err != nil {
		t.Fatalf("CurrentPosition: %v", err)
	}
	if got.Lat != 10.70 || got.Status != fleet.StatusReturning {
		t.Errorf("expected registry fallback, got %+v", got)
	}
	if got.Destination == nil || *got.Destination != dest {
		t.Errorf("fallback must carry destination, got %v", got.Destination)
	}
}

func TestCurrentPosition_UnknownDrone(t *testing.T) {
	pub := NewPublisher(&fakeSource{drones: map[int64]fleet.Drone{}}, 0, 0, 0)
	if _, err := pub.CurrentPosition(99); !errors.Is(err, fleet.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestHistory_NewestFirstWithLimit(t *testing.T) {
	pub := NewPublisher(&fakeSource{drones: map[int64]fleet.Drone{}}, time.Minute, 100, 4)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		pub.Publish(sampleAt(1, base.Add(time.Duration(i)*5*time.Second), 10.7+float64(i)*0.001))
	}

	hist := pub.History(1, 3)
	if len(hist) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(hist))
	}
	for i := 1; i < len(hist); i++ {
		if hist[i].Timestamp.After(hist[i-1].Timestamp) {
			t.Errorf("history not newest-first at %d: %v > %v", i, hist[i].Timestamp, hist[i-1].Timestamp)
		}
	}
	if !hist[0].Timestamp.Equal(base.Add(20 * time.Second)) {
		t.Errorf("expected newest sample first, got %v", hist[0].Timestamp)
	}
}

func TestHistory_Bounded(t *testing.T) {
	pub := NewPublisher(&fakeSource{drones: map[int64]fleet.Drone{}}, time.Minute, 3, 4)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		pub.Publish(sampleAt(1, base.Add(time.Duration(i)*time.Second), 10.7))
	}

	hist := pub.History(1, 0)
	if len(hist) != 3 {
		t.Errorf("expected retention of 3 samples, got %d", len(hist))
	}
	if !hist[0].Timestamp.Equal(base.Add(9 * time.Second)) {
		t.Errorf("expected most recent sample retained, got %v", hist[0].Timestamp)
	}
}

func TestSubscribe_ReceivesInTickOrder(t *testing.T) {
	pub := NewPublisher(&fakeSource{drones: map[int64]fleet.Drone{}}, time.Minute, 10, 4)
	sub := pub.Subscribe(1)
	defer sub.Cancel()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	pub.Publish(sampleAt(1, base, 10.70))
	pub.Publish(sampleAt(1, base.Add(5*time.Second), 10.71))
	pub.Publish(sampleAt(2, base, 99)) // different drone, must not arrive

	first := <-sub.C
	second := <-sub.C
	if first.Lat != 10.70 || second.Lat != 10.71 {
		t.Errorf("updates out of order: %f then %f", first.Lat, second.Lat)
	}
	select {
	case s := <-sub.C:
		t.Errorf("unexpected sample for other drone: %+v", s)
	default:
	}
}

func TestSubscribe_MultipleSubscribers(t *testing.T) {
	pub := NewPublisher(&fakeSource{drones: map[int64]fleet.Drone{}}, time.Minute, 10, 4)
	a := pub.Subscribe(1)
	b := pub.Subscribe(1)
	defer a.Cancel()
	defer b.Cancel()

	pub.Publish(sampleAt(1, time.Now().UTC(), 10.70))
	if s := <-a.C; s.Lat != 10.70 {
		t.Errorf("subscriber a got %f", s.Lat)
	}
	if s := <-b.C; s.Lat != 10.70 {
		t.Errorf("subscriber b got %f", s.Lat)
	}
}

func TestSubscribe_CancelClosesChannel(t *testing.T) {
	pub := NewPublisher(&fakeSource{drones: map[int64]fleet.Drone{}}, time.Minute, 10, 4)
	sub := pub.Subscribe(1)
	sub.Cancel()
	sub.Cancel() // idempotent

	if _, open := <-sub.C; open {
		t.Error("expected closed channel after cancel")
	}
	if n := pub.SubscriberCount(1); n != 0 {
		t.Errorf("expected no subscribers, got %d", n)
	}
}

func TestPublish_SlowSubscriberDoesNotBlock(t *testing.T) {
	pub := NewPublisher(&fakeSource{drones: map[int64]fleet.Drone{}}, time.Minute, 100, 2)
	sub := pub.Subscribe(1)
	defer sub.Cancel()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	done := make(chan struct{})
	go func() {
		// Far more publishes than buffer capacity; must not deadlock.
		for i := 0; i < 50; i++ {
			pub.Publish(sampleAt(1, base.Add(time.Duration(i)*time.Second), 10.7))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on slow subscriber")
	}
}
