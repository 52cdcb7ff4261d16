package telemetry

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"dronedispatch/internal/fleet"
)

// Defaults for publisher tuning knobs.
const (
	DefaultPositionTTL      = 60 * time.Second
	DefaultHistoryLimit     = 1000
	DefaultSubscriberBuffer = 16
)

// PositionSource supplies a drone's stored state when the live cache has no
// fresh entry. The fleet registry implements it.
type PositionSource interface {
	Get(id int64) (fleet.Drone, error)
}

type cachedPosition struct {
	sample   TrackingSample
	expireAt time.Time
}

// Subscription is a live feed of position updates for one drone. Receive
// from C; call Cancel when done. The channel is closed on Cancel.
type Subscription struct {
	C <-chan TrackingSample

	id      string
	droneID int64
	ch      chan TrackingSample
	pub     *Publisher
	once    sync.Once
}

// Cancel detaches the subscription and closes C.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.pub.unsubscribe(s.droneID, s.id)
	})
}

// Publisher owns the live-position cache, the bounded per-drone sample
// history, and the subscriber set. Publishing never blocks: slow subscribers
// miss updates instead of delaying the simulator tick.
type Publisher struct {
	mu           sync.RWMutex
	current      map[int64]cachedPosition
	history      map[int64][]TrackingSample
	subs         map[int64]map[string]*Subscription
	fallback     PositionSource
	ttl          time.Duration
	historyLimit int
	subBuffer    int
	now          func() time.Time
}

// NewPublisher creates a publisher backed by the given fallback source.
// Non-positive tuning values fall back to the package defaults.
func NewPublisher(fallback PositionSource, ttl time.Duration, historyLimit, subscriberBuffer int) *Publisher {
	if ttl <= 0 {
		ttl = DefaultPositionTTL
	}
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	if subscriberBuffer <= 0 {
		subscriberBuffer = DefaultSubscriberBuffer
	}
	return &Publisher{
		current:      make(map[int64]cachedPosition),
		history:      make(map[int64][]TrackingSample),
		subs:         make(map[int64]map[string]*Subscription),
		fallback:     fallback,
		ttl:          ttl,
		historyLimit: historyLimit,
		subBuffer:    subscriberBuffer,
		now:          time.Now,
	}
}

// SetClock overrides the publisher time source. Intended for tests.
func (p *Publisher) SetClock(now func() time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = now
}

// Publish records one sample: refreshes the live cache, appends to the
// bounded history, and fans the sample out to subscribers of that drone.
func (p *Publisher) Publish(sample TrackingSample) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current[sample.DroneID] = cachedPosition{
		sample:   sample,
		expireAt: p.now().Add(p.ttl),
	}

	hist := append(p.history[sample.DroneID], sample)
	if len(hist) > p.historyLimit {
		hist = hist[len(hist)-p.historyLimit:]
	}
	p.history[sample.DroneID] = hist

	for _, sub := range p.subs[sample.DroneID] {
		select {
		case sub.ch <- sample:
		default:
			// Subscriber buffer full; drop rather than stall the tick.
		}
	}
}

// CurrentPosition serves the freshest known position of a drone: the cached
// last sample when inside the TTL window, otherwise the registry's stored
// state. Unknown drones yield fleet.ErrNotFound.
func (p *Publisher) CurrentPosition(id int64) (CurrentPosition, error) {
	p.mu.RLock()
	entry, ok := p.current[id]
	fresh := ok && p.now().Before(entry.expireAt)
	p.mu.RUnlock()

	if fresh {
		s := entry.sample
		return CurrentPosition{
			DroneID:    s.DroneID,
			Lat:        s.Lat,
			Lng:        s.Lng,
			Status:     s.Status,
			BatteryPct: s.BatteryPct,
			Timestamp:  s.Timestamp,
		}, nil
	}

	d, err := p.fallback.Get(id)
	if err != nil {
		return CurrentPosition{}, err
	}
	return CurrentPosition{
		DroneID:     d.ID,
		Lat:         d.Position.Lat,
		Lng:         d.Position.Lng,
		Status:      d.Status,
		BatteryPct:  d.BatteryPct,
		Destination: d.Destination,
		Timestamp:   d.LastUpdate,
	}, nil
}

// History returns up to limit samples for a drone, most recent first. A
// non-positive limit returns the whole retained window.
func (p *Publisher) History(id int64, limit int) []TrackingSample {
	p.mu.RLock()
	defer p.mu.RUnlock()

	hist := p.history[id]
	if limit <= 0 || limit > len(hist) {
		limit = len(hist)
	}

	out := make([]TrackingSample, 0, limit)
	for i := len(hist) - 1; i >= len(hist)-limit; i-- {
		out = append(out, hist[i])
	}
	return out
}

// Subscribe opens a live feed of position updates for one drone. Multiple
// subscribers per drone are supported; each receives updates in tick order.
func (p *Publisher) Subscribe(droneID int64) *Subscription {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan TrackingSample, p.subBuffer)
	sub := &Subscription{
		C:       ch,
		id:      uuid.New().String(),
		droneID: droneID,
		ch:      ch,
		pub:     p,
	}
	if p.subs[droneID] == nil {
		p.subs[droneID] = make(map[string]*Subscription)
	}
	p.subs[droneID][sub.id] = sub
	return sub
}

func (p *Publisher) unsubscribe(droneID int64, subID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	subs := p.subs[droneID]
	sub, ok := subs[subID]
	if !ok {
		return
	}
	delete(subs, subID)
	if len(subs) == 0 {
		delete(p.subs, droneID)
	}
	close(sub.ch)
}

// SubscriberCount reports how many subscriptions are open for a drone.
func (p *Publisher) SubscriberCount(droneID int64) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subs[droneID])
}
