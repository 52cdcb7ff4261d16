package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"dronedispatch/internal/fleet"
	"dronedispatch/internal/telemetry"
)

func TestStreamDrone(t *testing.T) {
	s, reg, pub := newTestServer(t)
	seedDrone(t, reg)

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/drones/1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Subscription registers on upgrade; wait for it before publishing.
	deadline := time.Now().Add(2 * time.Second)
	for pub.SubscriberCount(1) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscription never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	want := telemetry.TrackingSample{
		DroneID:    1,
		Lat:        10.01,
		Lng:        106.01,
		BatteryPct: 97,
		Status:     fleet.StatusInDelivery,
		Timestamp:  time.Now().UTC(),
	}
	pub.Publish(want)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got telemetry.TrackingSample
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.DroneID != 1 || got.Lat != want.Lat || got.Status != want.Status {
		t.Fatalf("unexpected sample: %#v", got)
	}

	conn.Close()
	deadline = time.Now().Add(2 * time.Second)
	for pub.SubscriberCount(1) != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscription never cleaned up after disconnect")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStreamDroneUnknownID(t *testing.T) {
	s, _, _ := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ws/drones/99")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
