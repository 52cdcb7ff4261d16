package bridge

import (
	"errors"
	"testing"

	"dronedispatch/internal/dispatch"
	"dronedispatch/internal/fleet"
	"dronedispatch/internal/geo"
)

func newTestService(t *testing.T) (*Service, *fleet.Registry) {
	t.Helper()
	reg := fleet.NewRegistry(fleet.DefaultMinAssignBattery, fleet.DefaultLowBatteryPct)
	asn := dispatch.NewAssigner(reg, fleet.DefaultMinAssignBattery)
	return NewService(asn, reg), reg
}

func TestOrderReadyClaimsDrone(t *testing.T) {
	svc, reg := newTestService(t)
	reg.Create(fleet.Spec{Name: "falcon", MaxPayloadKG: 5, MaxRangeKM: 40, Base: geo.Point{Lat: 10, Lng: 106}})

	d, err := svc.Apply(Event{
		Type:        EventOrderReady,
		OrderID:     5,
		WeightKG:    1,
		Origin:      geo.Point{Lat: 10, Lng: 106},
		Destination: geo.Point{Lat: 10.05, Lng: 106.05},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if d.Status != fleet.StatusInDelivery || d.AssignedOrderID == nil || *d.AssignedOrderID != 5 {
		t.Fatalf("unexpected drone: %#v", d)
	}
}

func TestOrderCancelledRecallsDrone(t *testing.T) {
	svc, reg := newTestService(t)
	created := reg.Create(fleet.Spec{Name: "falcon", MaxPayloadKG: 5, MaxRangeKM: 40, Base: geo.Point{Lat: 10, Lng: 106}})
	if _, err := reg.CompareAndAssign(created.ID, 5, geo.Point{Lat: 10.05, Lng: 106.05}); err != nil {
		t.Fatalf("assign: %v", err)
	}

	d, err := svc.Apply(Event{Type: EventOrderCancelled, OrderID: 5})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if d.Status != fleet.StatusReturning {
		t.Fatalf("expected returning, got %s", d.Status)
	}
	if d.Destination == nil || *d.Destination != created.Base {
		t.Fatalf("expected destination reset to base, got %#v", d.Destination)
	}
}

func TestOrderCancelledUnknownOrder(t *testing.T) {
	svc, reg := newTestService(t)
	reg.Create(fleet.Spec{Name: "falcon", MaxPayloadKG: 5, MaxRangeKM: 40, Base: geo.Point{Lat: 10, Lng: 106}})

	if _, err := svc.Apply(Event{Type: EventOrderCancelled, OrderID: 99}); !errors.Is(err, fleet.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUnknownEventType(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.Apply(Event{Type: "order_exploded", OrderID: 1}); err == nil {
		t.Fatalf("expected error for unknown event type")
	}
}
