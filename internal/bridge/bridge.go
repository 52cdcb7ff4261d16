// Package bridge maps order life-cycle events onto fleet actions. It keeps no
// order state of its own; the order system remains the source of truth.
package bridge

import (
	"fmt"

	"dronedispatch/internal/dispatch"
	"dronedispatch/internal/fleet"
	"dronedispatch/internal/geo"
)

// Event types accepted from the order system.
const (
	EventOrderReady     = "order_ready"
	EventOrderCancelled = "order_cancelled"
)

// Event is one order life-cycle notification.
type Event struct {
	Type        string    `json:"type" validate:"required,oneof=order_ready order_cancelled"`
	OrderID     int64     `json:"order_id" validate:"required,gt=0"`
	WeightKG    float64   `json:"weight_kg" validate:"gte=0"`
	Origin      geo.Point `json:"origin"`
	Destination geo.Point `json:"destination"`
}

// Assigner claims a drone for a ready order.
type Assigner interface {
	Assign(req dispatch.Request) (fleet.Drone, error)
}

// Fleet is the slice of the registry the bridge needs.
type Fleet interface {
	List(filter ...fleet.Status) []fleet.Drone
	ReturnToBase(id int64) (fleet.Drone, error)
}

// Service applies order events to the fleet.
type Service struct {
	assigner Assigner
	fleet    Fleet
}

// NewService creates a bridge service.
func NewService(assigner Assigner, f Fleet) *Service {
	return &Service{assigner: assigner, fleet: f}
}

// Apply dispatches one event. order_ready claims a drone for the order;
// order_cancelled recalls the drone currently flying it. The affected drone
// is returned.
func (s *Service) Apply(e Event) (fleet.Drone, error) {
	switch e.Type {
	case EventOrderReady:
		return s.assigner.Assign(dispatch.Request{
			OrderID:     e.OrderID,
			WeightKG:    e.WeightKG,
			Origin:      e.Origin,
			Destination: e.Destination,
		})
	case EventOrderCancelled:
		return s.recall(e.OrderID)
	default:
		return fleet.Drone{}, fmt.Errorf("unknown event type %q", e.Type)
	}
}

// recall finds the drone carrying the order and sends it home. Cancelling an
// order nobody is flying is ErrNotFound.
func (s *Service) recall(orderID int64) (fleet.Drone, error) {
	for _, d := range s.fleet.List(fleet.StatusInDelivery) {
		if d.AssignedOrderID != nil && *d.AssignedOrderID == orderID {
			return s.fleet.ReturnToBase(d.ID)
		}
	}
	return fleet.Drone{}, fleet.ErrNotFound
}
