package api

import "dronedispatch/internal/geo"

// pointDTO is a validated coordinate pair.
type pointDTO struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

func (p pointDTO) point() geo.Point {
	return geo.Point{Lat: p.Lat, Lng: p.Lng}
}

type createDroneRequest struct {
	Name         string    `json:"name" validate:"required"`
	Model        string    `json:"model"`
	MaxPayloadKG float64   `json:"max_payload_kg" validate:"gt=0"`
	MaxRangeKM   float64   `json:"max_range_km" validate:"gt=0"`
	BatteryPct   float64   `json:"battery_pct" validate:"gte=0,lte=100"`
	Base         *pointDTO `json:"base"` // defaults to the service base
}

type assignRequest struct {
	OrderID     int64    `json:"order_id" validate:"required,gt=0"`
	Destination pointDTO `json:"destination"`
}

type dispatchRequest struct {
	OrderID     int64    `json:"order_id" validate:"required,gt=0"`
	WeightKG    float64  `json:"weight_kg" validate:"gte=0"`
	Origin      pointDTO `json:"origin"`
	Destination pointDTO `json:"destination"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Message string `json:"message"`
}
