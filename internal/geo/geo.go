// Package geo provides the great-circle and dead-reckoning math used by the
// flight simulator. Positions are WGS84 lat/lng in decimal degrees.
package geo

import "math"

// EarthRadiusKM is the mean Earth radius used for haversine distances.
const EarthRadiusKM = 6371.0

// kmPerDegree is the equirectangular approximation of one degree of latitude.
// Good enough at urban delivery ranges; not geodesically exact.
const kmPerDegree = 111.0

// Point is a latitude/longitude pair in decimal degrees.
type Point struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// DistanceKM returns the haversine great-circle distance between a and b in
// kilometers.
func DistanceKM(a, b Point) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return EarthRadiusKM * 2 * math.Asin(math.Sqrt(h))
}

// BearingDeg returns the initial compass bearing from a to b, normalized to
// [0, 360). The value is unspecified when a == b.
func BearingDeg(a, b Point) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLng := radians(b.Lng - a.Lng)

	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)
	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

// Advance moves current toward target at speedKMH for dtSeconds and returns
// the new position, the distance still remaining to target in kilometers, and
// the realized speed in km/h. When the step covers the whole remaining
// distance the result snaps exactly to target with remaining and speed zero.
func Advance(current, target Point, speedKMH, dtSeconds float64) (Point, float64, float64) {
	total := DistanceKM(current, target)
	traveled := speedKMH * dtSeconds / 3600

	if traveled >= total {
		return target, 0, 0
	}

	// Project along the bearing using the flat-earth approximation:
	// 1 degree of latitude ~= 111 km, longitude shrinks by cos(lat).
	bearing := radians(BearingDeg(current, target))
	next := Point{
		Lat: current.Lat + traveled*math.Cos(bearing)/kmPerDegree,
		Lng: current.Lng + traveled*math.Sin(bearing)/(kmPerDegree*math.Cos(radians(current.Lat))),
	}

	remaining := DistanceKM(next, target)
	speed := speedKMH
	if dtSeconds <= 0 {
		speed = 0
	}
	return next, remaining, speed
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
