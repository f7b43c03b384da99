// Package geo provides geolocation utilities for distance-based scoring.
package geo

import "math"

// EarthRadiusKm is the mean radius of the Earth in kilometers.
const EarthRadiusKm = 6371.0

// Proximity band thresholds in kilometers.
const (
	BandVeryClose = 5.0
	BandClose     = 15.0
	BandNearby    = 30.0
	BandRegional  = 50.0
)

// HaversineKm computes the great-circle distance in kilometers between two
// coordinates using the haversine formula.
//
// Parameters:
//   - lat1, lng1: first point in degrees
//   - lat2, lng2: second point in degrees
//
// Returns the distance in kilometers.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// ProximityScore maps a distance in kilometers to a banded score in [0.2, 1.0].
// Nearer events score higher:
//
//	<=5 km  -> 1.0
//	<=15 km -> 0.8
//	<=30 km -> 0.6
//	<=50 km -> 0.4
//	else    -> 0.2
func ProximityScore(distanceKm float64) float64 {
	switch {
	case distanceKm <= BandVeryClose:
		return 1.0
	case distanceKm <= BandClose:
		return 0.8
	case distanceKm <= BandNearby:
		return 0.6
	case distanceKm <= BandRegional:
		return 0.4
	default:
		return 0.2
	}
}

// toRadians converts degrees to radians.
func toRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
