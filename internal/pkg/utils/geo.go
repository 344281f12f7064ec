package utils

import "math"

const (
	earthRadiusM = 6371000.0
	// MetersPerMile converts factor radii expressed in miles to the meters
	// the geography queries expect.
	MetersPerMile = 1609.34
)

// MilesToMeters converts a radius in miles to meters.
func MilesToMeters(miles float64) float64 {
	return miles * MetersPerMile
}

// ValidateCoordinates reports whether a lat/lng pair is on the globe.
func ValidateCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// HaversineDistance computes the great-circle distance between two points
// in meters.
func HaversineDistance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180.0
	dLng := (lng2 - lng1) * math.Pi / 180.0

	lat1Rad := lat1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLng/2)*math.Sin(dLng/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusM * c
}

// Round2 rounds to two decimal places, the precision of reported
// route safety scores.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
