// Package geo checks submitter coordinates against an event geofence.
package geo

import "math"

// EarthRadiusKm is the mean earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// Distance returns the great-circle distance in kilometers between two
// coordinates using the haversine formula.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// Verify reports whether a submitter at (lat, lon) is within radiusKm of
// the event origin. No side effects; callers cache the positive result.
func Verify(lat, lon, originLat, originLon, radiusKm float64) bool {
	return Distance(lat, lon, originLat, originLon) <= radiusKm
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
