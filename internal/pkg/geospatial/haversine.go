// Package geospatial holds the small amount of spherical geometry needed to
// find stops near a rider.
package geospatial

import "math"

const (
	earthRadiusMeters = 6_371_000.0
	metersPerDegree   = 111_320.0
)

// Haversine returns the great-circle distance in meters between two points
// given in decimal degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	p1, p2 := radians(lat1), radians(lat2)
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	h := math.Pow(math.Sin(dLat/2), 2) + math.Cos(p1)*math.Cos(p2)*math.Pow(math.Sin(dLon/2), 2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// BoundingBox returns the box that contains every point within radiusMeters
// of (lat, lon). It is a cheap prefilter ahead of Haversine. Near the poles
// the longitude span widens to the full circle.
func BoundingBox(lat, lon, radiusMeters float64) (minLat, minLon, maxLat, maxLon float64) {
	dLat := radiusMeters / metersPerDegree
	minLat, maxLat = math.Max(lat-dLat, -90), math.Min(lat+dLat, 90)

	cos := math.Cos(radians(lat))
	if cos < 1e-9 {
		return minLat, -180, maxLat, 180
	}
	dLon := radiusMeters / (metersPerDegree * cos)
	if dLon >= 180 {
		return minLat, -180, maxLat, 180
	}
	return minLat, lon - dLon, maxLat, lon + dLon
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
