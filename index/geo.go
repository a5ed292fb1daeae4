package index

import "math"

const earthRadiusMeters = 6371000.0

// Haversine returns the great circle distance in meters between two points.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	return earthRadiusMeters * 2 * math.Asin(math.Sqrt(a))
}

// BoundingBox returns the lat/lng box enclosing the circle of radius meters around lat,lng.
// It is a cheap prefilter; Haversine decides membership. A circle reaching a
// pole or crossing the antimeridian gets the full longitude range.
func BoundingBox(lat, lng, meters float64) (minLat, maxLat, minLng, maxLng float64) {
	dLat := meters / earthRadiusMeters * 180 / math.Pi
	minLat, maxLat = lat-dLat, lat+dLat
	if minLat <= -90 || maxLat >= 90 {
		return math.Max(minLat, -90), math.Min(maxLat, 90), -180, 180
	}

	dLng := dLat / math.Cos(toRadians(lat))
	minLng, maxLng = lng-dLng, lng+dLng
	if minLng < -180 || maxLng > 180 {
		return minLat, maxLat, -180, 180
	}
	return minLat, maxLat, minLng, maxLng
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
