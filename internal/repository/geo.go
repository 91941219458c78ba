package repository

import "math"

// AngularDistance returns the central angle, in radians, between two points
// given in degrees. Comparing it against a radius expressed as
// distance / earth-radius implements the spherical "within radius" check.
func AngularDistance(lat1, lng1, lat2, lng2 float64) float64 {
	const degToRad = math.Pi / 180

	phi1 := lat1 * degToRad
	phi2 := lat2 * degToRad
	dPhi := (lat2 - lat1) * degToRad
	dLambda := (lng2 - lng1) * degToRad

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	a := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda

	return 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// BoundingBox returns the latitude and longitude bounds of the spherical cap
// around a point, for cheap index-backed prefiltering before the exact
// angular check. Longitude bounds widen toward the poles.
func BoundingBox(lat, lng, radiusRad float64) (minLat, maxLat, minLng, maxLng float64) {
	const radToDeg = 180 / math.Pi

	dLat := radiusRad * radToDeg
	cos := math.Cos(lat * math.Pi / 180)
	if cos < 1e-9 {
		cos = 1e-9
	}
	dLng := radiusRad * radToDeg / cos

	return lat - dLat, lat + dLat, lng - dLng, lng + dLng
}
