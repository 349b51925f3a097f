package geospatial

import "math"

const earthRadiusKm = 6371.0

// DistanceKm calculates the great-circle distance in kilometres between two points.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// BoxDistance returns a squared equirectangular distance, in degrees of
// latitude, from (lat, lng) to the closest edge of a [lng, lat] box. It only
// orders candidates; use DistanceKm for the real distance.
func BoxDistance(lat, lng float64) func(min, max [2]float64) float64 {
	scale := math.Cos(toRad(lat))
	return func(min, max [2]float64) float64 {
		dx := axisGap(lng, min[0], max[0]) * scale
		dy := axisGap(lat, min[1], max[1])
		return dx*dx + dy*dy
	}
}

func axisGap(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo - v
	case v > hi:
		return v - hi
	}
	return 0
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
