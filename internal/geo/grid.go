package geo

import "math"

// The world is divided into fixed 16x16 meter cells on a Web Mercator plane.
// Grid math must agree exactly with the map renderer, so the projection uses
// the WGS84 radius rather than a mean-earth sphere.
const (
	CellMeters        = 16.0
	EarthRadiusMeters = 6378137.0
)

// ToGrid projects geographic coordinates onto the Mercator plane and floors
// to integer cell indices.
func ToGrid(lat, lon float64) (gx, gy int) {
	latRad := lat * math.Pi / 180
	lonRad := lon * math.Pi / 180

	x := EarthRadiusMeters * lonRad
	y := EarthRadiusMeters * math.Log(math.Tan(math.Pi/4+latRad/2))

	gx = int(math.Floor(x / CellMeters))
	gy = int(math.Floor(y / CellMeters))
	return gx, gy
}

// ValidCell reports whether (gx, gy) lies inside the projected world square.
// The Mercator plane spans [-piR, piR) on both axes, so indices outside that
// range cannot come from any real coordinate.
func ValidCell(gx, gy int) bool {
	limit := math.Pi * EarthRadiusMeters / CellMeters
	fx, fy := float64(gx), float64(gy)
	return fx >= -limit && fx < limit && fy >= -limit && fy < limit
}

// gridPoint inverse-projects fractional grid coordinates back to lat/lon.
func gridPoint(gx, gy float64) (lat, lon float64) {
	x := gx * CellMeters
	y := gy * CellMeters

	lonRad := x / EarthRadiusMeters
	latRad := 2*math.Atan(math.Exp(y/EarthRadiusMeters)) - math.Pi/2

	return latRad * 180 / math.Pi, lonRad * 180 / math.Pi
}

// CellCenter returns the lat/lon of the center of cell (gx, gy).
func CellCenter(gx, gy int) (lat, lon float64) {
	return gridPoint(float64(gx)+0.5, float64(gy)+0.5)
}

// CellCorner returns the lat/lon of the south-west corner of cell (gx, gy).
func CellCorner(gx, gy int) (lat, lon float64) {
	return gridPoint(float64(gx), float64(gy))
}

// DistanceMeters is the haversine great-circle distance between two points.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lon1Rad := lon1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	lon2Rad := lon2 * math.Pi / 180

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	a := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Pow(math.Sin(dLon/2), 2)
	c := 2 * math.Asin(math.Sqrt(a))

	return EarthRadiusMeters * c
}
