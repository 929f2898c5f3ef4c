package course

import (
	"math"

	"calmh.dev/course-watch/internal/geo"
)

// passedPerpendicular reports whether the vessel has crossed the line
// through the destination perpendicular to the approach leg. It compares
// the directions from the destination toward the vessel and toward the leg
// origin in a flat local approximation: once those point into opposite
// half-planes the closest approach is behind us.
func passedPerpendicular(vessel, destination, legOrigin geo.Point) bool {
	vx, vy := vessel.Lat-destination.Lat, lonDelta(vessel.Lon, destination.Lon)
	ox, oy := legOrigin.Lat-destination.Lat, lonDelta(legOrigin.Lon, destination.Lon)

	vlen := math.Sqrt(vx*vx + vy*vy)
	olen := math.Sqrt(ox*ox + oy*oy)
	if vlen == 0 || olen == 0 {
		// Vessel or leg origin exactly at the destination, no direction
		// to compare against.
		return false
	}

	dot := (vx*ox + vy*oy) / (vlen * olen)
	// Clamp rounding noise before acos.
	dot = math.Max(-1, math.Min(1, dot))

	return math.Acos(dot) > math.Pi/2
}

// lonDelta is the longitude difference a−b adjusted so that a crossing of
// the ±180° antimeridian stays continuous instead of jumping ~360°.
func lonDelta(a, b float64) float64 {
	d := a - b
	if d > 180 {
		d -= 360
	} else if d < -180 {
		d += 360
	}
	return d
}
