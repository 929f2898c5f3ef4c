// Package geo implements spherical-Earth navigation math: great-circle
// and rhumb-line bearings and distances, cross-track distance, and angle
// helpers. Formulas follow www.movable-type.co.uk/scripts/latlong.html.
package geo

import "math"

// EarthRadius is the mean Earth radius in meters.
const EarthRadius = 6371000.0

// Point is a position on the WGS sphere, in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func toRadians(d float64) float64 {
	return d * math.Pi / 180
}

// NormalizeAngle wraps an angle in radians into [0, 2π).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// AngleDifference returns the signed difference a−b wrapped into (−π, π].
// Positive means b lies to the left (counterclockwise) of a.
func AngleDifference(a, b float64) float64 {
	d := math.Mod(a-b, 2*math.Pi)
	if d > math.Pi {
		d -= 2 * math.Pi
	} else if d <= -math.Pi {
		d += 2 * math.Pi
	}
	return d
}

// InitialBearing returns the initial great-circle bearing from a to b,
// in radians [0, 2π).
func InitialBearing(a, b Point) float64 {
	φ1 := toRadians(a.Lat)
	φ2 := toRadians(b.Lat)
	Δλ := toRadians(b.Lon - a.Lon)

	y := math.Sin(Δλ) * math.Cos(φ2)
	x := math.Cos(φ1)*math.Sin(φ2) - math.Sin(φ1)*math.Cos(φ2)*math.Cos(Δλ)
	return NormalizeAngle(math.Atan2(y, x))
}

// RhumbBearing returns the constant rhumb-line bearing from a to b,
// in radians [0, 2π).
func RhumbBearing(a, b Point) float64 {
	φ1 := toRadians(a.Lat)
	φ2 := toRadians(b.Lat)
	Δλ := toRadians(b.Lon - a.Lon)

	// Shorter way around across the antimeridian.
	if Δλ > math.Pi {
		Δλ -= 2 * math.Pi
	} else if Δλ < -math.Pi {
		Δλ += 2 * math.Pi
	}

	Δψ := math.Log(math.Tan(φ2/2+math.Pi/4) / math.Tan(φ1/2+math.Pi/4))
	return NormalizeAngle(math.Atan2(Δλ, Δψ))
}

// Distance returns the great-circle (haversine) distance between a and b,
// in meters.
func Distance(a, b Point) float64 {
	φ1 := toRadians(a.Lat)
	φ2 := toRadians(b.Lat)
	Δφ := φ2 - φ1
	Δλ := toRadians(b.Lon - a.Lon)

	h := math.Sin(Δφ/2)*math.Sin(Δφ/2) + math.Cos(φ1)*math.Cos(φ2)*math.Sin(Δλ/2)*math.Sin(Δλ/2)
	return EarthRadius * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// RhumbDistance returns the rhumb-line distance between a and b, in meters.
func RhumbDistance(a, b Point) float64 {
	φ1 := toRadians(a.Lat)
	φ2 := toRadians(b.Lat)
	Δφ := φ2 - φ1
	Δλ := math.Abs(toRadians(b.Lon - a.Lon))

	if Δλ > math.Pi {
		Δλ = 2*math.Pi - Δλ
	}

	// East-west distance scales with the projected latitude difference,
	// except on a parallel where the projection degenerates.
	Δψ := math.Log(math.Tan(φ2/2+math.Pi/4) / math.Tan(φ1/2+math.Pi/4))
	var q float64
	if math.Abs(Δψ) > 1e-12 {
		q = Δφ / Δψ
	} else {
		q = math.Cos(φ1)
	}

	return EarthRadius * math.Sqrt(Δφ*Δφ+q*q*Δλ*Δλ)
}

// CrossTrackDistance returns the signed distance in meters from p to the
// great-circle path from→to. Negative means p is left of the path (steer
// right to correct), positive right of it.
func CrossTrackDistance(p, from, to Point) float64 {
	δ13 := Distance(from, p) / EarthRadius
	θ13 := InitialBearing(from, p)
	θ12 := InitialBearing(from, to)
	return math.Asin(math.Sin(δ13)*math.Sin(θ13-θ12)) * EarthRadius
}
