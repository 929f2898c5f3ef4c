// Package course derives navigation guidance from a vessel telemetry
// snapshot: bearings and distances to the active destination, cross-track
// error, velocity made good, time to go and ETA, and route totals, computed
// in parallel for the great-circle and rhumb-line methods.
package course

import (
	"time"

	"calmh.dev/course-watch/internal/geo"
)

// Method selects the calculation method for bearings and distances.
type Method string

const (
	GreatCircle Method = "greatCircle"
	Rhumbline   Method = "rhumbLine"
)

// Route is the active route: an ordered waypoint sequence, the index of the
// waypoint currently steered for, and the traversal direction.
type Route struct {
	Waypoints    []geo.Point
	CurrentIndex int
	Reverse      bool
}

// Inputs is one telemetry snapshot. Vessel, Destination and PreviousPoint
// are required; everything else is optional, nil meaning unknown. Angles are
// radians, speeds m/s.
type Inputs struct {
	Vessel        *geo.Point
	Destination   *geo.Point
	PreviousPoint *geo.Point

	MagneticVariation    float64 // radians, zero when unknown
	HeadingTrue          *float64
	CourseOverGroundTrue *float64
	SpeedOverGround      *float64
	WindAngleTrueGround  *float64

	Time              time.Time // reference timestamp, zero means now
	TargetArrivalTime *time.Time

	Route *Route
}

// Complete reports whether the required positions are all present.
func (in Inputs) Complete() bool {
	return in.Vessel != nil && in.Destination != nil && in.PreviousPoint != nil
}

// RouteResult aggregates time, ETA and distance to the final waypoint of the
// active route. Distance is always set when the struct is present; TimeToGo
// and ETA require a usable velocity made good to course.
type RouteResult struct {
	TimeToGo               *float64   `json:"timeToGo,omitempty"` // seconds
	EstimatedTimeOfArrival *time.Time `json:"estimatedTimeOfArrival,omitempty"`
	Distance               *float64   `json:"distance,omitempty"` // meters
}

// Result is the guidance derived with one calculation method. Nil fields
// could not be computed from the current inputs.
type Result struct {
	Method Method `json:"calcMethod"`

	BearingTrackTrue     *float64 `json:"bearingTrackTrue,omitempty"`     // radians [0, 2π)
	BearingTrackMagnetic *float64 `json:"bearingTrackMagnetic,omitempty"` // radians [0, 2π)
	CrossTrackError      *float64 `json:"crossTrackError,omitempty"`      // meters, signed

	Distance              *float64 `json:"distance,omitempty"`              // meters to destination
	PreviousPointDistance *float64 `json:"previousPointDistance,omitempty"` // meters from leg origin
	BearingTrue           *float64 `json:"bearingTrue,omitempty"`           // radians [0, 2π)
	BearingMagnetic       *float64 `json:"bearingMagnetic,omitempty"`       // radians [0, 2π)

	VelocityMadeGood         *float64 `json:"velocityMadeGood,omitempty"`         // m/s, wind-relative
	VelocityMadeGoodToCourse *float64 `json:"velocityMadeGoodToCourse,omitempty"` // m/s, course-relative

	TimeToGo               *float64   `json:"timeToGo,omitempty"` // seconds
	EstimatedTimeOfArrival *time.Time `json:"estimatedTimeOfArrival,omitempty"`

	Route *RouteResult `json:"route,omitempty"`

	TargetSpeed *float64 `json:"targetSpeed,omitempty"` // m/s to meet target arrival
}

// Data is one complete computation cycle: both methods, plus the shared
// perpendicular-passage flag.
type Data struct {
	GreatCircle         Result `json:"greatCircle"`
	RhumbLine           Result `json:"rhumbLine"`
	PassedPerpendicular bool   `json:"passedPerpendicular"`
}

// Empty reports whether d is the no-active-destination sentinel produced
// when a required position is missing. Distance is always computed when the
// required positions are present, so a nil distance identifies the sentinel.
func (d Data) Empty() bool {
	return d.GreatCircle.Distance == nil && d.RhumbLine.Distance == nil
}
