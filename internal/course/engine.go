package course

import (
	"math"
	"time"

	"calmh.dev/course-watch/internal/geo"
)

// Compute derives a full result snapshot from one input snapshot. It is a
// pure function: missing optional inputs degrade the affected fields to nil,
// and a missing required position yields the empty sentinel. It never
// returns an error.
func Compute(in Inputs) Data {
	if !in.Complete() {
		return Data{
			GreatCircle: Result{Method: GreatCircle},
			RhumbLine:   Result{Method: Rhumbline},
		}
	}

	ref := in.Time
	if ref.IsZero() {
		ref = time.Now()
	}

	// Cross track is always measured against the great-circle path,
	// regardless of method.
	xte := geo.CrossTrackDistance(*in.Vessel, *in.PreviousPoint, *in.Destination)

	return Data{
		GreatCircle:         computeMethod(in, GreatCircle, xte, ref),
		RhumbLine:           computeMethod(in, Rhumbline, xte, ref),
		PassedPerpendicular: passedPerpendicular(*in.Vessel, *in.Destination, *in.PreviousPoint),
	}
}

func computeMethod(in Inputs, method Method, xte float64, ref time.Time) Result {
	bearingFn := geo.InitialBearing
	distanceFn := geo.Distance
	if method == Rhumbline {
		bearingFn = geo.RhumbBearing
		distanceFn = geo.RhumbDistance
	}

	bearingTrack := bearingFn(*in.PreviousPoint, *in.Destination)
	bearing := bearingFn(*in.Vessel, *in.Destination)
	distance := distanceFn(*in.Vessel, *in.Destination)
	prevDistance := distanceFn(*in.Vessel, *in.PreviousPoint)

	r := Result{
		Method:                method,
		BearingTrackTrue:      ptr(bearingTrack),
		BearingTrackMagnetic:  ptr(geo.NormalizeAngle(bearingTrack + in.MagneticVariation)),
		CrossTrackError:       ptr(xte),
		Distance:              ptr(distance),
		PreviousPointDistance: ptr(prevDistance),
		BearingTrue:           ptr(bearing),
		BearingMagnetic:       ptr(geo.NormalizeAngle(bearing + in.MagneticVariation)),
	}

	if in.WindAngleTrueGround != nil && in.SpeedOverGround != nil {
		r.VelocityMadeGood = ptr(math.Cos(*in.WindAngleTrueGround) * *in.SpeedOverGround)
	}

	// Time math uses the true-bearing VMC for both methods.
	var vmc *float64
	if in.CourseOverGroundTrue != nil && in.SpeedOverGround != nil {
		vmc = ptr(math.Cos(math.Abs(geo.AngleDifference(bearing, *in.CourseOverGroundTrue))) * *in.SpeedOverGround)
	}
	r.VelocityMadeGoodToCourse = vmc

	if ttg, eta, ok := timeToGo(distance, vmc, ref); ok {
		r.TimeToGo = ptr(ttg)
		r.EstimatedTimeOfArrival = ptr(eta)
	}

	routeRemaining := 0.0
	if in.Route != nil && len(in.Route.Waypoints) >= 2 {
		routeRemaining = remainingDistance(in.Route.Waypoints, in.Route.CurrentIndex, in.Route.Reverse, distanceFn)
		routeDistance := distance + routeRemaining
		route := &RouteResult{Distance: ptr(routeDistance)}
		if ttg, eta, ok := timeToGo(routeDistance, vmc, ref); ok {
			route.TimeToGo = ptr(ttg)
			route.EstimatedTimeOfArrival = ptr(eta)
		}
		r.Route = route
	}

	if in.TargetArrivalTime != nil && in.TargetArrivalTime.After(ref) {
		secs := in.TargetArrivalTime.Sub(ref).Seconds()
		r.TargetSpeed = ptr((distance + routeRemaining) / secs)
	}

	return r
}

// timeToGo converts a distance and a velocity made good into seconds to go
// and an arrival time. A missing or zero velocity means no estimate.
func timeToGo(distance float64, vmc *float64, ref time.Time) (float64, time.Time, bool) {
	if vmc == nil || *vmc == 0 {
		return 0, time.Time{}, false
	}
	ttg := distance / *vmc
	return ttg, ref.Add(time.Duration(ttg * float64(time.Second))), true
}

func ptr[T any](v T) *T {
	return &v
}
