package serve

import (
	"context"
	"fmt"

	"calmh.dev/course-watch/internal/course"
	"calmh.dev/course-watch/internal/geo"
	"calmh.dev/course-watch/internal/watch"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/exp/slog"
)

var (
	coursesComputed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nav",
		Subsystem: "course",
		Name:      "computed_total",
	})
	coursesCleared = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nav",
		Subsystem: "course",
		Name:      "cleared_total",
	})
	waypointsAdvanced = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nav",
		Subsystem: "course",
		Name:      "waypoints_advanced_total",
	})
	passedPerpendicularGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "nav",
		Subsystem: "course",
		Name:      "passed_perpendicular",
	})
	watchEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nav",
		Subsystem: "watch",
		Name:      "events_total",
	}, []string{"watcher", "type"})
)

// courseGauges exports the nullable fields of one method's result as
// liveGauges, so fields that cannot currently be computed drop out of the
// scrape.
type courseGauges struct {
	distance        *liveGauge
	bearingTrue     *liveGauge
	bearingMagnetic *liveGauge
	crossTrackError *liveGauge
	vmg             *liveGauge
	vmc             *liveGauge
	timeToGo        *liveGauge
	routeDistance   *liveGauge
	routeTimeToGo   *liveGauge
	targetSpeed     *liveGauge
}

func newCourseGauges(method string) *courseGauges {
	return &courseGauges{
		distance:        courseGauge("distance_m", method),
		bearingTrue:     courseGauge("bearing_true_rad", method),
		bearingMagnetic: courseGauge("bearing_magnetic_rad", method),
		crossTrackError: courseGauge("cross_track_error_m", method),
		vmg:             courseGauge("velocity_made_good_mps", method),
		vmc:             courseGauge("velocity_made_good_to_course_mps", method),
		timeToGo:        courseGauge("time_to_go_s", method),
		routeDistance:   courseGauge("route_distance_m", method),
		routeTimeToGo:   courseGauge("route_time_to_go_s", method),
		targetSpeed:     courseGauge("target_speed_mps", method),
	}
}

func (g *courseGauges) publish(r course.Result) {
	g.distance.SetPtr(r.Distance)
	g.bearingTrue.SetPtr(r.BearingTrue)
	g.bearingMagnetic.SetPtr(r.BearingMagnetic)
	g.crossTrackError.SetPtr(r.CrossTrackError)
	g.vmg.SetPtr(r.VelocityMadeGood)
	g.vmc.SetPtr(r.VelocityMadeGoodToCourse)
	g.timeToGo.SetPtr(r.TimeToGo)
	g.targetSpeed.SetPtr(r.TargetSpeed)
	if r.Route != nil {
		g.routeDistance.SetPtr(r.Route.Distance)
		g.routeTimeToGo.SetPtr(r.Route.TimeToGo)
	}
}

// navigator is the computation context: it consumes vessel state snapshots,
// runs the course engine, publishes the results, and owns the waypoint
// progression and the range watchers.
type navigator struct {
	logger    *slog.Logger
	plan      coursePlan
	snapshots <-chan vesselState
	forward   *jsonForwarder

	index    int
	previous *geo.Point
	active   bool

	arrival       *watch.Watcher
	perpendicular *watch.Watcher

	gcGauges *courseGauges
	rlGauges *courseGauges
}

func newNavigator(logger *slog.Logger, plan coursePlan, arrivalRadius float64, sampleSize int, snapshots <-chan vesselState, forward *jsonForwarder) *navigator {
	n := &navigator{
		logger:        logger.With("module", "navigator"),
		plan:          plan,
		snapshots:     snapshots,
		forward:       forward,
		index:         plan.startIndex,
		active:        true,
		arrival:       watch.New(0, arrivalRadius, sampleSize),
		perpendicular: watch.New(1, 1, sampleSize),
		gcGauges:      newCourseGauges(string(course.GreatCircle)),
		rlGauges:      newCourseGauges(string(course.Rhumbline)),
	}

	// The leg origin is the waypoint before the current one, when there
	// is one; otherwise it becomes the position of the first fix.
	if !plan.reverse && plan.startIndex > 0 {
		n.previous = &plan.waypoints[plan.startIndex-1]
	} else if plan.reverse && plan.startIndex < len(plan.waypoints)-1 {
		n.previous = &plan.waypoints[plan.startIndex+1]
	}

	return n
}

func (n *navigator) String() string {
	return fmt.Sprintf("navigator@%p", n)
}

func (n *navigator) Serve(ctx context.Context) error {
	for {
		select {
		case state := <-n.snapshots:
			n.handle(state)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (n *navigator) handle(state vesselState) {
	if !n.active || state.position == nil {
		return
	}

	if n.previous == nil {
		// First fix activates the leg from right here.
		p := *state.position
		n.previous = &p
	}

	in := course.Inputs{
		Vessel:               state.position,
		Destination:          &n.plan.waypoints[n.index],
		PreviousPoint:        n.previous,
		MagneticVariation:    state.variation,
		HeadingTrue:          state.headingTrue,
		CourseOverGroundTrue: state.cogTrue,
		SpeedOverGround:      state.sog,
		WindAngleTrueGround:  state.windAngle,
		Time:                 state.when,
		TargetArrivalTime:    n.plan.targetArrival,
	}
	if len(n.plan.waypoints) >= 2 {
		in.Route = &course.Route{
			Waypoints:    n.plan.waypoints,
			CurrentIndex: n.index,
			Reverse:      n.plan.reverse,
		}
	}

	data := course.Compute(in)
	coursesComputed.Inc()

	n.gcGauges.publish(data.GreatCircle)
	n.rlGauges.publish(data.RhumbLine)
	if data.PassedPerpendicular {
		passedPerpendicularGauge.Set(1)
	} else {
		passedPerpendicularGauge.Set(0)
	}

	if n.forward != nil {
		n.forward.Send(data)
	}

	perpValue := 0.0
	if data.PassedPerpendicular {
		perpValue = 1
	}
	if ev, ok := n.perpendicular.SetValue(perpValue); ok {
		n.notify("perpendicular", ev)
	}

	if dist := data.GreatCircle.Distance; dist != nil {
		if ev, ok := n.arrival.SetValue(*dist); ok {
			n.notify("arrival", ev)
			if ev.Type == watch.Enter {
				n.advance()
			}
		}
	}
}

// notify turns a watch event into a log line and a counter tick. The host
// above us may also consume the JSON feed; this is the local rendering.
func (n *navigator) notify(watcher string, ev watch.Event) {
	watchEvents.WithLabelValues(watcher, ev.Type.String()).Inc()
	switch ev.Type {
	case watch.Enter:
		n.logger.Info("Range entered", "watcher", watcher, "value", ev.Value, "fromBelow", ev.FromBelow)
	case watch.Exit:
		n.logger.Info("Range exited", "watcher", watcher, "value", ev.Value, "isBelow", ev.IsBelow)
	default:
		n.logger.Debug("In range", "watcher", watcher, "value", ev.Value)
	}
}

// advance moves on to the next waypoint after entering the arrival circle.
// Past the end of the route the destination clears, which is notified
// exactly once.
func (n *navigator) advance() {
	reached := n.plan.waypoints[n.index]
	n.previous = &reached

	next := n.index + 1
	if n.plan.reverse {
		next = n.index - 1
	}

	if next < 0 || next >= len(n.plan.waypoints) {
		n.logger.Info("Final waypoint reached, clearing destination", "waypoint", n.waypointName(n.index))
		n.active = false
		n.arrival.Reset()
		n.perpendicular.Reset()
		coursesCleared.Inc()
		return
	}

	n.logger.Info("Waypoint reached, advancing", "waypoint", n.waypointName(n.index), "next", n.waypointName(next))
	n.index = next
	waypointsAdvanced.Inc()
	n.arrival.Reset()
	n.perpendicular.Reset()
}

func (n *navigator) waypointName(idx int) string {
	if idx < len(n.plan.names) && n.plan.names[idx] != "" {
		return n.plan.names[idx]
	}
	return fmt.Sprintf("#%d", idx)
}
