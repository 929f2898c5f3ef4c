// Package serve wires NMEA telemetry sources into the course computation
// engine and publishes the derived guidance: metrics, notifications, and a
// JSON feed for downstream consumers.
package serve

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"calmh.dev/course-watch/internal/geo"
	"calmh.dev/course-watch/internal/gpx/reader"
	"github.com/thejerf/suture/v4"
	"golang.org/x/exp/slog"
)

type CLI struct {
	InputTCPConnect []string `help:"TCP connect input addresses (e.g., 172.16.1.2:2000)" placeholder:"ADDR" group:"Input"`
	InputUDPListen  []int    `help:"UDP broadcast input listen ports (e.g., 2000)" placeholder:"PORT" group:"Input"`
	InputSerial     []string `help:"Serial port inputs (e.g., /dev/ttyS0)" placeholder:"DEV" group:"Input"`
	InputStdin      bool     `help:"Read NMEA from standard input" group:"Input"`

	Route         string `help:"GPX file with the route to follow" placeholder:"FILE" group:"Course"`
	RouteIndex    int    `help:"Waypoint index to start at" default:"0" group:"Course"`
	RouteReverse  bool   `help:"Traverse the route last to first" group:"Course"`
	Destination   string `help:"Single destination as lat,lon (alternative to a route)" placeholder:"POS" group:"Course"`
	TargetArrival string `help:"Target arrival time (RFC 3339)" placeholder:"TIME" group:"Course"`

	ArrivalRadius   float64 `help:"Arrival circle radius (meters)" default:"100" group:"Watch"`
	WatchSampleSize int     `help:"Distinct samples required before a watch transition fires" default:"1" group:"Watch"`
	GuardZoneRadius float64 `help:"AIS guard zone radius (meters, 0 disables)" default:"0" group:"Watch"`

	ForwardTCPListen string `help:"TCP listen address for the JSON course feed" placeholder:"ADDR" group:"Output"`

	PrometheusMetricsListen string `default:"127.0.0.1:9141" help:"HTTP listen address for Prometheus metrics endpoint" placeholder:"ADDR" group:"Metrics"`
}

func (cli *CLI) Run(ctx context.Context, logger *slog.Logger) error {
	logger = logger.With("module", "serve")

	plan, err := cli.coursePlan()
	if err != nil {
		return err
	}

	sup := suture.New("main", suture.Spec{
		EventHook: func(ev suture.Event) {
			logger.Error(ev.String())
		},
	})

	input := make(chan string, 4096)
	tee := NewTee("main", input)
	sup.Add(tee)

	if cli.InputStdin {
		logger.Info("Reading NMEA from stdin")
		sup.Add(linesInto(input, os.Stdin, "stdin"))
	}

	for _, addr := range cli.InputTCPConnect {
		logger.Info("Reading NMEA from TCP", "addr", addr)
		sup.Add(readTCPInto(input, addr))
	}

	for _, port := range cli.InputUDPListen {
		logger.Info("Reading NMEA from UDP", "port", port)
		sup.Add(readUDPInto(input, port))
	}

	for _, dev := range cli.InputSerial {
		logger.Info("Reading NMEA from serial device", "dev", dev)
		sup.Add(readSerialInto(input, dev))
	}

	snapshots := make(chan vesselState, 1)
	sup.Add(&telemetryCollector{
		c:         tee.Output(),
		snapshots: snapshots,
	})

	var forward *jsonForwarder
	if cli.ForwardTCPListen != "" {
		logger.Info("Forwarding course data to incoming connections", "addr", cli.ForwardTCPListen)
		var svc suture.Service
		forward, svc = forwardJSON(cli.ForwardTCPListen)
		sup.Add(svc)
	}

	logger.Info("Watching course", "destination", plan.describe(), "arrivalRadius", cli.ArrivalRadius)
	sup.Add(newNavigator(logger, plan, cli.ArrivalRadius, cli.WatchSampleSize, snapshots, forward))

	if cli.GuardZoneRadius > 0 {
		logger.Info("Watching AIS guard zone", "radius", cli.GuardZoneRadius)
		sup.Add(newGuardZone(logger, tee.Output(), cli.GuardZoneRadius, cli.WatchSampleSize))
	}

	if cli.PrometheusMetricsListen != "" {
		url := &url.URL{Scheme: "http", Host: cli.PrometheusMetricsListen, Path: "/metrics"}
		logger.Info("Exporting metrics", "url", url.String())
		sup.Add(&prometheusListener{cli.PrometheusMetricsListen})
	}

	return sup.Serve(ctx)
}

// coursePlan is the static part of the course: the waypoints to sail and
// where to start.
type coursePlan struct {
	waypoints     []geo.Point
	names         []string
	startIndex    int
	reverse       bool
	targetArrival *time.Time
}

func (cli *CLI) coursePlan() (coursePlan, error) {
	plan := coursePlan{
		startIndex: cli.RouteIndex,
		reverse:    cli.RouteReverse,
	}

	switch {
	case cli.Route != "" && cli.Destination != "":
		return plan, fmt.Errorf("set either a route or a destination, not both")

	case cli.Route != "":
		fd, err := os.Open(cli.Route)
		if err != nil {
			return plan, fmt.Errorf("route: %w", err)
		}
		defer fd.Close()
		routes, err := reader.Routes(fd)
		if err != nil {
			return plan, fmt.Errorf("route: %w", err)
		}
		if len(routes) == 0 || len(routes[0].Waypoints) == 0 {
			return plan, fmt.Errorf("route: no waypoints in %s", cli.Route)
		}
		plan.waypoints = routes[0].Waypoints
		plan.names = routes[0].Names
		if cli.RouteReverse && cli.RouteIndex == 0 {
			plan.startIndex = len(plan.waypoints) - 1
		}
		if plan.startIndex < 0 || plan.startIndex >= len(plan.waypoints) {
			return plan, fmt.Errorf("route: waypoint index %d out of range", plan.startIndex)
		}

	case cli.Destination != "":
		dest, err := parsePosition(cli.Destination)
		if err != nil {
			return plan, fmt.Errorf("destination: %w", err)
		}
		plan.waypoints = []geo.Point{dest}
		plan.startIndex = 0
		plan.reverse = false

	default:
		return plan, fmt.Errorf("a route or a destination is required")
	}

	if cli.TargetArrival != "" {
		when, err := time.Parse(time.RFC3339, cli.TargetArrival)
		if err != nil {
			return plan, fmt.Errorf("target arrival: %w", err)
		}
		plan.targetArrival = &when
	}

	return plan, nil
}

func (p coursePlan) describe() string {
	if len(p.waypoints) == 1 {
		return fmt.Sprintf("%.5f,%.5f", p.waypoints[0].Lat, p.waypoints[0].Lon)
	}
	dir := "forward"
	if p.reverse {
		dir = "reverse"
	}
	return fmt.Sprintf("%d waypoints (%s) from #%d", len(p.waypoints), dir, p.startIndex)
}

func parsePosition(s string) (geo.Point, error) {
	lat, lon, ok := strings.Cut(s, ",")
	if !ok {
		return geo.Point{}, fmt.Errorf("%q: want lat,lon", s)
	}
	latF, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return geo.Point{}, err
	}
	lonF, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil {
		return geo.Point{}, err
	}
	return geo.Point{Lat: latF, Lon: lonF}, nil
}
