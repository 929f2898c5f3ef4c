// Package routeinfo implements the route-info subcommand: a plain-text
// summary of a GPX route, leg by leg.
package routeinfo

import (
	"fmt"
	"io"
	"math"
	"os"

	"calmh.dev/course-watch/internal/geo"
	"calmh.dev/course-watch/internal/gpx/reader"
)

type CLI struct {
	File    string `arg:"" help:"GPX route file" type:"existingfile"`
	Reverse bool   `help:"Summarize the route last to first"`
}

func (cli *CLI) Run() error {
	fd, err := os.Open(cli.File)
	if err != nil {
		return err
	}
	defer fd.Close()

	routes, err := reader.Routes(fd)
	if err != nil {
		return err
	}
	if len(routes) == 0 {
		return fmt.Errorf("no routes in %s", cli.File)
	}

	for _, route := range routes {
		if cli.Reverse {
			route = reversed(route)
		}
		summarize(os.Stdout, route)
	}
	return nil
}

func reversed(route reader.Route) reader.Route {
	rev := reader.Route{Name: route.Name}
	for i := len(route.Waypoints) - 1; i >= 0; i-- {
		rev.Waypoints = append(rev.Waypoints, route.Waypoints[i])
		rev.Names = append(rev.Names, route.Names[i])
	}
	return rev
}

func summarize(w io.Writer, route reader.Route) {
	name := route.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(w, "Route: %s, %d waypoints\n", name, len(route.Waypoints))

	var gcTotal, rlTotal float64
	for i := 1; i < len(route.Waypoints); i++ {
		from, to := route.Waypoints[i-1], route.Waypoints[i]
		gc := geo.Distance(from, to)
		rl := geo.RhumbDistance(from, to)
		gcTotal += gc
		rlTotal += rl

		fmt.Fprintf(w, "  %-12s -> %-12s  %6.2f NM  brg %05.1f°T (rhumb %05.1f°T)\n",
			pointName(route, i-1), pointName(route, i),
			gc/1852,
			geo.InitialBearing(from, to)*180/math.Pi,
			geo.RhumbBearing(from, to)*180/math.Pi)
	}

	if len(route.Waypoints) >= 2 {
		fmt.Fprintf(w, "Total: %.2f NM great circle, %.2f NM rhumb line\n", gcTotal/1852, rlTotal/1852)
	}
}

func pointName(route reader.Route, idx int) string {
	if idx < len(route.Names) && route.Names[idx] != "" {
		return route.Names[idx]
	}
	return fmt.Sprintf("#%d", idx)
}
