// Package reader parses GPX route files into waypoint sequences.
package reader

import (
	"encoding/xml"
	"errors"
	"io"

	"calmh.dev/course-watch/internal/geo"
)

type gpxFile struct {
	Routes []gpxRoute `xml:"rte"`
	Tracks []struct {
		Name     string `xml:"name"`
		Segments []struct {
			Points []gpxPoint `xml:"trkpt"`
		} `xml:"trkseg"`
	} `xml:"trk"`
}

type gpxRoute struct {
	Name   string     `xml:"name"`
	Points []gpxPoint `xml:"rtept"`
}

type gpxPoint struct {
	Lat  float64 `xml:"lat,attr"`
	Lon  float64 `xml:"lon,attr"`
	Name string  `xml:"name"`
}

// Route is an ordered sequence of waypoints with optional names.
type Route struct {
	Name      string
	Waypoints []geo.Point
	Names     []string
}

// Routes reads every route in the GPX data. Files carrying only tracks are
// accepted too, each track segment becoming a route.
func Routes(r io.Reader) ([]Route, error) {
	dec := xml.NewDecoder(r)
	var routes []Route
	for {
		var g gpxFile
		if err := dec.Decode(&g); errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, err
		}

		for _, rte := range g.Routes {
			routes = append(routes, toRoute(rte.Name, rte.Points))
		}
		for _, trk := range g.Tracks {
			for _, seg := range trk.Segments {
				routes = append(routes, toRoute(trk.Name, seg.Points))
			}
		}
	}
	return routes, nil
}

func toRoute(name string, points []gpxPoint) Route {
	route := Route{Name: name}
	for _, p := range points {
		route.Waypoints = append(route.Waypoints, geo.Point{Lat: p.Lat, Lon: p.Lon})
		route.Names = append(route.Names, p.Name)
	}
	return route
}
