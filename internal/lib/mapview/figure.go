// Package mapview renders a route with closed sections highlighted. The
// figure model is backend-neutral: it exports to GeoJSON, KML, encoded
// polylines, and a self-contained Mapbox GL page.
package mapview

import (
	"github.com/gpxstatus/server/internal/lib/geo"
)

// DefaultThresholdMeters is the default snap distance between a closure
// endpoint and a route point.
const DefaultThresholdMeters = 50.0

const (
	routeTraceName   = "Route"
	closureTraceName = "Closed Road"

	routeColor   = "blue"
	closureColor = "red"

	routeWidth   = 3.0
	closureWidth = 5.0
)

// Options configures figure building.
type Options struct {
	Style           string
	AccessToken     string
	ThresholdMeters float64
	Zoom            float64
}

// Trace is one polyline on the figure.
type Trace struct {
	Name  string    `json:"name"`
	Color string    `json:"color"`
	Width float64   `json:"width"`
	Lat   []float64 `json:"lat"`
	Lon   []float64 `json:"lon"`
}

// Figure is a map with one route trace and zero or more closure traces.
type Figure struct {
	Style       string  `json:"style"`
	AccessToken string  `json:"access_token"`
	Zoom        float64 `json:"zoom"`
	CenterLat   float64 `json:"center_lat"`
	CenterLon   float64 `json:"center_lon"`
	Traces      []Trace `json:"traces"`
}

// Build renders the full route as a blue line and each snappable closed
// section as a red line. Sections are processed independently against the
// full route, so overlapping highlights are possible and are not merged.
func Build(route []geo.Point, closedSections [][2]geo.Point, opts Options) Figure {
	if opts.ThresholdMeters <= 0 {
		opts.ThresholdMeters = DefaultThresholdMeters
	}
	if opts.Zoom <= 0 {
		opts.Zoom = 10
	}

	center := geo.Mean(route)
	figure := Figure{
		Style:       opts.Style,
		AccessToken: opts.AccessToken,
		Zoom:        opts.Zoom,
		CenterLat:   center.Latitude,
		CenterLon:   center.Longitude,
	}

	if len(route) == 0 {
		return figure
	}

	figure.Traces = append(figure.Traces, newTrace(routeTraceName, routeColor, routeWidth, route))

	for _, section := range closedSections {
		if sub, ok := snapSection(route, section, opts.ThresholdMeters); ok {
			figure.Traces = append(figure.Traces, newTrace(closureTraceName, closureColor, closureWidth, sub))
		}
	}
	return figure
}

// snapSection scans the route once, forward, collecting the points between
// the first route point near either section endpoint and the first
// subsequent point near the section end. Hitting the end first collapses
// the section to a degenerate span (end becomes start). A section whose end
// is never reached is discarded: an unmatched closure is assumed to be
// off-route or a snapping failure, not an error.
func snapSection(route []geo.Point, section [2]geo.Point, threshold float64) ([]geo.Point, bool) {
	start, end := section[0], section[1]
	var sub []geo.Point
	startFound := false
	endFound := false

	for _, p := range route {
		if !startFound {
			if geo.Distance(start, p) < threshold {
				startFound = true
			}
			if geo.Distance(end, p) < threshold {
				startFound = true
				end = start
			}
		}
		if startFound {
			sub = append(sub, p)
			if geo.Distance(end, p) < threshold {
				endFound = true
				break
			}
		}
	}

	if !startFound || !endFound {
		return nil, false
	}
	return sub, true
}

func newTrace(name, color string, width float64, points []geo.Point) Trace {
	t := Trace{
		Name:  name,
		Color: color,
		Width: width,
		Lat:   make([]float64, len(points)),
		Lon:   make([]float64, len(points)),
	}
	for i, p := range points {
		t.Lat[i] = p.Latitude
		t.Lon[i] = p.Longitude
	}
	return t
}

// ClosureCount returns how many closure traces made it onto the figure.
func (f Figure) ClosureCount() int {
	var n int
	for _, t := range f.Traces {
		if t.Name == closureTraceName {
			n++
		}
	}
	return n
}
