// Package closures turns matched restriction records into a structured
// table, separates complete closures from partial restrictions, and
// computes the geographic extent of each closure.
package closures

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"math"
	"strconv"

	"github.com/pkg/errors"

	"github.com/gpxstatus/server/internal/lib/geo"
)

// CompleteClosureMarker is the restriction description used by the feed for
// a full road closure, as opposed to lane or partial restrictions.
const CompleteClosureMarker = "通行止"

// Record is one restriction affecting a matched road.
type Record struct {
	WorkType               string      `json:"work_type"`
	Direction              string      `json:"direction"`
	LocationDescription    string      `json:"location_description"`
	Coordinates            [][]float64 `json:"coordinates"` // (longitude, latitude) per point, feed order
	RouteName              string      `json:"route_name"`
	RestrictionDescription string      `json:"restriction_description"`
	Region                 string      `json:"region"`
	DistanceKm             float64     `json:"distance_km"`
}

// NewRecord builds a Record and computes its closure distance. Distance is
// defined only for exactly-two-point coordinate spans; anything else gets 0
// to keep the column numeric. Feed coordinates arrive as (longitude,
// latitude) and must be reversed before geodesic math.
func NewRecord(workType, direction, locationDescription string, coordinates [][]float64, routeName, restrictionDescription, region string) Record {
	return Record{
		WorkType:               workType,
		Direction:              direction,
		LocationDescription:    locationDescription,
		Coordinates:            coordinates,
		RouteName:              routeName,
		RestrictionDescription: restrictionDescription,
		Region:                 region,
		DistanceKm:             spanDistanceKm(coordinates),
	}
}

// spanDistanceKm computes the geodesic length of a two-point span in
// kilometers, rounded to 3 decimals.
func spanDistanceKm(coordinates [][]float64) float64 {
	if len(coordinates) != 2 || len(coordinates[0]) < 2 || len(coordinates[1]) < 2 {
		return 0
	}
	start := geo.Point{Latitude: coordinates[0][1], Longitude: coordinates[0][0]}
	end := geo.Point{Latitude: coordinates[1][1], Longitude: coordinates[1][0]}
	return math.Round(geo.DistanceKm(start, end)*1000) / 1000
}

// IsCompleteClosure reports whether the record describes a full road
// closure. The match is exact, not substring: markers like "通行止(一部)"
// stay partial.
func (r Record) IsCompleteClosure() bool {
	return r.RestrictionDescription == CompleteClosureMarker
}

// Table is a collection of restriction records.
type Table struct {
	Records []Record `json:"records"`
}

// Classify splits records into the full affected-roads table and the
// complete-closures subset. Empty input yields two empty tables.
func Classify(records []Record) (all Table, complete Table) {
	all = Table{Records: records}
	for _, r := range records {
		if r.IsCompleteClosure() {
			complete.Records = append(complete.Records, r)
		}
	}
	return all, complete
}

// Empty reports whether the table has no records.
func (t Table) Empty() bool {
	return len(t.Records) == 0
}

// ClosureSections extracts the start/end endpoints of each two-point
// closure span, reversed into (latitude, longitude) order for geodesic
// work. Spans with any other geometry shape are skipped.
func (t Table) ClosureSections() [][2]geo.Point {
	var sections [][2]geo.Point
	for _, r := range t.Records {
		if len(r.Coordinates) != 2 || len(r.Coordinates[0]) < 2 || len(r.Coordinates[1]) < 2 {
			continue
		}
		sections = append(sections, [2]geo.Point{
			{Latitude: r.Coordinates[0][1], Longitude: r.Coordinates[0][0]},
			{Latitude: r.Coordinates[1][1], Longitude: r.Coordinates[1][0]},
		})
	}
	return sections
}

// csvHeader is the exported column set, in order.
var csvHeader = []string{
	"work_type", "direction", "location_description", "coordinates",
	"route_name", "restriction_description", "distance_km",
}

// WriteCSV writes the table as delimited text with a header row. The
// coordinates column is JSON-encoded.
func (t Table) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return errors.Wrap(err, "failed to write CSV header")
	}

	for _, r := range t.Records {
		coords, err := json.Marshal(r.Coordinates)
		if err != nil {
			return errors.Wrap(err, "failed to encode coordinates")
		}
		row := []string{
			r.WorkType,
			r.Direction,
			r.LocationDescription,
			string(coords),
			r.RouteName,
			r.RestrictionDescription,
			strconv.FormatFloat(r.DistanceKm, 'f', -1, 64),
		}
		if err := writer.Write(row); err != nil {
			return errors.Wrap(err, "failed to write CSV row")
		}
	}

	writer.Flush()
	return errors.Wrap(writer.Error(), "failed to flush CSV")
}
