package track

import (
	"io"

	"github.com/pkg/errors"
	"github.com/tkrajina/gpxgo/gpx"

	"github.com/gpxstatus/server/internal/lib/geo"
)

// ErrMalformedGPX indicates the input is not well-formed GPX.
var ErrMalformedGPX = errors.New("malformed GPX input")

// ErrInvalidInterval indicates a non-positive sampling interval.
var ErrInvalidInterval = errors.New("sampling interval must be a positive integer")

// Extract parses GPX data from any readable byte source and returns the
// flattened point sequence across all tracks and segments, in file order.
// Order is never changed and duplicates are never removed.
func Extract(r io.Reader) ([]geo.Point, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read GPX source")
	}

	parsed, err := gpx.ParseBytes(data)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedGPX, "parse failed: %v", err)
	}

	var points []geo.Point
	for _, trk := range parsed.Tracks {
		for _, seg := range trk.Segments {
			for _, p := range seg.Points {
				points = append(points, geo.Point{
					Latitude:  p.Latitude,
					Longitude: p.Longitude,
				})
			}
		}
	}
	return points, nil
}

// Sample returns the subsequence at indices 0, interval, 2*interval, ...
// This is fixed-stride decimation: an interval at or beyond the sequence
// length yields the first point only.
func Sample(points []geo.Point, interval int) ([]geo.Point, error) {
	if interval <= 0 {
		return nil, errors.Wrapf(ErrInvalidInterval, "got %d", interval)
	}
	if len(points) == 0 {
		return nil, nil
	}

	sampled := make([]geo.Point, 0, (len(points)+interval-1)/interval)
	for i := 0; i < len(points); i += interval {
		sampled = append(sampled, points[i])
	}
	return sampled, nil
}
