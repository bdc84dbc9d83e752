package track

import (
	"fmt"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gpxstatus/server/internal/lib/geo"
)

const gpxHeader = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">`

func buildGPX(segments ...[]geo.Point) string {
	var b strings.Builder
	b.WriteString(gpxHeader)
	b.WriteString("<trk>")
	for _, seg := range segments {
		b.WriteString("<trkseg>")
		for _, p := range seg {
			fmt.Fprintf(&b, `<trkpt lat="%f" lon="%f"></trkpt>`, p.Latitude, p.Longitude)
		}
		b.WriteString("</trkseg>")
	}
	b.WriteString("</trk></gpx>")
	return b.String()
}

func TestExtractPreservesOrder(t *testing.T) {
	seg1 := []geo.Point{
		{Latitude: 35.0, Longitude: 139.0},
		{Latitude: 35.1, Longitude: 139.1},
	}
	seg2 := []geo.Point{
		{Latitude: 35.2, Longitude: 139.2},
	}

	points, err := Extract(strings.NewReader(buildGPX(seg1, seg2)))
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.InDelta(t, 35.0, points[0].Latitude, 1e-6)
	assert.InDelta(t, 35.1, points[1].Latitude, 1e-6)
	assert.InDelta(t, 35.2, points[2].Latitude, 1e-6)
}

func TestExtractMalformedInput(t *testing.T) {
	_, err := Extract(strings.NewReader("this is not gpx <trk"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedGPX))
}

func TestSampleIndices(t *testing.T) {
	points := make([]geo.Point, 10)
	for i := range points {
		points[i] = geo.Point{Latitude: float64(i), Longitude: float64(i)}
	}

	tests := []struct {
		interval int
		want     []float64
	}{
		{1, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}},
		{3, []float64{0, 3, 6, 9}},
		{5, []float64{0, 5}},
		{10, []float64{0}},
		{400, []float64{0}},
	}

	for _, tt := range tests {
		sampled, err := Sample(points, tt.interval)
		require.NoError(t, err)
		require.Len(t, sampled, len(tt.want), "interval %d", tt.interval)
		for i, lat := range tt.want {
			assert.Equal(t, lat, sampled[i].Latitude)
		}
	}
}

func TestSampleCountMatchesCeil(t *testing.T) {
	for length := 1; length <= 25; length++ {
		points := make([]geo.Point, length)
		for interval := 1; interval <= 30; interval++ {
			sampled, err := Sample(points, interval)
			require.NoError(t, err)
			want := (length + interval - 1) / interval
			assert.Len(t, sampled, want, "length %d interval %d", length, interval)
		}
	}
}

func TestSampleInvalidInterval(t *testing.T) {
	points := []geo.Point{{Latitude: 1, Longitude: 1}}

	for _, interval := range []int{0, -1, -400} {
		_, err := Sample(points, interval)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidInterval))
	}
}

func TestSampleEmptyInput(t *testing.T) {
	sampled, err := Sample(nil, 5)
	require.NoError(t, err)
	assert.Empty(t, sampled)
}
