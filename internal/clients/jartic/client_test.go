package jartic

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeature = `{
	"type": "Feature",
	"geometry": {"type": "LineString", "coordinates": [[139.0, 35.0], [139.01, 35.01]]},
	"properties": {
		"c": "工事",
		"d": "上下",
		"i": "交差点付近",
		"p": [[139.0, 35.0], [139.01, 35.01]],
		"r": "国道123号線",
		"rd": "通行止",
		"cs": "ignored", "l": "ignored", "lo": "ignored",
		"pd": "ignored", "rn": "ignored", "j": "ignored"
	}
}`

func newFeedServer(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/d/traffic_info/r1/target.json":
			assert.NotEmpty(t, r.URL.Query().Get("_"), "cache-busting query expected")
			_, _ = w.Write([]byte(`{"target":"202501010000"}`))
		case "/d/traffic_info/r1/202501010000/d/301/R13.json":
			fmt.Fprintf(w, `{"type":"FeatureCollection","features":[%s]}`, sampleFeature)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestRoadStatusStripsRegionPrefix(t *testing.T) {
	server := newFeedServer(t)
	defer server.Close()

	client := NewClient(server.URL)
	collection, err := client.RoadStatus(context.Background(), "JP-13")
	require.NoError(t, err)
	require.Len(t, collection.Features, 1)

	props := collection.Features[0].Properties
	assert.Equal(t, "工事", props.WorkType)
	assert.Equal(t, "上下", props.Direction)
	assert.Equal(t, "交差点付近", props.LocationDescription)
	assert.Equal(t, "国道123号線", props.RouteName)
	require.NotNil(t, props.RestrictionDescription)
	assert.Equal(t, "通行止", *props.RestrictionDescription)
	require.Len(t, props.Span, 2)
	assert.Equal(t, []float64{139.0, 35.0}, props.Span[0])

	require.NotNil(t, collection.Features[0].Geometry)
	assert.Equal(t, "LineString", collection.Features[0].Geometry.Type)
}

func TestRoadStatusNullDescription(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/d/traffic_info/r1/target.json":
			_, _ = w.Write([]byte(`{"target":"202501010000"}`))
		default:
			_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"r":"124号","rd":null}}]}`))
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)
	collection, err := client.RoadStatus(context.Background(), "21")
	require.NoError(t, err)
	require.Len(t, collection.Features, 1)
	assert.Nil(t, collection.Features[0].Properties.RestrictionDescription)
}

func TestRoadStatusFeedDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.RoadStatus(context.Background(), "JP-13")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFeedUnavailable))
}

func TestRoadStatusEmptyTarget(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.RoadStatus(context.Background(), "JP-13")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFeedUnavailable))
}
