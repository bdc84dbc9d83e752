package overpass

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoadRef(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/interpreter", r.URL.Path)
		query := r.URL.Query().Get("data")
		assert.True(t, strings.Contains(query, `"name"="中央通り"`), "query was %s", query)

		_, _ = w.Write([]byte(`{"elements":[{"tags":{"highway":"primary"}},{"tags":{"ref":"123"}}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ref, err := client.RoadRef(context.Background(), "中央通り")
	require.NoError(t, err)
	assert.Equal(t, "123", ref)
}

func TestRoadRefNoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"elements":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ref, err := client.RoadRef(context.Background(), "Yasukuni Dori")
	require.NoError(t, err)
	assert.Empty(t, ref)
}

func TestRoadRefServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.RoadRef(context.Background(), "中央通り")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLookupFailed))
}
