package nominatim

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReverse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "18", r.URL.Query().Get("zoom"))
		assert.Equal(t, "1", r.URL.Query().Get("addressdetails"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"address":{"road":"中央通り","ISO3166-2-lvl4":"JP-13"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	addr, err := client.Reverse(context.Background(), 35.68, 139.76)
	require.NoError(t, err)

	assert.Equal(t, "中央通り", addr.Road)
	assert.Equal(t, "JP-13", addr.RegionCode)
}

func TestReverseMissingFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"address":{}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	addr, err := client.Reverse(context.Background(), 35.68, 139.76)
	require.NoError(t, err)

	assert.Empty(t, addr.Road)
	assert.Empty(t, addr.RegionCode)
}

func TestReverseServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Reverse(context.Background(), 35.68, 139.76)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLookupFailed))
}
