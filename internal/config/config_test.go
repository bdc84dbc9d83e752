package config

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MAPBOX_STYLE", "streets")
	t.Setenv("MAPBOX_SECRET", "pk.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 400, cfg.SamplingInterval)
	assert.Equal(t, 50.0, cfg.SnapThresholdMeters)
	assert.Equal(t, "streets", cfg.MapStyle)
	assert.Equal(t, "pk.test", cfg.MapAccessToken)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MAPBOX_STYLE", "streets")
	t.Setenv("MAPBOX_SECRET", "pk.test")
	t.Setenv("SAMPLING_INTERVAL", "200")
	t.Setenv("SNAP_THRESHOLD_METERS", "60")
	t.Setenv("TRAFFIC_BASE_URL", "http://localhost:9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 200, cfg.SamplingInterval)
	assert.Equal(t, 60.0, cfg.SnapThresholdMeters)
	assert.Equal(t, "http://localhost:9000", cfg.TrafficBaseURL)
}

func TestValidateMissingMapSettings(t *testing.T) {
	cfg := &Config{SamplingInterval: 400, SnapThresholdMeters: 50}
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
	assert.Contains(t, err.Error(), "MAPBOX_STYLE")
	assert.Contains(t, err.Error(), "MAPBOX_SECRET")
}

func TestValidateBadInterval(t *testing.T) {
	cfg := &Config{
		MapStyle:            "streets",
		MapAccessToken:      "pk.test",
		SamplingInterval:    -1,
		SnapThresholdMeters: 50,
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
}
