// Package config loads environment-sourced configuration. A local .env
// file is honored when present; process environment wins.
package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

// ErrInvalid indicates configuration that cannot start the pipeline.
var ErrInvalid = errors.New("invalid configuration")

// Config holds everything the pipeline and servers need at startup.
type Config struct {
	// SamplingInterval is the point-sampling stride. Default 400.
	SamplingInterval int
	// MapStyle is the Mapbox style identifier for the output figure.
	MapStyle string
	// MapAccessToken is the Mapbox access credential.
	MapAccessToken string
	// TelemetryToken is optional; when empty, telemetry is disabled.
	TelemetryToken string
	// SnapThresholdMeters is the closure snapping distance. Default 50.
	SnapThresholdMeters float64
	// Port is the HTTP listen port for cmd/server.
	Port string

	// Base URL overrides for the external services, used in tests and for
	// self-hosted mirrors. Empty selects the public endpoints.
	NominatimBaseURL string
	OverpassBaseURL  string
	TrafficBaseURL   string
}

// Load reads configuration from the environment (and .env, if present).
func Load() (*Config, error) {
	// Missing .env is fine; the process environment is the source of truth.
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load environment")
	}

	cfg := &Config{
		SamplingInterval:    400,
		SnapThresholdMeters: 50,
		Port:                "8080",
	}

	if k.Exists("sampling_interval") {
		cfg.SamplingInterval = k.Int("sampling_interval")
	}
	if k.Exists("snap_threshold_meters") {
		cfg.SnapThresholdMeters = k.Float64("snap_threshold_meters")
	}
	if v := k.String("port"); v != "" {
		cfg.Port = v
	}
	cfg.MapStyle = k.String("mapbox_style")
	cfg.MapAccessToken = k.String("mapbox_secret")
	cfg.TelemetryToken = k.String("telemetry_token")
	cfg.NominatimBaseURL = k.String("nominatim_base_url")
	cfg.OverpassBaseURL = k.String("overpass_base_url")
	cfg.TrafficBaseURL = k.String("traffic_base_url")

	return cfg, nil
}

// Validate checks the configuration before any network call is made.
func (c *Config) Validate() error {
	var missing []string
	if c.MapStyle == "" {
		missing = append(missing, "MAPBOX_STYLE")
	}
	if c.MapAccessToken == "" {
		missing = append(missing, "MAPBOX_SECRET")
	}
	if len(missing) > 0 {
		return errors.Wrapf(ErrInvalid, "missing required settings: %s", strings.Join(missing, ", "))
	}
	if c.SamplingInterval <= 0 {
		return errors.Wrapf(ErrInvalid, "sampling interval must be positive, got %d", c.SamplingInterval)
	}
	if c.SnapThresholdMeters <= 0 {
		return errors.Wrapf(ErrInvalid, "snap threshold must be positive, got %v", c.SnapThresholdMeters)
	}
	return nil
}
