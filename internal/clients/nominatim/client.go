// Package nominatim provides a reverse-geocoding client.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

// ErrLookupFailed indicates a failed reverse-geocode request.
var ErrLookupFailed = errors.New("reverse geocode lookup failed")

const defaultBaseURL = "https://nominatim.openstreetmap.org"

// Nominatim's usage policy requires an identifying User-Agent.
const userAgent = "gpxstatus/1.0 (+https://github.com/gpxstatus/server)"

// Client provides access to the Nominatim reverse geocoding API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a reverse geocoding client. An empty baseURL selects the
// public Nominatim instance.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Address is the resolved metadata for a coordinate. Road and RegionCode
// are empty when the geocoder has no value for them.
type Address struct {
	Road       string `json:"road"`
	RegionCode string `json:"ISO3166-2-lvl4"`
}

// reverseResponse is the subset of the Nominatim payload we consume.
type reverseResponse struct {
	Address Address `json:"address"`
}

// Reverse resolves a coordinate to its address metadata.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (Address, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("lat", fmt.Sprintf("%v", lat))
	params.Set("lon", fmt.Sprintf("%v", lon))
	params.Set("zoom", "18")
	params.Set("addressdetails", "1")

	requestURL := fmt.Sprintf("%s/reverse?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return Address{}, errors.Wrap(err, "failed to create reverse geocode request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Address{}, errors.Wrapf(ErrLookupFailed, "request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Address{}, errors.Wrapf(ErrLookupFailed, "status %d from %s", resp.StatusCode, c.baseURL)
	}

	var response reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return Address{}, errors.Wrapf(ErrLookupFailed, "failed to decode response: %v", err)
	}

	return response.Address, nil
}
