// Package overpass queries OpenStreetMap way metadata by exact name tag.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

// ErrLookupFailed indicates a failed Overpass query.
var ErrLookupFailed = errors.New("overpass lookup failed")

const defaultBaseURL = "https://overpass-api.de"

// Client provides access to the Overpass API interpreter.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates an Overpass client. An empty baseURL selects the public
// interpreter.
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

// overpassResponse is the subset of the interpreter payload we consume.
type overpassResponse struct {
	Elements []struct {
		Tags map[string]string `json:"tags"`
	} `json:"elements"`
}

// RoadRef returns the ref tag of the first way tagged with exactly the
// given name that carries one, or "" when no matching way has a ref.
func (c *Client) RoadRef(ctx context.Context, roadName string) (string, error) {
	query := fmt.Sprintf(`[out:json];way["name"=%q];out tags;`, roadName)

	params := url.Values{}
	params.Set("data", query)
	requestURL := fmt.Sprintf("%s/api/interpreter?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to create overpass request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrapf(ErrLookupFailed, "request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Wrapf(ErrLookupFailed, "status %d from %s", resp.StatusCode, c.baseURL)
	}

	var response overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", errors.Wrapf(ErrLookupFailed, "failed to decode response: %v", err)
	}

	for _, element := range response.Elements {
		if ref := element.Tags["ref"]; ref != "" {
			return ref, nil
		}
	}
	return "", nil
}
