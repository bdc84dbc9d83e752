// Package jartic fetches current traffic-restriction records from the
// JARTIC simple-map feed, sharded by prefecture.
package jartic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
)

// ErrFeedUnavailable indicates a non-success response from the feed.
var ErrFeedUnavailable = errors.New("traffic feed unavailable")

const defaultBaseURL = "https://www.jartic.or.jp"

// The feed rejects requests without a browser-like User-Agent.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// regionPrefix strips ISO-3166-2 style country prefixes ("JP-13" -> "13").
var regionPrefix = regexp.MustCompile(`^[A-Z]{2}-`)

// Client provides access to the JARTIC traffic restriction feed.
type Client struct {
	httpClient *http.Client
	baseURL    string
	now        func() time.Time
}

// NewClient creates a traffic feed client. An empty baseURL selects the
// live JARTIC endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		now:     time.Now,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// FeatureCollection is the restriction payload for one region.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is one restriction record from the feed.
type Feature struct {
	Type       string            `json:"type"`
	Geometry   *geojson.Geometry `json:"geometry"`
	Properties Properties        `json:"properties"`
}

// Properties decodes the feed's short-code property schema into named
// fields. RestrictionDescription is a pointer because the feed emits null
// for records that have no actionable description.
type Properties struct {
	WorkType               string      `json:"c"`
	Direction              string      `json:"d"`
	LocationDescription    string      `json:"i"`
	Span                   [][]float64 `json:"p"`
	RouteName              string      `json:"r"`
	RestrictionDescription *string     `json:"rd"`
}

// DroppedFields lists feed short codes intentionally not decoded: lane
// metadata and internal identifiers with no downstream consumer.
var DroppedFields = []string{"cs", "l", "lo", "pd", "rn", "j"}

// targetResponse carries the current feed generation identifier.
type targetResponse struct {
	Target string `json:"target"`
}

// RoadStatus fetches current restriction records for an administrative
// region. The fetch is two-step: resolve the live generation target, then
// fetch the feature payload addressed by that target and the region code.
func (c *Client) RoadStatus(ctx context.Context, regionCode string) (*FeatureCollection, error) {
	code := regionPrefix.ReplaceAllString(regionCode, "")

	target, err := c.currentTarget(ctx)
	if err != nil {
		return nil, err
	}

	requestURL := fmt.Sprintf("%s/d/traffic_info/r1/%s/d/301/R%s.json", c.baseURL, target, code)

	var collection FeatureCollection
	if err := c.getJSON(ctx, requestURL, &collection); err != nil {
		return nil, errors.WithMessagef(err, "region %s", regionCode)
	}
	return &collection, nil
}

// currentTarget resolves the live generation identifier. The timestamp
// query parameter defeats intermediary caching, matching the feed's own
// web client.
func (c *Client) currentTarget(ctx context.Context) (string, error) {
	requestURL := fmt.Sprintf("%s/d/traffic_info/r1/target.json?_=%s",
		c.baseURL, c.now().Format("20060102150405"))

	var response targetResponse
	if err := c.getJSON(ctx, requestURL, &response); err != nil {
		return "", err
	}
	if response.Target == "" {
		return "", errors.Wrap(ErrFeedUnavailable, "empty generation target")
	}
	return response.Target, nil
}

func (c *Client) getJSON(ctx context.Context, requestURL string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create feed request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(ErrFeedUnavailable, "request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Wrapf(ErrFeedUnavailable, "status %d from %s", resp.StatusCode, requestURL)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return errors.Wrapf(ErrFeedUnavailable, "failed to decode response: %v", err)
	}
	return nil
}
