package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/collision-explorer/internal/domain"
	"github.com/couchcryptid/collision-explorer/internal/observability"
)

const defaultBaseURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"

// Client implements domain.Geocoder using the Mapbox Geocoding API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Mapbox geocoding client.
func NewClient(token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: defaultBaseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// ReverseGeocode converts a crash coordinate to neighborhood and address details.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	// Mapbox uses lon,lat order.
	coord := fmt.Sprintf("%.6f,%.6f", lon, lat)
	u := fmt.Sprintf("%s/%s.json", c.baseURL, coord)
	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
		"types":        {"address,neighborhood,locality"},
	}

	start := time.Now()
	result, err := c.doRequest(ctx, u+"?"+params.Encode())
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
	case result.FormattedAddress == "":
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
	default:
		c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	}
	return result, err
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.GeocodingResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("reverse geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.GeocodingResult{}, fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode, body)
	}

	var mapboxResp response
	if err := json.NewDecoder(resp.Body).Decode(&mapboxResp); err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("decode response: %w", err)
	}

	if len(mapboxResp.Features) == 0 {
		c.logger.Debug("mapbox returned no features", "url_path", req.URL.Path)
		return domain.GeocodingResult{}, nil
	}

	f := mapboxResp.Features[0]
	return domain.GeocodingResult{
		FormattedAddress: f.PlaceName,
		PlaceName:        f.Text,
		Confidence:       f.Relevance,
	}, nil
}

// Mapbox API response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	PlaceName string  `json:"place_name"`
	Text      string  `json:"text"`
	Relevance float64 `json:"relevance"`
}
