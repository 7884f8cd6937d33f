package mapbox

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/couchcryptid/collision-explorer/internal/domain"
	"github.com/couchcryptid/collision-explorer/internal/observability"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache.
type CachedGeocoder struct {
	inner   domain.Geocoder
	cache   *lru.Cache[string, domain.GeocodingResult]
	metrics *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) (*CachedGeocoder, error) {
	cache, err := lru.New[string, domain.GeocodingResult](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("create geocode cache: %w", err)
	}
	return &CachedGeocoder{inner: inner, cache: cache, metrics: metrics}, nil
}

func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	key := cacheKey(lat, lon)
	if result, ok := c.cache.Get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return result, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	result, err := c.inner.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		return result, err
	}
	// Only cache non-empty results so transient "not found" responses can be retried.
	if result.FormattedAddress != "" {
		c.cache.Add(key, result)
	}
	return result, nil
}

// Len returns the number of cached entries.
func (c *CachedGeocoder) Len() int {
	return c.cache.Len()
}

func cacheKey(lat, lon float64) string {
	return fmt.Sprintf("rev:%.6f,%.6f", lat, lon)
}
