package google

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Josconicme/trial-insight/internal/domain"
	"github.com/Josconicme/trial-insight/internal/metrics"
)

// DefaultCacheSize bounds the cache when the configured size is not positive.
const DefaultCacheSize = 10000

// CachedGeocoder is a domain.Geocoder decorator holding resolved addresses in
// a bounded LRU. Misses and failures are not cached, so they are retried on
// the next lookup.
type CachedGeocoder struct {
	inner domain.Geocoder
	cache *lru.Cache[string, domain.Coordinates]
}

// NewCachedGeocoder wraps inner with an LRU of the given capacity.
func NewCachedGeocoder(inner domain.Geocoder, size int) (*CachedGeocoder, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, domain.Coordinates](size)
	if err != nil {
		return nil, err
	}
	return &CachedGeocoder{inner: inner, cache: c}, nil
}

// Geocode implements domain.Geocoder.
func (c *CachedGeocoder) Geocode(ctx context.Context, address string) (domain.Coordinates, bool, error) {
	if coords, ok := c.cache.Get(address); ok {
		metrics.GeocodeCacheTotal.WithLabelValues("hit").Inc()
		return coords, true, nil
	}
	metrics.GeocodeCacheTotal.WithLabelValues("miss").Inc()

	coords, ok, err := c.inner.Geocode(ctx, address)
	if err != nil || !ok {
		return coords, ok, err
	}
	c.cache.Add(address, coords)
	return coords, true, nil
}

// Len returns the number of cached addresses.
func (c *CachedGeocoder) Len() int { return c.cache.Len() }
