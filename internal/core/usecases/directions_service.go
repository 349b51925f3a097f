package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/samirrijal/walkies/internal/core/domain"
	"github.com/samirrijal/walkies/internal/core/ports"
	"github.com/samirrijal/walkies/internal/pkg/metrics"
)

const directionsCacheTTL = 10 * 60

// CachedDirections wraps a DirectionsProvider with a read-through cache.
// Failures are never cached.
type CachedDirections struct {
	provider ports.DirectionsProvider
	cache    ports.CacheService
}

// NewCachedDirections creates a CachedDirections.
func NewCachedDirections(provider ports.DirectionsProvider, cache ports.CacheService) *CachedDirections {
	return &CachedDirections{provider: provider, cache: cache}
}

// Route returns the route from cache or the underlying provider.
func (d *CachedDirections) Route(ctx context.Context, mode domain.TravelMode, from, to domain.GeoPoint) (*domain.RouteData, error) {
	// ~1 m precision
	cacheKey := fmt.Sprintf("directions:%s:%.5f:%.5f:%.5f:%.5f", mode, from.Lat, from.Lng, to.Lat, to.Lng)
	if d.cache != nil {
		if data, err := d.cache.Get(ctx, cacheKey); err == nil {
			var rd domain.RouteData
			if err := json.Unmarshal(data, &rd); err == nil {
				metrics.CacheHits.WithLabelValues("directions").Inc()
				return &rd, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("directions").Inc()
	}

	rd, err := d.provider.Route(ctx, mode, from, to)
	if err != nil {
		return nil, err
	}

	if d.cache != nil {
		if data, err := json.Marshal(rd); err == nil {
			_ = d.cache.Set(ctx, cacheKey, data, directionsCacheTTL)
		}
	}
	return rd, nil
}
