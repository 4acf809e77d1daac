package openmeteo

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/couchcryptid/crop-planner/internal/domain"
	"github.com/couchcryptid/crop-planner/internal/observability"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CachedProvider wraps a ForecastProvider with an in-memory LRU cache whose
// entries expire after a TTL.
type CachedProvider struct {
	inner   domain.ForecastProvider
	cache   *expirable.LRU[string, []domain.DailyObservation]
	metrics *observability.Metrics
}

// NewCachedProvider creates a cache decorator around a forecast provider.
// metrics may be nil.
func NewCachedProvider(inner domain.ForecastProvider, maxEntries int, ttl time.Duration, metrics *observability.Metrics) *CachedProvider {
	return &CachedProvider{
		inner:   inner,
		cache:   expirable.NewLRU[string, []domain.DailyObservation](maxEntries, nil, ttl),
		metrics: metrics,
	}
}

// Name reports the wrapped provider's name.
func (c *CachedProvider) Name() string { return c.inner.Name() }

func (c *CachedProvider) DailyForecast(ctx context.Context, q domain.ForecastQuery) ([]domain.DailyObservation, error) {
	key := fmt.Sprintf("%s|%.3f,%.3f|%s|%d", c.inner.Name(), q.Lat, q.Lng, q.From, q.Days)
	if obs, ok := c.cache.Get(key); ok {
		c.record("hit")
		return slices.Clone(obs), nil
	}
	c.record("miss")

	obs, err := c.inner.DailyForecast(ctx, q)
	if err != nil {
		return nil, err
	}
	// Only cache non-empty results so a forecast that is not yet published can be retried.
	if len(obs) > 0 {
		c.cache.Add(key, slices.Clone(obs))
	}
	return obs, nil
}

func (c *CachedProvider) record(result string) {
	if c.metrics != nil {
		c.metrics.ForecastCache.WithLabelValues(result).Inc()
	}
}
