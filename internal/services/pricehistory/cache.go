package pricehistory

import (
	"context"
	"sync"

	"github.com/folioapp/folio/internal/models"
)

// SeriesCache memoizes merged series for the scope of one request or batch
// run. It is created by the caller and passed explicitly — there is no
// process-wide price cache, so a long-lived process never serves stale
// merges after new prices land.
type SeriesCache struct {
	mu     sync.RWMutex
	series map[string]models.PriceSeries
}

// NewSeriesCache creates an empty request-scoped series cache.
func NewSeriesCache() *SeriesCache {
	return &SeriesCache{
		series: make(map[string]models.PriceSeries),
	}
}

// History returns the merged series for an ISIN, loading it through the
// store on first access and from memory afterwards.
func (c *SeriesCache) History(ctx context.Context, store *Store, isin string) (models.PriceSeries, error) {
	c.mu.RLock()
	cached, ok := c.series[isin]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	series, err := store.History(ctx, isin)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.series[isin] = series
	c.mu.Unlock()

	return series, nil
}

// Len returns the number of cached series.
func (c *SeriesCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.series)
}
