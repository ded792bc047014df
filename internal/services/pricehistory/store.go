// Package pricehistory merges explicit price quotes with prices implied by
// transactions into a single per-asset daily series, and expands sparse
// series into dense forward-filled maps for charting.
package pricehistory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/folioapp/folio/internal/common"
	"github.com/folioapp/folio/internal/interfaces"
	"github.com/folioapp/folio/internal/models"
)

// Store serves merged price history for assets. Explicit points live in the
// price store; implied points are derived from the transaction log on read.
type Store struct {
	storage interfaces.StorageManager
	logger  *common.Logger
}

// NewStore creates a price history store over the given storage manager.
func NewStore(storage interfaces.StorageManager, logger *common.Logger) *Store {
	return &Store{
		storage: storage,
		logger:  logger,
	}
}

// Record stores an explicit price point, idempotent by (isin, date, source).
// Non-positive prices are rejected as a logged no-op: a zero or negative
// mark would poison every downstream valuation that forward-fills from it.
func (s *Store) Record(ctx context.Context, isin string, price float64, date time.Time, source string) error {
	if price <= 0 {
		s.logger.Warn().
			Str("isin", isin).
			Float64("price", price).
			Str("source", source).
			Msg("Ignoring non-positive price")
		return nil
	}

	point := &models.PricePoint{
		ISIN:   isin,
		Date:   common.Day(date),
		Price:  price,
		Source: source,
	}

	created, err := s.storage.PriceStorage().Upsert(ctx, point)
	if err != nil {
		return fmt.Errorf("failed to record price for %s: %w", isin, err)
	}

	s.logger.Debug().
		Str("isin", isin).
		Str("date", common.DateKey(point.Date)).
		Float64("price", price).
		Bool("created", created).
		Msg("Price recorded")

	return nil
}

// History returns the merged series for an asset: explicit points plus one
// synthetic point per priced transaction, ascending by date, one point per
// day. When an explicit quote and a transaction-implied price land on the
// same date, the explicit quote wins — a recorded quote is a deliberate
// observation, an implied price is a side effect.
func (s *Store) History(ctx context.Context, isin string) (models.PriceSeries, error) {
	explicit, err := s.storage.PriceStorage().GetPoints(ctx, isin)
	if err != nil {
		return nil, fmt.Errorf("failed to load explicit prices for %s: %w", isin, err)
	}

	implied, err := s.storage.TransactionStorage().ImpliedPrices(ctx, isin)
	if err != nil {
		return nil, fmt.Errorf("failed to load implied prices for %s: %w", isin, err)
	}

	return mergeSeries(explicit, implied), nil
}

// Latest returns the newest merged point for an asset, or nil when the asset
// has no price history at all.
func (s *Store) Latest(ctx context.Context, isin string) (*models.PricePoint, error) {
	series, err := s.History(ctx, isin)
	if err != nil {
		return nil, err
	}
	return series.Latest(), nil
}

// AsOf returns the newest merged point strictly before date, or nil when no
// earlier observation exists.
func (s *Store) AsOf(ctx context.Context, isin string, date time.Time) (*models.PricePoint, error) {
	series, err := s.History(ctx, isin)
	if err != nil {
		return nil, err
	}
	return series.AsOf(date), nil
}

// mergeSeries combines explicit and implied points into one ascending series
// with a single point per calendar day. Implied points are placed first so an
// explicit point on the same day overwrites them.
func mergeSeries(explicit, implied []models.PricePoint) models.PriceSeries {
	byDay := make(map[string]models.PricePoint, len(explicit)+len(implied))

	for _, p := range implied {
		p.Date = common.Day(p.Date)
		byDay[common.DateKey(p.Date)] = p
	}
	for _, p := range explicit {
		p.Date = common.Day(p.Date)
		byDay[common.DateKey(p.Date)] = p
	}

	series := make(models.PriceSeries, 0, len(byDay))
	for _, p := range byDay {
		series = append(series, p)
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})

	return series
}

// Ensure Store implements PriceHistoryService
var _ interfaces.PriceHistoryService = (*Store)(nil)
