// Package reporting values portfolios: per-holding market value, tiered
// money-weighted returns and a dense daily growth series for charting.
package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/folioapp/folio/internal/common"
	"github.com/folioapp/folio/internal/interfaces"
	"github.com/folioapp/folio/internal/models"
	"github.com/folioapp/folio/internal/services/pricehistory"
	"github.com/folioapp/folio/internal/services/returns"
)

type Service struct {
	storage    interfaces.StorageManager
	prices     *pricehistory.Store
	thresholds returns.Thresholds
	logger     *common.Logger
}

func NewService(storage interfaces.StorageManager, prices *pricehistory.Store, cfg common.ReturnsConfig, logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	thresholds := returns.DefaultThresholds()
	if cfg.SimpleCutoffDays > 0 {
		thresholds.SimpleCutoffDays = cfg.SimpleCutoffDays
	}
	if cfg.AnnualCutoffDays > thresholds.SimpleCutoffDays {
		thresholds.AnnualCutoffDays = cfg.AnnualCutoffDays
	}
	return &Service{
		storage:    storage,
		prices:     prices,
		thresholds: thresholds,
		logger:     logger,
	}
}

// Report values a portfolio as of a date. Each holding's latest price sets
// its market value; its full transaction history drives the tiered return.
// A fresh series cache scopes price lookups to this one report.
func (s *Service) Report(ctx context.Context, portfolioID string, asOf time.Time) (*models.PortfolioReport, error) {
	holdings, err := s.storage.TransactionStorage().Holdings(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to load holdings for %s: %w", portfolioID, err)
	}

	cache := pricehistory.NewSeriesCache()
	report := &models.PortfolioReport{
		PortfolioID: portfolioID,
		AsOf:        common.Day(asOf),
	}

	isins := make([]string, 0, len(holdings))
	for isin := range holdings {
		isins = append(isins, isin)
	}
	sort.Strings(isins)

	for _, isin := range isins {
		holding := holdings[isin]
		if holding.Units <= 0 {
			continue
		}

		entry, err := s.holdingReport(ctx, cache, portfolioID, holding, report.AsOf)
		if err != nil {
			return nil, err
		}
		report.Holdings = append(report.Holdings, *entry)
		report.TotalValue += entry.MarketValue
		report.TotalCost += holding.Units * holding.AvgCost
	}

	growth, err := s.growthSeries(ctx, cache, portfolioID, report.AsOf)
	if err != nil {
		return nil, err
	}
	report.Growth = growth
	report.GeneratedAt = time.Now().UTC()

	s.logger.Debug().
		Str("portfolio", portfolioID).
		Int("holdings", len(report.Holdings)).
		Str("total_value", common.FormatMoney(report.TotalValue)).
		Msg("Portfolio report generated")

	return report, nil
}

func (s *Service) holdingReport(ctx context.Context, cache *pricehistory.SeriesCache, portfolioID string, holding models.Holding, asOf time.Time) (*models.HoldingReport, error) {
	entry := &models.HoldingReport{
		Holding:    holding,
		ReturnTier: string(returns.TierNone),
	}

	series, err := cache.History(ctx, s.prices, holding.ISIN)
	if err != nil {
		return nil, fmt.Errorf("failed to load price history for %s: %w", holding.ISIN, err)
	}
	if latest := series.Latest(); latest != nil {
		entry.LatestPrice = latest
		entry.MarketValue = holding.Units * latest.Price
	} else {
		// No price on record: fall back to cost so the total stays sane.
		entry.MarketValue = holding.Units * holding.AvgCost
	}

	txs, err := s.storage.TransactionStorage().ListByISIN(ctx, holding.ISIN)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions for %s: %w", holding.ISIN, err)
	}
	portfolioTxs := txs[:0:0]
	for _, tx := range txs {
		if tx.PortfolioID == portfolioID {
			portfolioTxs = append(portfolioTxs, tx)
		}
	}

	flows := models.CashflowsFromTransactions(portfolioTxs)
	pct, tier := returns.Classify(flows, entry.MarketValue, s.thresholds, asOf)
	entry.ReturnPct = pct
	entry.ReturnTier = string(tier)

	return entry, nil
}

// growthSeries charts total portfolio value per day from the first
// transaction to asOf. Unit counts replay from the transaction log; prices
// come from the dense forward-filled series, so days before an asset's
// first quote contribute nothing.
func (s *Service) growthSeries(ctx context.Context, cache *pricehistory.SeriesCache, portfolioID string, asOf time.Time) ([]models.GrowthPoint, error) {
	txs, err := s.storage.TransactionStorage().ListByPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions for %s: %w", portfolioID, err)
	}
	if len(txs) == 0 {
		return nil, nil
	}

	from := common.Day(txs[0].Date)
	to := common.Day(asOf)
	if to.Before(from) {
		return nil, nil
	}

	dense := make(map[string]map[string]float64)
	seen := make(map[string]bool)
	for _, tx := range txs {
		if seen[tx.ISIN] {
			continue
		}
		seen[tx.ISIN] = true
		series, err := cache.History(ctx, s.prices, tx.ISIN)
		if err != nil {
			return nil, fmt.Errorf("failed to load price history for %s: %w", tx.ISIN, err)
		}
		dense[tx.ISIN] = pricehistory.Dense(series, from, to)
	}

	units := make(map[string]float64)
	next := 0
	var growth []models.GrowthPoint

	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		for next < len(txs) && !common.Day(txs[next].Date).After(day) {
			tx := txs[next]
			if tx.IsBuy() {
				units[tx.ISIN] += tx.Units
			} else if tx.IsSell() {
				units[tx.ISIN] -= tx.Units
			}
			next++
		}

		key := common.DateKey(day)
		total := 0.0
		for isin, count := range units {
			if count <= 0 {
				continue
			}
			total += count * dense[isin][key]
		}
		growth = append(growth, models.GrowthPoint{Date: key, Value: total})
	}

	return growth, nil
}

var _ interfaces.ReportingService = (*Service)(nil)
