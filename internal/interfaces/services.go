package interfaces

import (
	"context"
	"time"

	"github.com/folioapp/folio/internal/models"
)

// PriceHistoryService serves merged per-asset price series
type PriceHistoryService interface {
	// Record stores an explicit price point. Non-positive prices are a
	// logged no-op, not an error.
	Record(ctx context.Context, isin string, price float64, date time.Time, source string) error

	// History returns the merged series (explicit + transaction-implied),
	// ascending by date, one point per day.
	History(ctx context.Context, isin string) (models.PriceSeries, error)

	// Latest returns the newest point, or nil when the asset has no prices.
	Latest(ctx context.Context, isin string) (*models.PricePoint, error)

	// AsOf returns the newest point strictly before date, or nil.
	AsOf(ctx context.Context, isin string, date time.Time) (*models.PricePoint, error)
}

// IngestService reconciles snapshot rows against current holdings and
// applies the resulting actions
type IngestService interface {
	// Reconcile computes delta actions for the rows. Pure with respect to
	// state: nothing is written.
	Reconcile(ctx context.Context, portfolioID string, rows []models.SnapshotRow) ([]models.DeltaAction, error)

	// Apply persists the non-error actions and returns run counts.
	Apply(ctx context.Context, portfolioID string, actions []models.DeltaAction) (*models.IngestResult, error)
}

// CompactionService thins stored price history under the retention policy
type CompactionService interface {
	// Run compacts a single asset's history. Dry-run reports what would be
	// deleted without touching the store.
	Run(ctx context.Context, isin string, dryRun bool) (*models.CompactionResult, error)

	// RunAll compacts every asset with recorded prices.
	RunAll(ctx context.Context, dryRun bool) ([]models.CompactionResult, error)
}

// ReportingService produces portfolio valuation reports
type ReportingService interface {
	// Report values a portfolio as of a date, with per-holding tiered
	// returns and an optional dense growth series for charting.
	Report(ctx context.Context, portfolioID string, asOf time.Time) (*models.PortfolioReport, error)
}
