package reporting

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/folioapp/folio/internal/common"
	"github.com/folioapp/folio/internal/interfaces"
	"github.com/folioapp/folio/internal/models"
	"github.com/folioapp/folio/internal/services/pricehistory"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// mockStorage serves fixed holdings, transactions and explicit prices.
type mockStorage struct {
	holdings map[string]models.Holding
	txs      []models.Transaction
	explicit []models.PricePoint
}

func (m *mockStorage) PriceStorage() interfaces.PriceStorage             { return (*mockPrices)(m) }
func (m *mockStorage) TransactionStorage() interfaces.TransactionStorage { return (*mockTxs)(m) }
func (m *mockStorage) InstrumentStorage() interfaces.InstrumentStorage   { return nil }
func (m *mockStorage) KeyValueStorage() interfaces.KeyValueStorage       { return nil }
func (m *mockStorage) Close() error                                      { return nil }

type mockPrices mockStorage

func (m *mockPrices) Upsert(_ context.Context, _ *models.PricePoint) (bool, error) {
	return false, nil
}
func (m *mockPrices) GetPoints(_ context.Context, isin string) ([]models.PricePoint, error) {
	var points []models.PricePoint
	for _, p := range m.explicit {
		if p.ISIN == isin {
			points = append(points, p)
		}
	}
	return points, nil
}
func (m *mockPrices) DeletePoints(_ context.Context, _ string, _ []string) (int, error) {
	return 0, nil
}

type mockTxs mockStorage

func (m *mockTxs) Append(_ context.Context, _ *models.Transaction) (string, error) {
	return "", nil
}
func (m *mockTxs) ListByISIN(_ context.Context, isin string) ([]models.Transaction, error) {
	var txs []models.Transaction
	for _, tx := range m.txs {
		if tx.ISIN == isin {
			txs = append(txs, tx)
		}
	}
	return txs, nil
}
func (m *mockTxs) ListByPortfolio(_ context.Context, portfolioID string) ([]models.Transaction, error) {
	var txs []models.Transaction
	for _, tx := range m.txs {
		if tx.PortfolioID == portfolioID {
			txs = append(txs, tx)
		}
	}
	return txs, nil
}
func (m *mockTxs) Holdings(_ context.Context, _ string) (map[string]models.Holding, error) {
	return m.holdings, nil
}
func (m *mockTxs) ImpliedPrices(_ context.Context, isin string) ([]models.PricePoint, error) {
	var points []models.PricePoint
	for _, tx := range m.txs {
		if tx.ISIN == isin && tx.Price > 0 {
			points = append(points, models.PricePoint{
				ISIN:   tx.ISIN,
				Date:   common.Day(tx.Date),
				Price:  tx.Price,
				Source: models.PriceSourceTransaction,
			})
		}
	}
	return points, nil
}
func (m *mockTxs) ProtectedDates(_ context.Context, _ string) (map[string]struct{}, error) {
	return nil, nil
}

func newTestService(storage *mockStorage) *Service {
	logger := common.NewSilentLogger()
	return NewService(storage, pricehistory.NewStore(storage, logger), common.ReturnsConfig{
		SimpleCutoffDays: 30,
		AnnualCutoffDays: 365,
	}, logger)
}

func TestReport_AnnualReturnOnYearOldPosition(t *testing.T) {
	buyDate := date(2024, 1, 1)
	storage := &mockStorage{
		holdings: map[string]models.Holding{
			"ISIN1": {ISIN: "ISIN1", Units: 100, AvgCost: 10.0},
		},
		txs: []models.Transaction{
			{ID: "t1", PortfolioID: "main", ISIN: "ISIN1", Type: models.TxBuy,
				Units: 100, Price: 10.0, Date: buyDate},
		},
		explicit: []models.PricePoint{
			{ISIN: "ISIN1", Date: date(2024, 12, 20), Price: 11.0, Source: models.PriceSourceManual},
		},
	}
	svc := newTestService(storage)

	report, err := svc.Report(context.Background(), "main", date(2024, 12, 31))
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if len(report.Holdings) != 1 {
		t.Fatalf("expected 1 holding, got %d", len(report.Holdings))
	}

	h := report.Holdings[0]
	if math.Abs(h.MarketValue-1100.0) > 1e-9 {
		t.Errorf("expected market value 1100, got %f", h.MarketValue)
	}
	if h.ReturnTier != "ANNUAL" {
		t.Errorf("expected ANNUAL tier after a year, got %s", h.ReturnTier)
	}
	if math.Abs(h.ReturnPct-10.0) > 0.5 {
		t.Errorf("expected return near 10%%, got %f", h.ReturnPct)
	}
	if math.Abs(report.TotalValue-1100.0) > 1e-9 || math.Abs(report.TotalCost-1000.0) > 1e-9 {
		t.Errorf("expected totals 1100 / 1000, got %f / %f", report.TotalValue, report.TotalCost)
	}
}

func TestReport_GrowthSeriesIsDense(t *testing.T) {
	buyDate := date(2025, 1, 1)
	storage := &mockStorage{
		holdings: map[string]models.Holding{
			"ISIN1": {ISIN: "ISIN1", Units: 100, AvgCost: 10.0},
		},
		txs: []models.Transaction{
			{ID: "t1", PortfolioID: "main", ISIN: "ISIN1", Type: models.TxBuy,
				Units: 100, Price: 10.0, Date: buyDate},
		},
		explicit: []models.PricePoint{
			{ISIN: "ISIN1", Date: date(2025, 1, 5), Price: 12.0, Source: models.PriceSourceManual},
		},
	}
	svc := newTestService(storage)

	report, err := svc.Report(context.Background(), "main", date(2025, 1, 10))
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}

	if len(report.Growth) != 10 {
		t.Fatalf("expected 10 growth points, got %d", len(report.Growth))
	}
	byDate := make(map[string]float64, len(report.Growth))
	for _, g := range report.Growth {
		byDate[g.Date] = g.Value
	}

	// Implied price from the buy grounds the first days; the explicit quote
	// takes over on the 5th and carries forward.
	if byDate["2025-01-01"] != 1000.0 {
		t.Errorf("expected 1000 on the buy date, got %f", byDate["2025-01-01"])
	}
	if byDate["2025-01-04"] != 1000.0 {
		t.Errorf("expected forward-filled 1000 on the 4th, got %f", byDate["2025-01-04"])
	}
	if byDate["2025-01-05"] != 1200.0 || byDate["2025-01-10"] != 1200.0 {
		t.Errorf("expected 1200 from the 5th on, got %f / %f",
			byDate["2025-01-05"], byDate["2025-01-10"])
	}
}

func TestReport_HoldingWithoutPricesFallsBackToCost(t *testing.T) {
	storage := &mockStorage{
		holdings: map[string]models.Holding{
			"ISIN1": {ISIN: "ISIN1", Units: 10, AvgCost: 7.5},
		},
	}
	svc := newTestService(storage)

	report, err := svc.Report(context.Background(), "main", date(2025, 1, 10))
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if len(report.Holdings) != 1 {
		t.Fatalf("expected 1 holding, got %d", len(report.Holdings))
	}
	h := report.Holdings[0]
	if h.LatestPrice != nil {
		t.Errorf("expected no latest price, got %+v", h.LatestPrice)
	}
	if math.Abs(h.MarketValue-75.0) > 1e-9 {
		t.Errorf("expected cost-basis value 75, got %f", h.MarketValue)
	}
	if h.ReturnTier != "NONE" {
		t.Errorf("expected NONE tier with no transactions, got %s", h.ReturnTier)
	}
}

func TestReport_ClosedPositionsAreSkipped(t *testing.T) {
	storage := &mockStorage{
		holdings: map[string]models.Holding{
			"ISIN1": {ISIN: "ISIN1", Units: 0, AvgCost: 10.0},
		},
	}
	svc := newTestService(storage)

	report, err := svc.Report(context.Background(), "main", date(2025, 1, 10))
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if len(report.Holdings) != 0 {
		t.Errorf("expected closed positions skipped, got %d holdings", len(report.Holdings))
	}
}
