package reconcile

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/folioapp/folio/internal/common"
	"github.com/folioapp/folio/internal/interfaces"
	"github.com/folioapp/folio/internal/models"
)

// mockStorage records writes so tests can assert what Apply persisted.
type mockStorage struct {
	holdings    map[string]models.Holding
	appended    []models.Transaction
	instruments map[string]models.Instrument
	kv          map[string]string
}

func newMockStorage(holdings map[string]models.Holding) *mockStorage {
	return &mockStorage{
		holdings:    holdings,
		instruments: make(map[string]models.Instrument),
		kv:          make(map[string]string),
	}
}

func (m *mockStorage) PriceStorage() interfaces.PriceStorage             { return nil }
func (m *mockStorage) TransactionStorage() interfaces.TransactionStorage { return (*mockTxs)(m) }
func (m *mockStorage) InstrumentStorage() interfaces.InstrumentStorage   { return (*mockInstruments)(m) }
func (m *mockStorage) KeyValueStorage() interfaces.KeyValueStorage       { return (*mockKV)(m) }
func (m *mockStorage) Close() error                                      { return nil }

type mockKV mockStorage

func (m *mockKV) Get(_ context.Context, key string) (string, error) {
	return m.kv[key], nil
}
func (m *mockKV) Set(_ context.Context, key, value string) error {
	m.kv[key] = value
	return nil
}
func (m *mockKV) Delete(_ context.Context, key string) error {
	delete(m.kv, key)
	return nil
}
func (m *mockKV) GetAll(_ context.Context) (map[string]string, error) {
	return m.kv, nil
}

type mockTxs mockStorage

func (m *mockTxs) Append(_ context.Context, tx *models.Transaction) (string, error) {
	m.appended = append(m.appended, *tx)
	return tx.ID, nil
}
func (m *mockTxs) ListByISIN(_ context.Context, _ string) ([]models.Transaction, error) {
	return nil, nil
}
func (m *mockTxs) ListByPortfolio(_ context.Context, _ string) ([]models.Transaction, error) {
	return nil, nil
}
func (m *mockTxs) Holdings(_ context.Context, _ string) (map[string]models.Holding, error) {
	return m.holdings, nil
}
func (m *mockTxs) ImpliedPrices(_ context.Context, _ string) ([]models.PricePoint, error) {
	return nil, nil
}
func (m *mockTxs) ProtectedDates(_ context.Context, _ string) (map[string]struct{}, error) {
	return nil, nil
}

type mockInstruments mockStorage

func (m *mockInstruments) Get(_ context.Context, isin string) (*models.Instrument, error) {
	if inst, ok := m.instruments[isin]; ok {
		return &inst, nil
	}
	return nil, nil
}
func (m *mockInstruments) Upsert(_ context.Context, instrument *models.Instrument) error {
	m.instruments[instrument.ISIN] = *instrument
	return nil
}
func (m *mockInstruments) List(_ context.Context) ([]models.Instrument, error) { return nil, nil }

// mockPriceService counts recorded points.
type mockPriceService struct {
	recorded []models.PricePoint
}

func (m *mockPriceService) Record(_ context.Context, isin string, price float64, date time.Time, source string) error {
	m.recorded = append(m.recorded, models.PricePoint{ISIN: isin, Date: date, Price: price, Source: source})
	return nil
}
func (m *mockPriceService) History(_ context.Context, _ string) (models.PriceSeries, error) {
	return nil, nil
}
func (m *mockPriceService) Latest(_ context.Context, _ string) (*models.PricePoint, error) {
	return nil, nil
}
func (m *mockPriceService) AsOf(_ context.Context, _ string, _ time.Time) (*models.PricePoint, error) {
	return nil, nil
}

const snapshotCSV = `ISIN,Quantity,Operation,Price,Date,Asset Type
ISIN1,50,BUY,42.50,2025-01-10,equity
ISIN1,,,55.00,2025-01-11,
ISIN2,10,SELL,,,
ISIN2,200,SELL,,,
`

func TestIngest_EndToEnd(t *testing.T) {
	holdings := map[string]models.Holding{
		"ISIN1": {ISIN: "ISIN1", Units: 100, AssetType: "equity"},
		"ISIN2": {ISIN: "ISIN2", Units: 50},
	}
	storage := newMockStorage(holdings)
	prices := &mockPriceService{}
	svc := NewService(storage, prices, common.NewSilentLogger())

	result, actions, err := svc.Ingest(context.Background(), "main", strings.NewReader(snapshotCSV), false)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if result.Buys != 1 || result.Sells != 1 || result.Errors != 1 {
		t.Errorf("expected 1 buy / 1 sell / 1 error, got %d / %d / %d",
			result.Buys, result.Sells, result.Errors)
	}
	if result.RunID == "" {
		t.Error("expected a run ID")
	}

	// The BUY and the valid SELL were persisted.
	if len(storage.appended) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(storage.appended))
	}
	buy := storage.appended[0]
	if buy.Type != models.TxBuy || buy.Units != 50 || buy.Price != 42.50 || buy.PortfolioID != "main" {
		t.Errorf("unexpected buy transaction: %+v", buy)
	}
	sell := storage.appended[1]
	if sell.Type != models.TxSell || sell.Units != 10 {
		t.Errorf("unexpected sell transaction: %+v", sell)
	}

	// Two rows carried a usable price+date: the BUY and the price-only row.
	if len(prices.recorded) != 2 {
		t.Fatalf("expected 2 recorded prices, got %d", len(prices.recorded))
	}
	for _, p := range prices.recorded {
		if p.Source != models.PriceSourceSnapshot {
			t.Errorf("expected snapshot source, got %s", p.Source)
		}
	}
	if result.PricePoints != 2 {
		t.Errorf("expected 2 price points in result, got %d", result.PricePoints)
	}

	// The oversell error is present in the actions but wrote nothing.
	found := false
	for i := range actions {
		if actions[i].Error == models.ErrorOversell {
			found = true
		}
	}
	if !found {
		t.Error("expected an oversell error action")
	}

	if storage.kv["ingest:last-run:main"] != result.RunID {
		t.Errorf("expected last-run marker %s, got %q", result.RunID, storage.kv["ingest:last-run:main"])
	}
}

func TestIngest_DryRunWritesNothing(t *testing.T) {
	holdings := map[string]models.Holding{
		"ISIN1": {ISIN: "ISIN1", Units: 100, AssetType: "equity"},
		"ISIN2": {ISIN: "ISIN2", Units: 50},
	}
	storage := newMockStorage(holdings)
	prices := &mockPriceService{}
	svc := NewService(storage, prices, common.NewSilentLogger())

	result, _, err := svc.Ingest(context.Background(), "main", strings.NewReader(snapshotCSV), true)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if len(storage.appended) != 0 || len(prices.recorded) != 0 || len(storage.instruments) != 0 || len(storage.kv) != 0 {
		t.Error("dry run must not write anything")
	}
	if result.Buys != 1 || result.Sells != 1 || result.Errors != 1 || result.PricePoints != 2 {
		t.Errorf("dry-run counts wrong: %+v", result)
	}
}

func TestApply_MetadataUpdate(t *testing.T) {
	storage := newMockStorage(nil)
	svc := NewService(storage, &mockPriceService{}, common.NewSilentLogger())

	actions := []models.DeltaAction{
		{Kind: models.DeltaMetadataUpdate, ISIN: "ISIN1", AssetType: "etf", Description: "Some ETF"},
	}
	result, err := svc.Apply(context.Background(), "main", actions)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if result.MetadataUpdates != 1 {
		t.Errorf("expected 1 metadata update, got %d", result.MetadataUpdates)
	}

	inst, ok := storage.instruments["ISIN1"]
	if !ok {
		t.Fatal("expected instrument upserted")
	}
	if inst.AssetType != "etf" || inst.Name != "Some ETF" {
		t.Errorf("unexpected instrument: %+v", inst)
	}
	if inst.UpdatedAt.IsZero() {
		t.Error("expected UpdatedAt set")
	}
}
