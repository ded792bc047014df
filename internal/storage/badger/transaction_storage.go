package badger

import (
	"context"
	"fmt"
	"sort"

	"github.com/folioapp/folio/internal/common"
	"github.com/folioapp/folio/internal/models"
	"github.com/google/uuid"
	"github.com/timshannon/badgerhold/v4"
)

// TransactionRecord is the stored form of a transaction, keyed by ID.
type TransactionRecord struct {
	ID          string `badgerhold:"key"`
	Transaction models.Transaction
	ISIN        string `badgerholdIndex:"ISIN"`
	PortfolioID string `badgerholdIndex:"PortfolioID"`
}

// TransactionStorage implements interfaces.TransactionStorage using BadgerDB.
// The log is append-only: holdings and implied prices are projections over
// it, never stored state.
type TransactionStorage struct {
	db          *BadgerDB
	instruments *InstrumentStorage
	logger      *common.Logger
}

// NewTransactionStorage creates transaction storage backed by BadgerDB.
func NewTransactionStorage(db *BadgerDB, instruments *InstrumentStorage, logger *common.Logger) *TransactionStorage {
	return &TransactionStorage{
		db:          db,
		instruments: instruments,
		logger:      logger,
	}
}

// Append stores a transaction and returns its ID.
func (s *TransactionStorage) Append(_ context.Context, tx *models.Transaction) (string, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	record := TransactionRecord{
		ID:          tx.ID,
		Transaction: *tx,
		ISIN:        tx.ISIN,
		PortfolioID: tx.PortfolioID,
	}
	if err := s.db.Store().Insert(tx.ID, &record); err != nil {
		return "", fmt.Errorf("failed to store transaction %s: %w", tx.ID, err)
	}

	s.logger.Debug().
		Str("id", tx.ID).
		Str("isin", tx.ISIN).
		Str("type", tx.Type).
		Msg("Transaction appended")

	return tx.ID, nil
}

// ListByISIN returns all transactions for an asset, ascending by date.
func (s *TransactionStorage) ListByISIN(_ context.Context, isin string) ([]models.Transaction, error) {
	var records []TransactionRecord
	err := s.db.Store().Find(&records, badgerhold.Where("ISIN").Eq(isin).Index("ISIN"))
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions for %s: %w", isin, err)
	}
	return sortedTransactions(records), nil
}

// ListByPortfolio returns all transactions for a portfolio, ascending by date.
func (s *TransactionStorage) ListByPortfolio(_ context.Context, portfolioID string) ([]models.Transaction, error) {
	var records []TransactionRecord
	err := s.db.Store().Find(&records, badgerhold.Where("PortfolioID").Eq(portfolioID).Index("PortfolioID"))
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions for portfolio %s: %w", portfolioID, err)
	}
	return sortedTransactions(records), nil
}

// Holdings replays the portfolio's transaction log into current positions.
// Buys accumulate a weighted average cost; sells release cost proportionally
// so the remaining units keep their average.
func (s *TransactionStorage) Holdings(ctx context.Context, portfolioID string) (map[string]models.Holding, error) {
	txs, err := s.ListByPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	type position struct {
		units float64
		cost  float64
	}
	positions := make(map[string]*position)

	for i := range txs {
		tx := &txs[i]
		pos := positions[tx.ISIN]
		if pos == nil {
			pos = &position{}
			positions[tx.ISIN] = pos
		}
		switch {
		case tx.IsBuy():
			pos.units += tx.Units
			pos.cost += tx.Units*tx.Price + tx.Fees
		case tx.IsSell():
			if pos.units > 0 {
				sold := tx.Units
				if sold > pos.units {
					sold = pos.units
				}
				pos.cost -= pos.cost * (sold / pos.units)
				pos.units -= sold
			}
		}
	}

	holdings := make(map[string]models.Holding, len(positions))
	for isin, pos := range positions {
		holding := models.Holding{
			ISIN:  isin,
			Units: pos.units,
		}
		if pos.units > 0 {
			holding.AvgCost = pos.cost / pos.units
		}
		if instrument, err := s.instruments.Get(ctx, isin); err == nil && instrument != nil {
			holding.AssetType = instrument.AssetType
			holding.Name = instrument.Name
		}
		holdings[isin] = holding
	}
	return holdings, nil
}

// ImpliedPrices derives one synthetic price point per priced transaction on
// the ISIN. Zero-priced transactions (dividends without a unit price) carry
// no price signal.
func (s *TransactionStorage) ImpliedPrices(ctx context.Context, isin string) ([]models.PricePoint, error) {
	txs, err := s.ListByISIN(ctx, isin)
	if err != nil {
		return nil, err
	}

	points := make([]models.PricePoint, 0, len(txs))
	for i := range txs {
		tx := &txs[i]
		if tx.Price <= 0 {
			continue
		}
		points = append(points, models.PricePoint{
			ISIN:   tx.ISIN,
			Date:   common.Day(tx.Date),
			Price:  tx.Price,
			Source: models.PriceSourceTransaction,
		})
	}
	return points, nil
}

// ProtectedDates returns the dates on which the ISIN had a cashflow event.
func (s *TransactionStorage) ProtectedDates(ctx context.Context, isin string) (map[string]struct{}, error) {
	txs, err := s.ListByISIN(ctx, isin)
	if err != nil {
		return nil, err
	}

	dates := make(map[string]struct{}, len(txs))
	for i := range txs {
		dates[common.DateKey(txs[i].Date)] = struct{}{}
	}
	return dates, nil
}

func sortedTransactions(records []TransactionRecord) []models.Transaction {
	txs := make([]models.Transaction, 0, len(records))
	for _, record := range records {
		txs = append(txs, record.Transaction)
	}
	sort.Slice(txs, func(i, j int) bool {
		if txs[i].Date.Equal(txs[j].Date) {
			return txs[i].CreatedAt.Before(txs[j].CreatedAt)
		}
		return txs[i].Date.Before(txs[j].Date)
	})
	return txs
}
