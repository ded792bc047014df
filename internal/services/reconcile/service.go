package reconcile

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/folioapp/folio/internal/common"
	"github.com/folioapp/folio/internal/interfaces"
	"github.com/folioapp/folio/internal/models"
	"github.com/google/uuid"
)

// Service wires the pure reconciliation engine to storage and price history.
type Service struct {
	storage interfaces.StorageManager
	prices  interfaces.PriceHistoryService
	logger  *common.Logger
}

func NewService(storage interfaces.StorageManager, prices interfaces.PriceHistoryService, logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{
		storage: storage,
		prices:  prices,
		logger:  logger,
	}
}

// Reconcile loads current holdings and runs the engine. Nothing is written.
func (s *Service) Reconcile(ctx context.Context, portfolioID string, rows []models.SnapshotRow) ([]models.DeltaAction, error) {
	holdings, err := s.storage.TransactionStorage().Holdings(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to load holdings for %s: %w", portfolioID, err)
	}
	return Reconcile(rows, holdings), nil
}

// Apply persists the non-error actions: buys and sells become transactions,
// metadata updates land on the instrument record. Error actions are counted
// and logged, never written.
func (s *Service) Apply(ctx context.Context, portfolioID string, actions []models.DeltaAction) (*models.IngestResult, error) {
	result := &models.IngestResult{
		RunID:       uuid.NewString(),
		PortfolioID: portfolioID,
	}

	for i := range actions {
		action := &actions[i]
		switch action.Kind {
		case models.DeltaBuy, models.DeltaSell:
			tx := transactionFromAction(portfolioID, action)
			if _, err := s.storage.TransactionStorage().Append(ctx, tx); err != nil {
				return nil, fmt.Errorf("failed to store transaction for %s: %w", action.ISIN, err)
			}
			if action.Kind == models.DeltaBuy {
				result.Buys++
			} else {
				result.Sells++
			}
			if action.AssetType != "" || action.Description != "" {
				if err := s.upsertInstrument(ctx, action); err != nil {
					return nil, err
				}
			}

		case models.DeltaMetadataUpdate:
			if err := s.upsertInstrument(ctx, action); err != nil {
				return nil, err
			}
			result.MetadataUpdates++

		case models.DeltaError:
			result.Errors++
			s.logger.Warn().
				Str("isin", action.ISIN).
				Str("error", string(action.Error)).
				Int("line", action.Line).
				Msg(action.Message)
		}
	}

	result.CompletedAt = time.Now().UTC()

	// Last applied run per portfolio, for operational tooling. Best effort.
	if err := s.storage.KeyValueStorage().Set(ctx, "ingest:last-run:"+portfolioID, result.RunID); err != nil {
		s.logger.Warn().Str("portfolio", portfolioID).Err(err).Msg("Failed to record ingest watermark")
	}

	return result, nil
}

// Ingest runs the whole pipeline for a snapshot file: parse, reconcile,
// record row prices, apply. With dryRun the store is untouched and the
// result only reflects what would happen.
func (s *Service) Ingest(ctx context.Context, portfolioID string, r io.Reader, dryRun bool) (*models.IngestResult, []models.DeltaAction, error) {
	rows, err := ParseRows(r)
	if err != nil {
		return nil, nil, err
	}

	actions, err := s.Reconcile(ctx, portfolioID, rows)
	if err != nil {
		return nil, nil, err
	}

	if dryRun {
		result := &models.IngestResult{
			RunID:       uuid.NewString(),
			PortfolioID: portfolioID,
			CompletedAt: time.Now().UTC(),
		}
		for i := range actions {
			switch actions[i].Kind {
			case models.DeltaBuy:
				result.Buys++
			case models.DeltaSell:
				result.Sells++
			case models.DeltaMetadataUpdate:
				result.MetadataUpdates++
			case models.DeltaError:
				result.Errors++
			}
		}
		for i := range rows {
			if rowHasPrice(&rows[i]) {
				result.PricePoints++
			}
		}
		return result, actions, nil
	}

	result, err := s.Apply(ctx, portfolioID, actions)
	if err != nil {
		return nil, actions, err
	}

	// Every row with a usable price feeds the price history, including
	// pure price updates that produced no action.
	for i := range rows {
		row := &rows[i]
		if !rowHasPrice(row) {
			continue
		}
		if err := s.prices.Record(ctx, row.ISIN, *row.Price, *row.Date, models.PriceSourceSnapshot); err != nil {
			return result, actions, fmt.Errorf("failed to record snapshot price for %s: %w", row.ISIN, err)
		}
		result.PricePoints++
	}

	s.logger.Info().
		Str("run_id", result.RunID).
		Str("portfolio", portfolioID).
		Int("buys", result.Buys).
		Int("sells", result.Sells).
		Int("metadata_updates", result.MetadataUpdates).
		Int("errors", result.Errors).
		Int("price_points", result.PricePoints).
		Msg("Snapshot ingest complete")

	return result, actions, nil
}

func rowHasPrice(row *models.SnapshotRow) bool {
	return row.Price != nil && *row.Price > 0 && row.Date != nil
}

func transactionFromAction(portfolioID string, action *models.DeltaAction) *models.Transaction {
	tx := &models.Transaction{
		ID:          action.ID,
		PortfolioID: portfolioID,
		ISIN:        action.ISIN,
		Units:       action.QuantityChange,
		Description: action.Description,
		CreatedAt:   time.Now().UTC(),
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if action.Kind == models.DeltaBuy {
		tx.Type = models.TxBuy
	} else {
		tx.Type = models.TxSell
	}
	if action.Price != nil {
		tx.Price = *action.Price
	}
	if action.Date != nil {
		tx.Date = *action.Date
	} else {
		tx.Date = common.Day(time.Now().UTC())
	}
	return tx
}

func (s *Service) upsertInstrument(ctx context.Context, action *models.DeltaAction) error {
	instrument, err := s.storage.InstrumentStorage().Get(ctx, action.ISIN)
	if err != nil {
		return fmt.Errorf("failed to load instrument %s: %w", action.ISIN, err)
	}
	if instrument == nil {
		instrument = &models.Instrument{ISIN: action.ISIN}
	}
	if action.AssetType != "" {
		instrument.AssetType = action.AssetType
	}
	if action.Description != "" {
		instrument.Name = action.Description
	}
	instrument.UpdatedAt = time.Now().UTC()
	if err := s.storage.InstrumentStorage().Upsert(ctx, instrument); err != nil {
		return fmt.Errorf("failed to update instrument %s: %w", action.ISIN, err)
	}
	return nil
}

var _ interfaces.IngestService = (*Service)(nil)
