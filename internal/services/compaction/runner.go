package compaction

import (
	"context"
	"fmt"
	"time"

	"github.com/folioapp/folio/internal/common"
	"github.com/folioapp/folio/internal/interfaces"
	"github.com/folioapp/folio/internal/models"
	"github.com/folioapp/folio/internal/services/pricehistory"
)

// Service runs the retention policy against stored price history. It is an
// offline batch job: it must not run concurrently with live price ingestion
// for the same asset, or it would plan deletions against a stale snapshot.
type Service struct {
	storage   interfaces.StorageManager
	prices    *pricehistory.Store
	policy    Policy
	batchSize int
	logger    *common.Logger
	now       func() time.Time
}

// NewService creates a compaction service.
func NewService(storage interfaces.StorageManager, prices *pricehistory.Store, cfg common.CompactionConfig, logger *common.Logger) *Service {
	policy := Policy{
		RecentWindowMonths: cfg.RecentWindowMonths,
		OldWindowYears:     cfg.OldWindowYears,
		MinChangePct:       cfg.MinChangePct,
	}
	batchSize := cfg.DeleteBatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Service{
		storage:   storage,
		prices:    prices,
		policy:    policy,
		batchSize: batchSize,
		logger:    logger,
		now:       time.Now,
	}
}

// Run compacts one asset's price history. With dryRun the plan is computed
// and reported but nothing is deleted.
func (s *Service) Run(ctx context.Context, isin string, dryRun bool) (*models.CompactionResult, error) {
	series, err := s.prices.History(ctx, isin)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for %s: %w", isin, err)
	}

	protected, err := s.storage.TransactionStorage().ProtectedDates(ctx, isin)
	if err != nil {
		return nil, fmt.Errorf("failed to load protected dates for %s: %w", isin, err)
	}

	plan := BuildPlan(series, protected, s.now(), s.policy)

	result := &models.CompactionResult{
		ISIN:     isin,
		Examined: plan.Examined,
		Kept:     plan.Kept,
		DryRun:   dryRun,
	}

	// Deletions run over the raw explicit records, not the merged series:
	// the merge keeps one point per day, so an explicit record shadowed by
	// another source on the same date never surfaces there and would
	// otherwise survive every run. Implied points are not deletable at all,
	// they live in the transaction log and are re-derived on every read.
	explicit, err := s.storage.PriceStorage().GetPoints(ctx, isin)
	if err != nil {
		return nil, fmt.Errorf("failed to load explicit prices for %s: %w", isin, err)
	}
	var doomed []string
	for i := range explicit {
		if !plan.Keep[explicit[i].Key()] {
			doomed = append(doomed, explicit[i].Key())
		}
	}

	if dryRun {
		result.Deleted = 0
		result.FinishedAt = s.now()
		s.logger.Info().
			Str("isin", isin).
			Int("examined", plan.Examined).
			Int("kept", plan.Kept).
			Int("would_delete", len(doomed)).
			Msg("Compaction dry run complete")
		return result, nil
	}

	// Delete in bounded batches. A failed batch is logged and skipped, never
	// retried here — the surviving points are still valid and the next run
	// will pick them up again.
	for start := 0; start < len(doomed); start += s.batchSize {
		end := start + s.batchSize
		if end > len(doomed) {
			end = len(doomed)
		}
		batch := doomed[start:end]

		deleted, err := s.storage.PriceStorage().DeletePoints(ctx, isin, batch)
		if err != nil {
			result.Failed += len(batch)
			s.logger.Warn().
				Str("isin", isin).
				Int("batch_size", len(batch)).
				Err(err).
				Msg("Failed to delete compaction batch; continuing")
			continue
		}
		result.Deleted += deleted
	}

	result.FinishedAt = s.now()

	// Watermark for operational tooling: when this asset was last compacted.
	// Best effort, a failed write never fails the run itself.
	if err := s.storage.KeyValueStorage().Set(ctx, "compaction:last-run:"+isin,
		result.FinishedAt.UTC().Format(time.RFC3339)); err != nil {
		s.logger.Warn().Str("isin", isin).Err(err).Msg("Failed to record compaction watermark")
	}

	s.logger.Info().
		Str("isin", isin).
		Int("examined", plan.Examined).
		Int("kept", plan.Kept).
		Int("deleted", result.Deleted).
		Int("failed", result.Failed).
		Msg("Compaction complete")

	return result, nil
}

// RunAll compacts every instrument with recorded metadata.
func (s *Service) RunAll(ctx context.Context, dryRun bool) ([]models.CompactionResult, error) {
	instruments, err := s.storage.InstrumentStorage().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list instruments: %w", err)
	}

	results := make([]models.CompactionResult, 0, len(instruments))
	for _, inst := range instruments {
		result, err := s.Run(ctx, inst.ISIN, dryRun)
		if err != nil {
			s.logger.Warn().Str("isin", inst.ISIN).Err(err).Msg("Compaction failed for asset; continuing")
			continue
		}
		results = append(results, *result)
	}
	return results, nil
}

// Ensure Service implements CompactionService
var _ interfaces.CompactionService = (*Service)(nil)
