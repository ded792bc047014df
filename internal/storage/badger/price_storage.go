package badger

import (
	"context"
	"fmt"
	"sort"

	"github.com/folioapp/folio/internal/common"
	"github.com/folioapp/folio/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// PriceRecord is the stored form of a price point, keyed by
// "isin|date|source" so re-recording the same observation overwrites in
// place.
type PriceRecord struct {
	Key   string `badgerhold:"key"`
	Point models.PricePoint
	ISIN  string `badgerholdIndex:"ISIN"`
}

// PriceStorage implements interfaces.PriceStorage using BadgerDB.
type PriceStorage struct {
	db     *BadgerDB
	logger *common.Logger
}

// NewPriceStorage creates price-point storage backed by BadgerDB.
func NewPriceStorage(db *BadgerDB, logger *common.Logger) *PriceStorage {
	return &PriceStorage{
		db:     db,
		logger: logger,
	}
}

// Upsert stores a price point. Returns true when the point is new, false
// when an existing observation for the same (isin, date, source) was
// replaced.
func (s *PriceStorage) Upsert(_ context.Context, point *models.PricePoint) (bool, error) {
	key := point.Key()

	var existing PriceRecord
	err := s.db.Store().Get(key, &existing)
	created := err == badgerhold.ErrNotFound
	if err != nil && err != badgerhold.ErrNotFound {
		return false, fmt.Errorf("failed to check price point %s: %w", key, err)
	}

	record := PriceRecord{
		Key:   key,
		Point: *point,
		ISIN:  point.ISIN,
	}
	if err := s.db.Store().Upsert(key, &record); err != nil {
		return false, fmt.Errorf("failed to store price point %s: %w", key, err)
	}
	return created, nil
}

// GetPoints returns all explicit points for an ISIN, ascending by date.
func (s *PriceStorage) GetPoints(_ context.Context, isin string) ([]models.PricePoint, error) {
	var records []PriceRecord
	err := s.db.Store().Find(&records, badgerhold.Where("ISIN").Eq(isin).Index("ISIN"))
	if err != nil {
		return nil, fmt.Errorf("failed to load price points for %s: %w", isin, err)
	}

	points := make([]models.PricePoint, 0, len(records))
	for _, record := range records {
		points = append(points, record.Point)
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points, nil
}

// DeletePoints removes points by key. Missing keys are skipped, not errors.
func (s *PriceStorage) DeletePoints(_ context.Context, isin string, keys []string) (int, error) {
	deleted := 0
	for _, key := range keys {
		err := s.db.Store().Delete(key, PriceRecord{})
		if err == badgerhold.ErrNotFound {
			continue
		}
		if err != nil {
			return deleted, fmt.Errorf("failed to delete price point %s: %w", key, err)
		}
		deleted++
	}

	s.logger.Debug().
		Str("isin", isin).
		Int("deleted", deleted).
		Msg("Price points deleted")

	return deleted, nil
}
