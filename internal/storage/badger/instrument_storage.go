package badger

import (
	"context"
	"fmt"
	"sort"

	"github.com/folioapp/folio/internal/common"
	"github.com/folioapp/folio/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// InstrumentRecord is the stored form of instrument metadata, keyed by ISIN.
type InstrumentRecord struct {
	ISIN       string `badgerhold:"key"`
	Instrument models.Instrument
}

// InstrumentStorage implements interfaces.InstrumentStorage using BadgerDB.
type InstrumentStorage struct {
	db     *BadgerDB
	logger *common.Logger
}

// NewInstrumentStorage creates instrument storage backed by BadgerDB.
func NewInstrumentStorage(db *BadgerDB, logger *common.Logger) *InstrumentStorage {
	return &InstrumentStorage{
		db:     db,
		logger: logger,
	}
}

// Get retrieves instrument metadata by ISIN. A missing instrument is
// (nil, nil), not an error.
func (s *InstrumentStorage) Get(_ context.Context, isin string) (*models.Instrument, error) {
	var record InstrumentRecord
	err := s.db.Store().Get(isin, &record)
	if err == badgerhold.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load instrument %s: %w", isin, err)
	}
	return &record.Instrument, nil
}

// Upsert persists instrument metadata.
func (s *InstrumentStorage) Upsert(_ context.Context, instrument *models.Instrument) error {
	record := InstrumentRecord{
		ISIN:       instrument.ISIN,
		Instrument: *instrument,
	}
	if err := s.db.Store().Upsert(instrument.ISIN, &record); err != nil {
		return fmt.Errorf("failed to store instrument %s: %w", instrument.ISIN, err)
	}
	return nil
}

// List returns all known instruments, ascending by ISIN.
func (s *InstrumentStorage) List(_ context.Context) ([]models.Instrument, error) {
	var records []InstrumentRecord
	if err := s.db.Store().Find(&records, nil); err != nil {
		return nil, fmt.Errorf("failed to list instruments: %w", err)
	}

	instruments := make([]models.Instrument, 0, len(records))
	for _, record := range records {
		instruments = append(instruments, record.Instrument)
	}
	sort.Slice(instruments, func(i, j int) bool {
		return instruments[i].ISIN < instruments[j].ISIN
	})
	return instruments, nil
}
