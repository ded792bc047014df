package badger

import (
	"github.com/folioapp/folio/internal/common"
	"github.com/folioapp/folio/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger.
type Manager struct {
	db          *BadgerDB
	prices      interfaces.PriceStorage
	txs         interfaces.TransactionStorage
	instruments interfaces.InstrumentStorage
	kv          interfaces.KeyValueStorage
	logger      *common.Logger
}

// NewManager creates a new Badger storage manager.
func NewManager(logger *common.Logger, cfg *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, cfg)
	if err != nil {
		return nil, err
	}

	instruments := NewInstrumentStorage(db, logger)
	manager := &Manager{
		db:          db,
		prices:      NewPriceStorage(db, logger),
		txs:         NewTransactionStorage(db, instruments, logger),
		instruments: instruments,
		kv:          NewKVStorage(db, logger),
		logger:      logger,
	}

	logger.Debug().Msg("Badger storage manager initialized")

	return manager, nil
}

// PriceStorage returns the price-point storage interface.
func (m *Manager) PriceStorage() interfaces.PriceStorage {
	return m.prices
}

// TransactionStorage returns the transaction storage interface.
func (m *Manager) TransactionStorage() interfaces.TransactionStorage {
	return m.txs
}

// InstrumentStorage returns the instrument storage interface.
func (m *Manager) InstrumentStorage() interfaces.InstrumentStorage {
	return m.instruments
}

// KeyValueStorage returns the KeyValue storage interface.
func (m *Manager) KeyValueStorage() interfaces.KeyValueStorage {
	return m.kv
}

// Close closes the database connection.
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

var _ interfaces.StorageManager = (*Manager)(nil)
