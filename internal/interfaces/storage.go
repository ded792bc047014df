// Package interfaces defines service contracts for Folio.
package interfaces

import (
	"context"

	"github.com/folioapp/folio/internal/models"
)

// StorageManager coordinates all storage backends
type StorageManager interface {
	// Storage accessors
	PriceStorage() PriceStorage
	TransactionStorage() TransactionStorage
	InstrumentStorage() InstrumentStorage
	KeyValueStorage() KeyValueStorage

	// Lifecycle
	Close() error
}

// PriceStorage handles explicit price-point persistence
type PriceStorage interface {
	// Upsert stores a price point, idempotent by (isin, date, source).
	// Returns true if a new point was created, false if an existing one was
	// replaced.
	Upsert(ctx context.Context, point *models.PricePoint) (bool, error)

	// GetPoints returns all explicit points for an ISIN, ascending by date.
	GetPoints(ctx context.Context, isin string) ([]models.PricePoint, error)

	// DeletePoints removes points by key for an ISIN. Returns the number
	// actually deleted; missing keys are not an error.
	DeletePoints(ctx context.Context, isin string, keys []string) (int, error)
}

// TransactionStorage handles the append-only transaction log
type TransactionStorage interface {
	// Append stores a transaction and returns its ID
	Append(ctx context.Context, tx *models.Transaction) (string, error)

	// ListByISIN returns all transactions for an asset, ascending by date
	ListByISIN(ctx context.Context, isin string) ([]models.Transaction, error)

	// ListByPortfolio returns all transactions for a portfolio, ascending by date
	ListByPortfolio(ctx context.Context, portfolioID string) ([]models.Transaction, error)

	// Holdings projects current positions for a portfolio
	Holdings(ctx context.Context, portfolioID string) (map[string]models.Holding, error)

	// ImpliedPrices returns one synthetic price point per non-zero-priced
	// transaction on the ISIN, tagged with the transaction-implied source.
	ImpliedPrices(ctx context.Context, isin string) ([]models.PricePoint, error)

	// ProtectedDates returns the set of dates (keyed "2006-01-02") on which
	// a cashflow-bearing event occurred for the ISIN. Compaction must never
	// erase the price that grounds a recorded cashflow.
	ProtectedDates(ctx context.Context, isin string) (map[string]struct{}, error)
}

// InstrumentStorage handles per-asset metadata persistence
type InstrumentStorage interface {
	// Get retrieves instrument metadata by ISIN
	Get(ctx context.Context, isin string) (*models.Instrument, error)

	// Upsert persists instrument metadata
	Upsert(ctx context.Context, instrument *models.Instrument) error

	// List returns all known instruments
	List(ctx context.Context) ([]models.Instrument, error)
}

// KeyValueStorage provides generic key-value storage
type KeyValueStorage interface {
	// Get retrieves a value by key
	Get(ctx context.Context, key string) (string, error)

	// Set stores a value
	Set(ctx context.Context, key, value string) error

	// Delete removes a key
	Delete(ctx context.Context, key string) error

	// GetAll returns all key-value pairs
	GetAll(ctx context.Context) (map[string]string, error)
}
