package models

import "time"

// SnapshotRow is one parsed line of a holdings snapshot export. Pointer
// fields distinguish a blank cell from an explicit zero.
type SnapshotRow struct {
	Line        int        `json:"line"`
	ISIN        string     `json:"isin"`
	Quantity    *float64   `json:"quantity,omitempty"`
	Operation   string     `json:"operation,omitempty"` // "BUY", "SELL", or "" for price-only rows
	Price       *float64   `json:"price,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
	AssetType   string     `json:"asset_type,omitempty"`
	Description string     `json:"description,omitempty"`
}

// DeltaKind tags the outcome of reconciling one snapshot row.
type DeltaKind string

const (
	DeltaBuy            DeltaKind = "BUY"
	DeltaSell           DeltaKind = "SELL"
	DeltaMetadataUpdate DeltaKind = "METADATA_UPDATE"
	DeltaError          DeltaKind = "ERROR"
)

// ErrorKind classifies reconciliation failures. Errors are data: each bad
// row yields one typed ERROR action and processing continues with the next.
type ErrorKind string

const (
	ErrorMissingQuantity      ErrorKind = "missing-quantity"
	ErrorInvalidQuantity      ErrorKind = "invalid-quantity"
	ErrorOversell             ErrorKind = "oversell"
	ErrorAmbiguousMismatch    ErrorKind = "ambiguous-mismatch"
	ErrorInconsistentPosition ErrorKind = "inconsistent-new-position"
	ErrorUnknownOperation     ErrorKind = "unknown-operation"
)

// DeltaAction is one reconciliation outcome for a snapshot row: a quantity
// change to apply, a metadata update, or a typed error. Consumed once by the
// persistence layer; never stored itself.
type DeltaAction struct {
	ID             string    `json:"id"`
	Kind           DeltaKind `json:"kind"`
	ISIN           string    `json:"isin"`
	Error          ErrorKind `json:"error,omitempty"`
	QuantityChange float64   `json:"quantity_change"` // non-negative magnitude
	NewQuantity    float64   `json:"new_quantity"`
	// Provenance from the snapshot row
	Price       *float64   `json:"price,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
	AssetType   string     `json:"asset_type,omitempty"`
	Description string     `json:"description,omitempty"`
	Line        int        `json:"line"`
	Message     string     `json:"message,omitempty"`
}

// IsError reports whether the action is a typed reconciliation error.
func (a *DeltaAction) IsError() bool {
	return a.Kind == DeltaError
}

// IngestResult summarizes one applied ingestion run.
type IngestResult struct {
	RunID           string    `json:"run_id"`
	PortfolioID     string    `json:"portfolio_id"`
	Buys            int       `json:"buys"`
	Sells           int       `json:"sells"`
	MetadataUpdates int       `json:"metadata_updates"`
	Errors          int       `json:"errors"`
	PricePoints     int       `json:"price_points"`
	CompletedAt     time.Time `json:"completed_at"`
}
