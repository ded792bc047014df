package models

import (
	"strings"
	"time"
)

// Transaction types. Folio stores a flat append-only transaction log per
// portfolio; holdings are a projection over it.
const (
	TxBuy      = "buy"
	TxSell     = "sell"
	TxDividend = "dividend"
)

// Transaction is a single recorded portfolio event for an asset.
type Transaction struct {
	ID          string    `json:"id"`
	PortfolioID string    `json:"portfolio_id"`
	ISIN        string    `json:"isin"`
	Type        string    `json:"type"`
	Units       float64   `json:"units"`
	Price       float64   `json:"price"` // per-unit; 0 when unknown (no implied price point)
	Fees        float64   `json:"fees,omitempty"`
	Date        time.Time `json:"date"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsBuy reports whether the transaction adds units. Type comparison is
// case-insensitive — spreadsheet imports arrive in mixed case.
func (t *Transaction) IsBuy() bool {
	return strings.EqualFold(t.Type, TxBuy)
}

// IsSell reports whether the transaction removes units.
func (t *Transaction) IsSell() bool {
	return strings.EqualFold(t.Type, TxSell)
}

// Value returns the transaction's monetary value: units times price.
func (t *Transaction) Value() float64 {
	return t.Units * t.Price
}

// Holding is the projected position for one asset: a signed running unit
// total and the weighted-average cost derived from buys only.
type Holding struct {
	ISIN      string  `json:"isin"`
	Units     float64 `json:"units"`
	AvgCost   float64 `json:"avg_cost"`
	AssetType string  `json:"asset_type,omitempty"`
	Name      string  `json:"name,omitempty"`
}

// Instrument holds per-asset metadata, maintained independently of the
// transaction log. Reconciliation emits metadata updates against it.
type Instrument struct {
	ISIN      string    `json:"isin"`
	Name      string    `json:"name,omitempty"`
	AssetType string    `json:"asset_type,omitempty"`
	Currency  string    `json:"currency,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
