package models

import "time"

// HoldingReport is the per-asset slice of a portfolio valuation report.
type HoldingReport struct {
	Holding     Holding     `json:"holding"`
	LatestPrice *PricePoint `json:"latest_price,omitempty"`
	MarketValue float64     `json:"market_value"`
	ReturnPct   float64     `json:"return_pct"`
	ReturnTier  string      `json:"return_tier"`
}

// GrowthPoint is one day of a dense charting series.
type GrowthPoint struct {
	Date  string  `json:"date"` // "2006-01-02"
	Value float64 `json:"value"`
}

// PortfolioReport is a full valuation report for one portfolio at a date.
type PortfolioReport struct {
	PortfolioID string          `json:"portfolio_id"`
	AsOf        time.Time       `json:"as_of"`
	Holdings    []HoldingReport `json:"holdings"`
	TotalValue  float64         `json:"total_value"`
	TotalCost   float64         `json:"total_cost"`
	Growth      []GrowthPoint   `json:"growth,omitempty"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// CompactionResult summarizes one compaction run for a single asset.
type CompactionResult struct {
	ISIN       string    `json:"isin"`
	Examined   int       `json:"examined"`
	Kept       int       `json:"kept"`
	Deleted    int       `json:"deleted"`
	Failed     int       `json:"failed"` // points in batches that failed to delete
	DryRun     bool      `json:"dry_run"`
	FinishedAt time.Time `json:"finished_at"`
}
