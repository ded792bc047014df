// Package models defines data structures for Folio.
package models

import (
	"fmt"
	"time"
)

// Price provenance tags. Explicit sources ("manual", "snapshot") always win
// over transaction-implied points when both land on the same date.
const (
	PriceSourceManual      = "manual"
	PriceSourceSnapshot    = "snapshot"
	PriceSourceTransaction = "transaction-implied"
)

// PricePoint is a single dated price observation for an asset.
// Immutable once stored, except for upsert-by-(isin, date, source) replacement.
type PricePoint struct {
	ISIN   string    `json:"isin"`
	Date   time.Time `json:"date"`
	Price  float64   `json:"price"`
	Source string    `json:"source"`
}

// Key returns the stable identifier for this point, unique per
// (isin, date, source). Used as the storage key and by the compaction
// planner's keep set.
func (p PricePoint) Key() string {
	return fmt.Sprintf("%s|%s|%s", p.ISIN, p.Date.Format("2006-01-02"), p.Source)
}

// Implied reports whether this point was derived from a transaction rather
// than recorded explicitly. Implied points are never deleted by compaction —
// they live in the transaction log, not the price store.
func (p PricePoint) Implied() bool {
	return p.Source == PriceSourceTransaction
}

// PriceSeries is an ascending, per-ISIN price series, unique per date.
type PriceSeries []PricePoint

// First returns the first point in the series, or nil if empty.
func (s PriceSeries) First() *PricePoint {
	if len(s) == 0 {
		return nil
	}
	p := s[0]
	return &p
}

// Latest returns the last point in the series, or nil if empty.
func (s PriceSeries) Latest() *PricePoint {
	if len(s) == 0 {
		return nil
	}
	p := s[len(s)-1]
	return &p
}

// AsOf returns the most recent point strictly before the given date,
// or nil if no earlier observation exists.
func (s PriceSeries) AsOf(date time.Time) *PricePoint {
	var found *PricePoint
	for i := range s {
		if !s[i].Date.Before(date) {
			break
		}
		p := s[i]
		found = &p
	}
	return found
}
