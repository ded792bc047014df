package pricehistory

import (
	"time"

	"github.com/folioapp/folio/internal/common"
	"github.com/folioapp/folio/internal/models"
)

// Dense expands a sparse series into a map covering every calendar day from
// from through to, keyed "2006-01-02". Forward-fill only: the fill starts at
// the first observation inside the range and carries the last observed price
// forward. Days before that first in-range observation map to 0.
// The 0 is an "unknown price" sentinel — consumers must not read it as a true
// zero valuation, and it is never back-filled from later observations or
// defaulted to cost basis.
func Dense(series models.PriceSeries, from, to time.Time) map[string]float64 {
	from = common.Day(from)
	to = common.Day(to)

	dense := make(map[string]float64)
	if to.Before(from) {
		return dense
	}

	// Skip observations before the range; they never contribute.
	idx := 0
	for idx < len(series) && common.Day(series[idx].Date).Before(from) {
		idx++
	}

	carry := 0.0
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		for idx < len(series) && !common.Day(series[idx].Date).After(day) {
			carry = series[idx].Price
			idx++
		}
		dense[common.DateKey(day)] = carry
	}

	return dense
}
