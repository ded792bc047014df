package models

import "time"

// CashflowEvent is a signed monetary event: negative for capital outflow
// (purchase cost), positive for inflow (sale proceeds, dividends, terminal
// valuation).
type CashflowEvent struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// CashflowSet is an ordered series of cashflow events.
type CashflowSet []CashflowEvent

// Earliest returns the date of the earliest event, or the zero time if the
// set is empty.
func (c CashflowSet) Earliest() time.Time {
	var earliest time.Time
	for _, e := range c {
		if earliest.IsZero() || e.Date.Before(earliest) {
			earliest = e.Date
		}
	}
	return earliest
}

// NetInvested sums the negated amounts: the capital deployed so far.
// Outflows (negative amounts) contribute positively; withdrawals reduce it.
func (c CashflowSet) NetInvested() float64 {
	var total float64
	for _, e := range c {
		total += -e.Amount
	}
	return total
}

// Mixed reports whether the set contains at least one strictly negative and
// one non-negative amount. A same-sign set has no internal rate of return.
func (c CashflowSet) Mixed() bool {
	hasNegative := false
	hasNonNegative := false
	for _, e := range c {
		if e.Amount < 0 {
			hasNegative = true
		} else {
			hasNonNegative = true
		}
	}
	return hasNegative && hasNonNegative
}

// CashflowsFromTransactions converts a transaction list to signed cashflows:
// buys are outflows (cost including fees), sells and dividends are inflows.
// Transactions with unknown prices contribute nothing.
func CashflowsFromTransactions(txs []Transaction) CashflowSet {
	flows := make(CashflowSet, 0, len(txs))
	for i := range txs {
		t := &txs[i]
		if t.Price == 0 && t.Type != TxDividend {
			continue
		}
		switch {
		case t.IsBuy():
			flows = append(flows, CashflowEvent{Date: t.Date, Amount: -(t.Units*t.Price + t.Fees)})
		case t.IsSell():
			flows = append(flows, CashflowEvent{Date: t.Date, Amount: t.Units*t.Price - t.Fees})
		case t.Type == TxDividend:
			flows = append(flows, CashflowEvent{Date: t.Date, Amount: t.Value()})
		}
	}
	return flows
}
