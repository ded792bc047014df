package returns

import (
	"math"
	"time"

	"github.com/folioapp/folio/internal/models"
)

// Tier identifies which quantity a reported return percentage represents.
// Annualizing a position held for days produces absurd rates, so short
// horizons report simpler figures.
type Tier string

const (
	TierNone   Tier = "NONE"   // no cashflows at all
	TierSimple Tier = "SIMPLE" // plain gain over cost, duration under the simple cutoff
	TierPeriod Tier = "PERIOD" // de-annualized rate for mid-range durations
	TierAnnual Tier = "ANNUAL" // annualized XIRR for positions held a year or more
	TierError  Tier = "ERROR"  // the solver found no rate
)

// Thresholds configures the tier cutoffs in days.
type Thresholds struct {
	SimpleCutoffDays int // below this: SIMPLE
	AnnualCutoffDays int // at or above this: ANNUAL; between: PERIOD
}

// DefaultThresholds returns the standard 30-day / 365-day cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{SimpleCutoffDays: 30, AnnualCutoffDays: 365}
}

// Classify reports a return percentage for a position, choosing the tier by
// holding duration. terminalValue is the position's current market value,
// treated as a final inflow at asOf when the solver runs.
func Classify(flows models.CashflowSet, terminalValue float64, th Thresholds, asOf time.Time) (float64, Tier) {
	if len(flows) == 0 {
		return 0, TierNone
	}

	duration := asOf.Sub(flows.Earliest())
	if duration < 0 {
		duration = 0
	}
	days := duration.Hours() / 24.0

	if days < float64(th.SimpleCutoffDays) {
		netInvested := flows.NetInvested()
		if netInvested <= 0 {
			// Withdrawals exceeded deposits: no meaningful cost basis.
			return 0, TierSimple
		}
		return (terminalValue - netInvested) / netInvested * 100, TierSimple
	}

	withTerminal := make(models.CashflowSet, 0, len(flows)+1)
	withTerminal = append(withTerminal, flows...)
	withTerminal = append(withTerminal, models.CashflowEvent{Date: asOf, Amount: terminalValue})

	annualRate, err := Solve(withTerminal, 0.1)
	if err != nil {
		return 0, TierError
	}

	if days < float64(th.AnnualCutoffDays) {
		periodRate := math.Pow(1+annualRate, days/daysPerYear) - 1
		return periodRate * 100, TierPeriod
	}

	return annualRate * 100, TierAnnual
}
