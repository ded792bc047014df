// Package returns implements money-weighted return calculations: the XIRR
// root-finder and the tiered reporting policy layered on top of it.
package returns

import (
	"errors"
	"math"

	"github.com/folioapp/folio/internal/models"
)

// ErrNoSolution is returned when the cashflow series admits no internal rate
// of return: all amounts share a sign, or evaluation blew up numerically.
// It is an expected business outcome, not a fault.
var ErrNoSolution = errors.New("cashflow series has no rate of return")

const (
	maxIterations = 100
	convergence   = 1e-6
	// Below -100% the discount term (1+r)^t is undefined for fractional t.
	// The rate is clamped just above the singularity before each evaluation.
	minRate = -0.99
	// When the derivative flattens out, Newton-Raphson stalls. The solver
	// returns its best rate so far rather than failing: a near-flat NPV
	// curve means any nearby rate prices the flows equally well.
	flatDerivative = 1e-9

	daysPerYear = 365.0
)

// Solve finds the annualized rate r such that the net present value of the
// cashflows is zero: sum of amount_i * (1+r)^(-t_i), with t_i measured in
// 365-day years from the earliest event. Newton-Raphson from initialGuess,
// up to 100 iterations or until the step shrinks below 1e-6.
func Solve(flows models.CashflowSet, initialGuess float64) (float64, error) {
	if len(flows) == 0 || !flows.Mixed() {
		return 0, ErrNoSolution
	}

	start := flows.Earliest()
	years := make([]float64, len(flows))
	for i, e := range flows {
		years[i] = e.Date.Sub(start).Hours() / 24.0 / daysPerYear
	}

	rate := initialGuess
	for i := 0; i < maxIterations; i++ {
		if rate <= -1 {
			rate = minRate
		}

		var npv, derivative float64
		for j, e := range flows {
			discount := math.Pow(1+rate, -years[j])
			npv += e.Amount * discount
			derivative += -e.Amount * years[j] * math.Pow(1+rate, -years[j]-1)
		}

		if math.IsNaN(npv) || math.IsInf(npv, 0) {
			return 0, ErrNoSolution
		}

		if math.Abs(derivative) < flatDerivative {
			return rate, nil
		}

		step := npv / derivative
		rate -= step

		if math.IsNaN(rate) || math.IsInf(rate, 0) {
			return 0, ErrNoSolution
		}
		if rate <= -1 {
			rate = minRate
		}

		if math.Abs(step) < convergence {
			return rate, nil
		}
	}

	return rate, nil
}
