// Package compaction thins stored price history without losing
// chart-relevant information: full resolution near today, weekly resolution
// in the long tail, and redundancy-based thinning in between.
package compaction

import (
	"fmt"
	"time"

	"github.com/folioapp/folio/internal/common"
	"github.com/folioapp/folio/internal/models"
)

// Policy configures the retention windows and thresholds.
type Policy struct {
	RecentWindowMonths int     // keep everything newer than now minus this
	OldWindowYears     int     // weekly resolution older than now minus this
	MinChangePct       float64 // medium-window redundancy threshold, percent
}

// DefaultPolicy returns the standard 6-month / 2-year / 0.5% policy.
func DefaultPolicy() Policy {
	return Policy{
		RecentWindowMonths: 6,
		OldWindowYears:     2,
		MinChangePct:       0.5,
	}
}

// Plan is the advisory output of one planning pass: which points survive.
type Plan struct {
	Keep     map[string]bool // point key -> kept
	Examined int
	Kept     int
	Dropped  int
}

// BuildPlan decides which points of a full series may be discarded under the
// policy, given the set of protected dates (keyed "2006-01-02"). Rules, in
// precedence order — later rules only add keeps, never remove:
//
//  1. the chronologically first and last point always survive
//  2. protected dates always survive (they ground recorded cashflows)
//  3. the recent window keeps everything
//  4. the old window keeps the first point of each ISO-week bucket
//  5. the medium window keeps a point only when its price moved more than
//     MinChangePct from the last kept price
func BuildPlan(series models.PriceSeries, protected map[string]struct{}, now time.Time, policy Policy) *Plan {
	plan := &Plan{
		Keep:     make(map[string]bool, len(series)),
		Examined: len(series),
	}
	if len(series) == 0 {
		return plan
	}

	recentCutoff := now.AddDate(0, -policy.RecentWindowMonths, 0)
	oldCutoff := now.AddDate(-policy.OldWindowYears, 0, 0)
	threshold := policy.MinChangePct / 100.0

	weekSeen := make(map[string]bool)
	var lastKeptPrice float64
	haveKeptPrice := false

	for i := range series {
		point := &series[i]
		day := common.Day(point.Date)
		keep := false

		switch {
		case i == 0 || i == len(series)-1:
			keep = true
		case !day.Before(recentCutoff):
			keep = true
		case day.Before(oldCutoff):
			// Weekly resolution: first point of each ISO-week bucket.
			keep = !weekSeen[isoWeekBucket(day)]
		default:
			// Medium window: drop points whose price barely moved since the
			// last kept one. The reference price carries over from whatever
			// point was kept before this window.
			if !haveKeptPrice {
				keep = true
			} else if lastKeptPrice != 0 {
				change := (point.Price - lastKeptPrice) / lastKeptPrice
				if change < 0 {
					change = -change
				}
				keep = change > threshold
			} else {
				keep = true
			}
		}

		if _, ok := protected[common.DateKey(day)]; ok {
			keep = true
		}

		if keep {
			plan.Keep[point.Key()] = true
			plan.Kept++
			lastKeptPrice = point.Price
			haveKeptPrice = true
			// Any kept point fills its week bucket, whatever rule kept it.
			if day.Before(oldCutoff) {
				weekSeen[isoWeekBucket(day)] = true
			}
		} else {
			plan.Dropped++
		}
	}

	return plan
}

func isoWeekBucket(day time.Time) string {
	year, week := day.ISOWeek()
	return fmt.Sprintf("%d-%02d", year, week)
}
