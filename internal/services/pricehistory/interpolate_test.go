package pricehistory

import (
	"reflect"
	"testing"

	"github.com/folioapp/folio/internal/models"
)

func TestDense_ForwardFill(t *testing.T) {
	series := models.PriceSeries{
		{ISIN: "AU000000BHP4", Date: date(2025, 1, 2), Price: 40.0},
		{ISIN: "AU000000BHP4", Date: date(2025, 1, 5), Price: 42.0},
	}

	dense := Dense(series, date(2025, 1, 1), date(2025, 1, 7))
	if len(dense) != 7 {
		t.Fatalf("expected 7 days, got %d", len(dense))
	}

	want := map[string]float64{
		"2025-01-01": 0,    // before the first observation: unknown
		"2025-01-02": 40.0, // first observation
		"2025-01-03": 40.0, // carried forward
		"2025-01-04": 40.0,
		"2025-01-05": 42.0,
		"2025-01-06": 42.0,
		"2025-01-07": 42.0,
	}
	for day, price := range want {
		if dense[day] != price {
			t.Errorf("day %s: expected %f, got %f", day, price, dense[day])
		}
	}
}

func TestDense_ObservationsBeforeRangeAreIgnored(t *testing.T) {
	// A price from before the window never leaks into it: days before the
	// first in-range observation stay at the unknown sentinel.
	series := models.PriceSeries{
		{ISIN: "AU000000BHP4", Date: date(2024, 12, 1), Price: 38.0},
		{ISIN: "AU000000BHP4", Date: date(2025, 1, 3), Price: 40.0},
	}

	dense := Dense(series, date(2025, 1, 1), date(2025, 1, 4))
	if dense["2025-01-01"] != 0 || dense["2025-01-02"] != 0 {
		t.Errorf("expected sentinel before first in-range point, got %f / %f",
			dense["2025-01-01"], dense["2025-01-02"])
	}
	if dense["2025-01-03"] != 40.0 || dense["2025-01-04"] != 40.0 {
		t.Errorf("expected fill from in-range point, got %f / %f",
			dense["2025-01-03"], dense["2025-01-04"])
	}
}

func TestDense_EmptyRangesAndSeries(t *testing.T) {
	if got := Dense(nil, date(2025, 1, 5), date(2025, 1, 1)); len(got) != 0 {
		t.Errorf("expected empty map for inverted range, got %d entries", len(got))
	}

	dense := Dense(nil, date(2025, 1, 1), date(2025, 1, 3))
	if len(dense) != 3 {
		t.Fatalf("expected 3 days, got %d", len(dense))
	}
	for day, price := range dense {
		if price != 0 {
			t.Errorf("day %s: expected sentinel 0 for empty series, got %f", day, price)
		}
	}
}

func TestDense_SingleDayRange(t *testing.T) {
	series := models.PriceSeries{
		{ISIN: "AU000000BHP4", Date: date(2025, 1, 2), Price: 40.0},
	}

	dense := Dense(series, date(2025, 1, 2), date(2025, 1, 2))
	if len(dense) != 1 || dense["2025-01-02"] != 40.0 {
		t.Errorf("expected single entry 40.0, got %v", dense)
	}
}

func TestDense_Idempotent(t *testing.T) {
	series := models.PriceSeries{
		{ISIN: "AU000000BHP4", Date: date(2025, 1, 2), Price: 40.0},
		{ISIN: "AU000000BHP4", Date: date(2025, 1, 10), Price: 42.0},
		{ISIN: "AU000000BHP4", Date: date(2025, 1, 20), Price: 41.0},
	}

	first := Dense(series, date(2025, 1, 1), date(2025, 1, 31))
	second := Dense(series, date(2025, 1, 1), date(2025, 1, 31))
	if !reflect.DeepEqual(first, second) {
		t.Error("expected identical maps from repeated runs")
	}
}
