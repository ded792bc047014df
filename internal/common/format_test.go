package common

import (
	"testing"
	"time"
)

func TestDay(t *testing.T) {
	stamp := time.Date(2025, 3, 15, 14, 30, 45, 123, time.UTC)
	day := Day(stamp)

	if day.Hour() != 0 || day.Minute() != 0 || day.Second() != 0 || day.Nanosecond() != 0 {
		t.Errorf("expected midnight, got %v", day)
	}
	if day.Year() != 2025 || day.Month() != 3 || day.Day() != 15 {
		t.Errorf("date changed: %v", day)
	}
	if DateKey(stamp) != "2025-03-15" {
		t.Errorf("unexpected date key: %s", DateKey(stamp))
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{0, "$0.00"},
		{1.5, "$1.50"},
		{999.99, "$999.99"},
		{1000, "$1,000.00"},
		{1234567.89, "$1,234,567.89"},
		{-42.5, "-$42.50"},
	}

	for _, tt := range tests {
		if got := FormatMoney(tt.value); got != tt.want {
			t.Errorf("FormatMoney(%f) = %s, want %s", tt.value, got, tt.want)
		}
	}
}

func TestFormatSigned(t *testing.T) {
	if got := FormatSignedMoney(42.5); got != "+$42.50" {
		t.Errorf("expected +$42.50, got %s", got)
	}
	if got := FormatSignedMoney(-42.5); got != "-$42.50" {
		t.Errorf("expected -$42.50, got %s", got)
	}
	if got := FormatSignedPct(3.456); got != "+3.46%" {
		t.Errorf("expected +3.46%%, got %s", got)
	}
	if got := FormatSignedPct(-12.5); got != "-12.50%" {
		t.Errorf("expected -12.50%%, got %s", got)
	}
}
