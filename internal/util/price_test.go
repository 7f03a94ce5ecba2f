package util

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRoundToTick(t *testing.T) {
	tests := []struct {
		name     string
		x        string
		tick     string
		expected string
	}{
		{
			name:     "basic rounding down",
			x:        "1.2345",
			tick:     "0.01",
			expected: "1.23",
		},
		{
			name:     "tie rounds up",
			x:        "1.235",
			tick:     "0.01",
			expected: "1.24",
		},
		{
			name:     "larger tick size",
			x:        "1.27",
			tick:     "0.05",
			expected: "1.25",
		},
		{
			name:     "exact multiple",
			x:        "1.25",
			tick:     "0.05",
			expected: "1.25",
		},
		{
			name:     "zero tick returns input",
			x:        "1.2345",
			tick:     "0",
			expected: "1.2345",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RoundToTick(decimal.RequireFromString(tt.x), decimal.RequireFromString(tt.tick))
			if !result.Equal(decimal.RequireFromString(tt.expected)) {
				t.Errorf("RoundToTick(%s, %s) = %s, expected %s", tt.x, tt.tick, result, tt.expected)
			}
		})
	}
}

func TestSafeDiv(t *testing.T) {
	if _, ok := SafeDiv(decimal.NewFromInt(1), decimal.Zero); ok {
		t.Error("expected ok=false for division by zero")
	}
	q, ok := SafeDiv(decimal.NewFromInt(10), decimal.NewFromInt(4))
	if !ok || !q.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("SafeDiv(10, 4) = %s, %v; expected 2.5, true", q, ok)
	}
}

func TestPctOf(t *testing.T) {
	pct, ok := PctOf(decimal.NewFromInt(20), decimal.NewFromInt(80))
	if !ok || !pct.Equal(decimal.NewFromInt(25)) {
		t.Errorf("PctOf(20, 80) = %s, %v; expected 25, true", pct, ok)
	}
	if _, ok := PctOf(decimal.NewFromInt(1), decimal.Zero); ok {
		t.Error("expected ok=false for zero whole")
	}
}

func TestClampScore(t *testing.T) {
	if got := ClampScore(-5); got != 0 {
		t.Errorf("ClampScore(-5) = %v, expected 0", got)
	}
	if got := ClampScore(150); got != 100 {
		t.Errorf("ClampScore(150) = %v, expected 100", got)
	}
	if got := ClampScore(42.5); got != 42.5 {
		t.Errorf("ClampScore(42.5) = %v, expected 42.5", got)
	}
}

func TestPositiveOrZero(t *testing.T) {
	if got := PositiveOrZero(decimal.NewFromInt(-3)); !got.IsZero() {
		t.Errorf("PositiveOrZero(-3) = %s, expected 0", got)
	}
	if got := PositiveOrZero(decimal.NewFromInt(3)); !got.Equal(decimal.NewFromInt(3)) {
		t.Errorf("PositiveOrZero(3) = %s, expected 3", got)
	}
}
