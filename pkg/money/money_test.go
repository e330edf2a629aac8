package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPercentageOfRoundsHalfUp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		amount int64
		pct    string
		want   int64
	}{
		{10000, "10", 1000},
		{10001, "10", 1000},
		{10005, "10", 1001},
		{333, "33.33", 111},
		{1, "50", 1},
		{0, "25", 0},
		{9999, "100", 9999},
	}

	for _, tt := range tests {
		pct, err := decimal.NewFromString(tt.pct)
		if err != nil {
			t.Fatalf("bad pct %q: %v", tt.pct, err)
		}
		if got := PercentageOf(tt.amount, pct); got != tt.want {
			t.Fatalf("PercentageOf(%d, %s) = %d, want %d", tt.amount, tt.pct, got, tt.want)
		}
	}
}

func TestClampToRange(t *testing.T) {
	t.Parallel()

	if got := ClampToRange(-5, 0, 100); got != 0 {
		t.Fatalf("expected lower clamp, got %d", got)
	}
	if got := ClampToRange(150, 0, 100); got != 100 {
		t.Fatalf("expected upper clamp, got %d", got)
	}
	if got := ClampToRange(42, 0, 100); got != 42 {
		t.Fatalf("expected passthrough, got %d", got)
	}
}

func TestFormatBRL(t *testing.T) {
	t.Parallel()

	if got := FormatBRL(123456); got != "R$ 1.234,56" {
		t.Fatalf("unexpected format %q", got)
	}
	if got := FormatBRL(-205); got != "-R$ 2,05" {
		t.Fatalf("unexpected negative format %q", got)
	}
	if got := FormatBRL(7); got != "R$ 0,07" {
		t.Fatalf("unexpected small format %q", got)
	}
}
