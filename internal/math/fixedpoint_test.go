package math_test

import (
	"testing"

	fpmath "CoverPool/internal/math"
)

func TestMulDiv(t *testing.T) {
	tests := []struct {
		name        string
		a, b, c     int64
		denominator int64
		want        int64
	}{
		{"simple", 10, 20, 30, 100, 60},
		{"truncates toward zero", 10, 10, 10, 3, 333},
		{"zero factor", 0, 5, 5, 10, 0},
		{"premium shape", 1_000, 10, fpmath.SecondsPerYear * 10, fpmath.SecondsPerYear * 100 * 10, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fpmath.MulDiv(tt.a, tt.b, tt.c, tt.denominator); got != tt.want {
				t.Errorf("MulDiv(%d, %d, %d, %d) = %d, want %d",
					tt.a, tt.b, tt.c, tt.denominator, got, tt.want)
			}
		})
	}
}

func TestMulDiv_IntermediateExceedsInt64(t *testing.T) {
	// 10^15 * 99 * SecondsPerYear overflows int64 by a wide margin; the
	// int128 intermediate keeps the quotient exact.
	coverage := int64(1_000_000_000_000_000)
	got := fpmath.MulDiv(coverage, 99, fpmath.SecondsPerYear, fpmath.SecondsPerYear*100)
	want := coverage / 100 * 99
	if got != want {
		t.Errorf("MulDiv = %d, want %d", got, want)
	}
}

func TestDivideInt128_TruncatesTowardZero(t *testing.T) {
	num := fpmath.MultiplyInt128(-7, 1)
	if got := fpmath.DivideInt128(num, 2); got != -3 {
		t.Errorf("(-7)/2 = %d, want -3 (toward zero, not floor)", got)
	}
}

func TestPercentOfDiff(t *testing.T) {
	tests := []struct {
		name string
		a, b int64
		base int64
		want int64
	}{
		{"five percent", 3000, 2850, 3000, 5},
		{"order independent", 2850, 3000, 3000, 5},
		{"truncates", 3000, 2950, 3000, 1}, // 1.66 -> 1
		{"equal", 3000, 3000, 3000, 0},
		{"large spread", 3000, 1500, 3000, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fpmath.PercentOfDiff(tt.a, tt.b, tt.base); got != tt.want {
				t.Errorf("PercentOfDiff(%d, %d, %d) = %d, want %d",
					tt.a, tt.b, tt.base, got, tt.want)
			}
		})
	}
}
