package math

import (
	"math/big"
	"sync"
)

// DecimalConfig defines fixed-point precision
type DecimalConfig struct {
	DecimalPrecision int   // Number of decimal places
	Scale            int64 // 10^DecimalPrecision
}

var (
	// TokenConfig is the precision of pool/premium/coverage amounts
	// (token native decimals, USDC-style).
	TokenConfig = DecimalConfig{DecimalPrecision: 6, Scale: 1_000_000}

	// OracleConfig is the precision of oracle-reported prices
	// (Chainlink aggregator style, 8 decimals).
	OracleConfig = DecimalConfig{DecimalPrecision: 8, Scale: 100_000_000}
)

// SecondsPerYear is the premium-rate time base.
const SecondsPerYear int64 = 365 * 24 * 60 * 60

// Int128 is a pooled big.Int for intermediate calculations
var int128Pool = &sync.Pool{
	New: func() interface{} {
		return new(big.Int)
	},
}

func getInt128() *big.Int {
	return int128Pool.Get().(*big.Int)
}

func putInt128(v *big.Int) {
	v.SetInt64(0) // Clear before returning to pool
	int128Pool.Put(v)
}

// MultiplyInt128 performs a * b using int128 to prevent overflow
func MultiplyInt128(a, b int64) *big.Int {
	result := getInt128()
	result.Mul(big.NewInt(a), big.NewInt(b))
	return result
}

// DivideInt128 performs numerator / denominator, truncating toward zero.
// Premium and risk-factor arithmetic is defined on truncating integer
// division; no rounding mode is applied.
func DivideInt128(numerator *big.Int, denominator int64) int64 {
	quotient := getInt128()
	quotient.Quo(numerator, big.NewInt(denominator))

	result := quotient.Int64()
	putInt128(quotient)
	return result
}

// MulDiv computes a * b * c / denominator with int128 intermediates and
// truncating division. Used for premium computation where the product of
// coverage, risk factor and duration exceeds int64 range.
func MulDiv(a, b, c, denominator int64) int64 {
	product := MultiplyInt128(a, b)
	product.Mul(product, big.NewInt(c))

	result := DivideInt128(product, denominator)
	putInt128(product)
	return result
}

// PercentOfDiff computes |a - b| * 100 / base, truncating. Used for the
// inter-oracle deviation check.
func PercentOfDiff(a, b, base int64) int64 {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	num := MultiplyInt128(diff, 100)
	result := DivideInt128(num, base)
	putInt128(num)
	return result
}
