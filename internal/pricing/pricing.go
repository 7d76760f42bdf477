package pricing

import (
	"errors"
	"fmt"

	fpmath "CoverPool/internal/math"
	"CoverPool/internal/params"
)

var (
	ErrInvalidDuration  = errors.New("policy duration out of bounds")
	ErrInvalidThreshold = errors.New("price threshold must be strictly between zero and current price")
	ErrInvalidCoverage  = errors.New("coverage must be positive")
)

// Quote is a deterministic premium computation for a given oracle price
// and parameter set. Pure: no state mutation, no I/O.
//
// The risk factor prices the distance to trigger, not the probability of
// triggering: a threshold closer to the current price yields a LOWER
// premium. This is the defined formula and is reproduced exactly.
func Quote(coverage, threshold, durationSec, currentPrice int64, p params.Params) (int64, error) {
	if coverage <= 0 {
		return 0, ErrInvalidCoverage
	}
	if durationSec < p.MinPolicyDuration || durationSec > p.MaxPolicyDuration {
		return 0, fmt.Errorf("%w: %d not in [%d, %d]",
			ErrInvalidDuration, durationSec, p.MinPolicyDuration, p.MaxPolicyDuration)
	}
	if currentPrice <= 0 {
		return 0, fmt.Errorf("non-positive oracle price %d", currentPrice)
	}
	if threshold <= 0 || threshold >= currentPrice {
		return 0, fmt.Errorf("%w: threshold=%d price=%d", ErrInvalidThreshold, threshold, currentPrice)
	}

	riskFactor := RiskFactor(currentPrice, threshold)

	// premium = coverage * riskFactor * duration * riskMultiplier
	//           / (secondsPerYear * 100 * 10)
	// All integer, truncating throughout.
	premium := fpmath.MulDiv(
		coverage,
		riskFactor,
		durationSec*p.RiskMultiplier,
		fpmath.SecondsPerYear*100*10,
	)

	if premium < p.MinPremium {
		premium = p.MinPremium
	}
	return premium, nil
}

// RiskFactor computes (price - threshold) * 100 / price with truncating
// division, as an integer percentage.
func RiskFactor(currentPrice, threshold int64) int64 {
	return fpmath.MulDiv(currentPrice-threshold, 100, 1, currentPrice)
}
