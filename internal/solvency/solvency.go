package solvency

// Controller enforces the capital-efficiency bound on admission and the
// withdrawal floor. It depends only on the aggregate active coverage and
// the external pool balance, both supplied by the caller at decision time.
type Controller struct {
	// CapitalEfficiencyRatio bounds total promised payout to a multiple
	// of funds actually held. The pool runs under-collateralized;
	// partial-payout settlement is the compensating control.
	CapitalEfficiencyRatio int64
}

// CanAdmit reports whether a new policy's coverage fits within pool
// capacity. The premium just collected counts toward capacity since it
// lands in the pool as part of the same atomic operation.
func (c Controller) CanAdmit(aggregateCoverage, newCoverage, poolBalance, premium int64) bool {
	capacity := (poolBalance + premium) * c.CapitalEfficiencyRatio
	return aggregateCoverage+newCoverage <= capacity
}

// ExcessFunds is the only amount an administrator may withdraw:
// max(0, balance - aggregate). A point-in-time guarantee against the
// current balance snapshot, not against future price-driven claims on the
// full coverage simultaneously.
func ExcessFunds(poolBalance, aggregateCoverage int64) int64 {
	excess := poolBalance - aggregateCoverage
	if excess < 0 {
		return 0
	}
	return excess
}
