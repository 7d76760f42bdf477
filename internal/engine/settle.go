package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"CoverPool/internal/event"
	"CoverPool/internal/policy"
	"CoverPool/internal/token"
)

// SettleOutcome classifies a settlement attempt.
type SettleOutcome int32

const (
	// SettleFailed means the claim conditions were not met. This is an
	// observable business outcome, not an error: the attempt is recorded
	// as a ClaimFailed event with a reason.
	SettleFailed SettleOutcome = iota
	// SettleFull means the entire coverage was paid and the policy closed.
	SettleFull
	// SettlePartial means the pool balance was paid out and the policy
	// stays active with the remainder claimable.
	SettlePartial
)

func (o SettleOutcome) String() string {
	switch o {
	case SettleFull:
		return "full"
	case SettlePartial:
		return "partial"
	default:
		return "failed"
	}
}

// SettleResult is the outcome of one settlement attempt.
type SettleResult struct {
	Outcome SettleOutcome
	Paid    int64
	// Reason is set when Outcome is SettleFailed.
	Reason string
	// Remaining is the coverage left after a partial payout.
	Remaining int64
}

// Claim failure reasons, as they appear in ClaimFailed events.
const (
	FailNoPolicy       = "no active policy"
	FailExpired        = "expired"
	FailThresholdUnmet = "threshold not met"
	FailPoolDepleted   = "pool depleted"
)

// Settle attempts to settle the account's claim against the current
// oracle price. The error return covers only execution problems (paused,
// reentrancy, oracle transport, transfer failure); an unmet claim
// condition comes back as SettleFailed with no error.
//
// Decision order: missing policy, lazy expiration, oracle health, price
// threshold, then full or partial payout depending on the pool balance.
func (e *Engine) Settle(ctx context.Context, account uuid.UUID) (SettleResult, error) {
	ctx, err := e.acquire(ctx)
	if err != nil {
		return SettleResult{}, err
	}
	defer e.release()

	start := e.now()
	res, err := e.settle(ctx, account)
	if e.metrics != nil {
		e.metrics.SettleDuration.Observe(time.Since(start).Seconds())
		switch res.Outcome {
		case SettleFull, SettlePartial:
			e.metrics.ClaimsSettled.WithLabelValues(res.Outcome.String()).Inc()
			e.metrics.PayoutsTotal.Add(float64(res.Paid))
		case SettleFailed:
			if err == nil {
				e.metrics.ClaimsFailed.WithLabelValues(res.Reason).Inc()
			}
		}
	}
	return res, err
}

func (e *Engine) settle(ctx context.Context, account uuid.UUID) (SettleResult, error) {
	e.mu.Lock()

	if e.paused() {
		e.mu.Unlock()
		return SettleResult{}, ErrPaused
	}

	nowUnix := e.now().Unix()

	pol, ok := e.ledger.Get(account)
	if !ok || !pol.Active {
		e.mu.Unlock()
		return e.failClaim(account, FailNoPolicy, nowUnix), nil
	}

	if pol.IsExpired(nowUnix) {
		// Lazy expiration: first touch past the deadline closes the
		// policy, then the claim fails.
		released := pol.Coverage
		e.ledger.Deactivate(pol)
		e.updateGauges()
		e.mu.Unlock()

		if e.metrics != nil {
			e.metrics.PoliciesExpired.WithLabelValues("settle").Inc()
		}
		e.emit(&event.PolicyExpired{
			Holder:           account,
			ReleasedCoverage: released,
			ExpiredAt:        pol.ExpiresAt,
			Timestamp:        nowUnix,
		}, nil)
		return e.failClaim(account, FailExpired, nowUnix), nil
	}

	health := e.validator.CheckHealth(ctx, e.limits())
	e.observeOracle(health)
	if !health.Healthy {
		e.mu.Unlock()
		return e.failClaim(account, health.Reason, nowUnix), nil
	}

	// Claims are valid strictly below the threshold.
	if health.Price >= pol.PriceThreshold {
		e.mu.Unlock()
		return e.failClaim(account, FailThresholdUnmet, nowUnix), nil
	}

	poolBalance, err := e.token.BalanceOf(ctx, e.poolAccount)
	if err != nil {
		e.mu.Unlock()
		return SettleResult{}, fmt.Errorf("read pool balance: %w", err)
	}

	if poolBalance == 0 {
		// Nothing to pay out. The claim fails without touching the
		// policy or the claim history; it stays claimable once the
		// pool holds funds again.
		e.mu.Unlock()
		return e.failClaim(account, FailPoolDepleted, nowUnix), nil
	}

	if poolBalance >= pol.Coverage {
		return e.settleFull(ctx, pol, health.Price, nowUnix)
	}
	return e.settlePartial(ctx, pol, poolBalance, health.Price, nowUnix)
}

// settleFull pays the entire coverage and closes the policy. Caller holds
// mu; released before the transfer.
func (e *Engine) settleFull(ctx context.Context, pol *policy.Policy, price, nowUnix int64) (SettleResult, error) {
	paid := pol.Coverage
	e.ledger.Deactivate(pol)
	e.updateGauges()
	e.mu.Unlock()

	if err := e.token.Transfer(ctx, pol.Account, paid); err != nil {
		e.mu.Lock()
		e.ledger.Reactivate(pol)
		e.updateGauges()
		e.mu.Unlock()
		return SettleResult{}, fmt.Errorf("pay claim: %w: %v", token.ErrTransferFailed, err)
	}

	rec := policy.ClaimRecord{
		Account:     pol.Account,
		Paid:        paid,
		Timestamp:   nowUnix,
		OraclePrice: price,
	}
	e.mu.Lock()
	e.ledger.AppendClaim(rec)
	e.mu.Unlock()

	e.logger.Info().
		Str("account", pol.Account.String()).
		Int64("paid", paid).
		Int64("oracle_price", price).
		Msg("claim settled in full")

	e.emit(&event.ClaimProcessed{
		Holder:      pol.Account,
		Paid:        paid,
		OraclePrice: price,
		Timestamp:   nowUnix,
	}, &rec)

	return SettleResult{Outcome: SettleFull, Paid: paid}, nil
}

// settlePartial pays out the whole pool balance, strictly positive by
// the time this runs, and leaves the policy active with the remainder.
// Caller holds mu; released before the transfer.
func (e *Engine) settlePartial(ctx context.Context, pol *policy.Policy, poolBalance, price, nowUnix int64) (SettleResult, error) {
	paid := poolBalance
	if err := e.ledger.ReduceCoverage(pol, paid); err != nil {
		e.mu.Unlock()
		return SettleResult{}, err
	}
	remaining := pol.Coverage
	e.updateGauges()
	e.mu.Unlock()

	if err := e.token.Transfer(ctx, pol.Account, paid); err != nil {
		e.mu.Lock()
		e.ledger.RestoreCoverage(pol, paid)
		e.updateGauges()
		e.mu.Unlock()
		return SettleResult{}, fmt.Errorf("pay claim: %w: %v", token.ErrTransferFailed, err)
	}

	rec := policy.ClaimRecord{
		Account:     pol.Account,
		Paid:        paid,
		Timestamp:   nowUnix,
		OraclePrice: price,
	}
	e.mu.Lock()
	e.ledger.AppendClaim(rec)
	e.mu.Unlock()

	e.logger.Info().
		Str("account", pol.Account.String()).
		Int64("paid", paid).
		Int64("remaining_coverage", remaining).
		Int64("oracle_price", price).
		Msg("claim settled partially")

	e.emit(&event.ClaimPartiallyProcessed{
		Holder:            pol.Account,
		Paid:              paid,
		RemainingCoverage: remaining,
		OraclePrice:       price,
		Timestamp:         nowUnix,
	}, &rec)

	return SettleResult{Outcome: SettlePartial, Paid: paid, Remaining: remaining}, nil
}

// failClaim emits the ClaimFailed event for an unmet condition. Called
// with mu released and the operation lock held.
func (e *Engine) failClaim(account uuid.UUID, reason string, nowUnix int64) SettleResult {
	e.logger.Debug().
		Str("account", account.String()).
		Str("reason", reason).
		Msg("claim failed")

	e.emit(&event.ClaimFailed{
		Holder:    account,
		Reason:    reason,
		Timestamp: nowUnix,
	}, nil)

	return SettleResult{Outcome: SettleFailed, Reason: reason}
}
