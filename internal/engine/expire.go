package engine

import (
	"context"

	"github.com/google/uuid"

	"CoverPool/internal/event"
)

// Expire deactivates the account's policy if its deadline has passed and
// releases its coverage back into pool capacity. Anyone may call it;
// expiration is otherwise enforced lazily when the policy is touched.
func (e *Engine) Expire(ctx context.Context, account uuid.UUID) error {
	if _, err := e.acquire(ctx); err != nil {
		return err
	}
	defer e.release()

	e.mu.Lock()
	nowUnix := e.now().Unix()

	pol, ok := e.ledger.Get(account)
	if !ok || !pol.Active {
		e.mu.Unlock()
		return ErrNoActivePolicy
	}
	if !pol.IsExpired(nowUnix) {
		e.mu.Unlock()
		return ErrNotExpired
	}

	released := pol.Coverage
	e.ledger.Deactivate(pol)
	e.updateGauges()
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.PoliciesExpired.WithLabelValues("direct").Inc()
	}
	e.logger.Info().
		Str("account", account.String()).
		Int64("released_coverage", released).
		Msg("policy expired")

	e.emit(&event.PolicyExpired{
		Holder:           account,
		ReleasedCoverage: released,
		ExpiredAt:        pol.ExpiresAt,
		Timestamp:        nowUnix,
	}, nil)
	return nil
}

// BatchExpire sweeps the given accounts and expires every policy past its
// deadline, skipping the rest. Restricted to the assigned keeper or an
// administrator. Returns the number of policies expired.
//
// A nil accounts slice sweeps every active policy.
func (e *Engine) BatchExpire(ctx context.Context, caller uuid.UUID, accounts []uuid.UUID) (int, error) {
	if _, err := e.acquire(ctx); err != nil {
		return 0, err
	}
	defer e.release()

	e.mu.Lock()

	if !e.isKeeperOrAdmin(caller) {
		e.mu.Unlock()
		return 0, ErrUnauthorized
	}

	nowUnix := e.now().Unix()
	if accounts == nil {
		accounts = e.ledger.ActiveAccounts()
	}

	type expired struct {
		account   uuid.UUID
		released  int64
		expiredAt int64
	}
	var batch []expired
	for _, acct := range accounts {
		pol, ok := e.ledger.Get(acct)
		if !ok || !pol.Active || !pol.IsExpired(nowUnix) {
			continue
		}
		e.ledger.Deactivate(pol)
		batch = append(batch, expired{acct, pol.Coverage, pol.ExpiresAt})
	}
	e.updateGauges()
	e.mu.Unlock()

	for _, x := range batch {
		if e.metrics != nil {
			e.metrics.PoliciesExpired.WithLabelValues("batch").Inc()
		}
		e.emit(&event.PolicyExpired{
			Holder:           x.account,
			ReleasedCoverage: x.released,
			ExpiredAt:        x.expiredAt,
			Timestamp:        nowUnix,
		}, nil)
	}

	if len(batch) > 0 {
		e.logger.Info().
			Int("expired", len(batch)).
			Int("swept", len(accounts)).
			Msg("batch expiration")
	}
	return len(batch), nil
}

// isKeeperOrAdmin is called with mu held.
func (e *Engine) isKeeperOrAdmin(caller uuid.UUID) bool {
	if e.keeper != uuid.Nil && caller == e.keeper {
		return true
	}
	return e.access != nil && e.access.IsAdministrator(caller)
}
