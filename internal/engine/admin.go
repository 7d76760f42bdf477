package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"CoverPool/internal/event"
	"CoverPool/internal/oracle"
	"CoverPool/internal/params"
	"CoverPool/internal/solvency"
	"CoverPool/internal/token"
)

// UpdateParameter sets a governed protocol parameter. Restricted to
// administrators; the value is range-checked before assignment and the
// change is emitted with both old and new values.
func (e *Engine) UpdateParameter(ctx context.Context, admin uuid.UUID, kind params.Kind, value int64) error {
	if _, err := e.acquire(ctx); err != nil {
		return err
	}
	defer e.release()

	e.mu.Lock()

	if e.access == nil || !e.access.IsAdministrator(admin) {
		e.mu.Unlock()
		return ErrUnauthorized
	}

	old, err := e.params.Get(kind)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	if err := e.params.Set(kind, value); err != nil {
		e.mu.Unlock()
		return err
	}
	e.mu.Unlock()

	e.logger.Info().
		Str("admin", admin.String()).
		Str("parameter", kind.String()).
		Int64("old", old).
		Int64("new", value).
		Msg("parameter updated")

	e.emit(&event.ParameterUpdated{
		Admin:     admin,
		Name:      kind.String(),
		OldValue:  old,
		NewValue:  value,
		Timestamp: e.now().Unix(),
	}, nil)
	return nil
}

// SetSecondaryOracle installs or replaces the cross-validation price
// source. Restricted to administrators. desc identifies the source in the
// emitted event (aggregator address or endpoint).
func (e *Engine) SetSecondaryOracle(ctx context.Context, admin uuid.UUID, source oracle.PriceSource, desc string) error {
	if _, err := e.acquire(ctx); err != nil {
		return err
	}
	defer e.release()

	e.mu.Lock()
	if e.access == nil || !e.access.IsAdministrator(admin) {
		e.mu.Unlock()
		return ErrUnauthorized
	}
	e.validator.SetSecondary(source)
	e.mu.Unlock()

	e.logger.Info().
		Str("admin", admin.String()).
		Str("source", desc).
		Msg("secondary oracle updated")

	e.emit(&event.SecondaryOracleUpdated{
		Admin:     admin,
		Source:    desc,
		Timestamp: e.now().Unix(),
	}, nil)
	return nil
}

// SetKeeper assigns the account allowed to run batch expiration sweeps.
// Restricted to administrators.
func (e *Engine) SetKeeper(ctx context.Context, admin, keeper uuid.UUID) error {
	if _, err := e.acquire(ctx); err != nil {
		return err
	}
	defer e.release()

	e.mu.Lock()
	if e.access == nil || !e.access.IsAdministrator(admin) {
		e.mu.Unlock()
		return ErrUnauthorized
	}
	e.keeper = keeper
	e.mu.Unlock()

	e.logger.Info().
		Str("admin", admin.String()).
		Str("keeper", keeper.String()).
		Msg("keeper updated")

	e.emit(&event.KeeperUpdated{
		Admin:     admin,
		Keeper:    keeper,
		Timestamp: e.now().Unix(),
	}, nil)
	return nil
}

// Keeper returns the assigned keeper account, uuid.Nil if none.
func (e *Engine) Keeper() uuid.UUID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.keeper
}

// WithdrawExcess moves pool funds not backing any active coverage to the
// recipient. Restricted to administrators; the amount must not exceed the
// excess, so obligations stay fully collateralized.
func (e *Engine) WithdrawExcess(ctx context.Context, admin, recipient uuid.UUID, amount int64) error {
	ctx, err := e.acquire(ctx)
	if err != nil {
		return err
	}
	defer e.release()

	e.mu.Lock()

	if e.access == nil || !e.access.IsAdministrator(admin) {
		e.mu.Unlock()
		return ErrUnauthorized
	}
	if amount <= 0 {
		e.mu.Unlock()
		return fmt.Errorf("withdrawal amount must be positive, got %d", amount)
	}

	poolBalance, err := e.token.BalanceOf(ctx, e.poolAccount)
	if err != nil {
		e.mu.Unlock()
		return fmt.Errorf("read pool balance: %w", err)
	}

	excess := solvency.ExcessFunds(poolBalance, e.ledger.AggregateCoverage())
	if amount > excess {
		e.mu.Unlock()
		return fmt.Errorf("%w: requested %d, excess %d", ErrExceedsExcess, amount, excess)
	}
	e.mu.Unlock()

	if err := e.token.Transfer(ctx, recipient, amount); err != nil {
		return fmt.Errorf("withdraw excess: %w: %v", token.ErrTransferFailed, err)
	}

	e.logger.Info().
		Str("admin", admin.String()).
		Str("recipient", recipient.String()).
		Int64("amount", amount).
		Msg("excess funds withdrawn")

	e.emit(&event.FundsWithdrawn{
		Admin:     admin,
		Recipient: recipient,
		Amount:    amount,
		Timestamp: e.now().Unix(),
	}, nil)
	return nil
}
