package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"CoverPool/internal/engine"
	"CoverPool/internal/event"
	"CoverPool/internal/params"
	"CoverPool/internal/testutil"
)

func TestUpdateParameter_AdminOnly(t *testing.T) {
	f := newFixture(t)

	err := f.engine.UpdateParameter(context.Background(), uuid.New(), params.KindRiskMultiplier, 20)
	if !errors.Is(err, engine.ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}

	if err := f.engine.UpdateParameter(context.Background(), f.admin, params.KindRiskMultiplier, 20); err != nil {
		t.Fatalf("admin update: %v", err)
	}
	if got := f.engine.Params().RiskMultiplier; got != 20 {
		t.Errorf("risk multiplier = %d, want 20", got)
	}

	outs := f.drainEvents()
	updated := lastEventOfType(outs, event.TypeParameterUpdated)
	if updated == nil {
		t.Fatal("no ParameterUpdated event emitted")
	}
	payload := updated.Envelope.Payload.(*event.ParameterUpdated)
	if payload.OldValue != 10 || payload.NewValue != 20 {
		t.Errorf("event values = %d -> %d, want 10 -> 20", payload.OldValue, payload.NewValue)
	}
}

func TestUpdateParameter_RangeChecked(t *testing.T) {
	f := newFixture(t)

	if err := f.engine.UpdateParameter(context.Background(), f.admin, params.KindCapitalEfficiencyRatio, 11); err == nil {
		t.Error("efficiency ratio 11 should be out of range")
	}
	if got := f.engine.Params().CapitalEfficiencyRatio; got != 2 {
		t.Errorf("ratio = %d after rejected update, want 2", got)
	}
}

func TestUpdateParameter_AffectsNextQuote(t *testing.T) {
	f := newFixture(t)

	before, err := f.engine.QuotePremium(context.Background(), scenarioCoverage, scenarioThreshold, yearSeconds)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if err := f.engine.UpdateParameter(context.Background(), f.admin, params.KindRiskMultiplier, 20); err != nil {
		t.Fatalf("update: %v", err)
	}
	after, err := f.engine.QuotePremium(context.Background(), scenarioCoverage, scenarioThreshold, yearSeconds)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if after != before*2 {
		t.Errorf("premium after doubling multiplier = %d, want %d", after, before*2)
	}
}

func TestSetKeeper_AdminOnly(t *testing.T) {
	f := newFixture(t)
	keeperID := uuid.New()

	if err := f.engine.SetKeeper(context.Background(), uuid.New(), keeperID); !errors.Is(err, engine.ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
	if err := f.engine.SetKeeper(context.Background(), f.admin, keeperID); err != nil {
		t.Fatalf("set keeper: %v", err)
	}
	if f.engine.Keeper() != keeperID {
		t.Error("keeper not recorded")
	}
}

func TestSetSecondaryOracle_AdminOnly(t *testing.T) {
	f := newFixture(t)
	src := testutil.NewScriptedOracle(scenarioPrice, baseTime.Unix())

	if err := f.engine.SetSecondaryOracle(context.Background(), uuid.New(), src, "feed-b"); !errors.Is(err, engine.ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
	if err := f.engine.SetSecondaryOracle(context.Background(), f.admin, src, "feed-b"); err != nil {
		t.Fatalf("set secondary: %v", err)
	}
	if !f.validator.HasSecondary() {
		t.Error("secondary source not installed")
	}

	outs := f.drainEvents()
	if lastEventOfType(outs, event.TypeSecondaryOracleUpdated) == nil {
		t.Error("no SecondaryOracleUpdated event emitted")
	}
}

func TestWithdrawExcess_BoundedByExcess(t *testing.T) {
	f := newFixture(t)
	holder := uuid.New()
	recipient := uuid.New()
	f.openScenario(t, holder, 5_000)

	// Pool balance 5100, aggregate 1000: excess 4100.
	excess, err := f.engine.ExcessFunds(context.Background())
	if err != nil {
		t.Fatalf("excess: %v", err)
	}
	if excess != 4_100 {
		t.Errorf("excess = %d, want 4100", excess)
	}

	err = f.engine.WithdrawExcess(context.Background(), f.admin, recipient, excess+1)
	if !errors.Is(err, engine.ErrExceedsExcess) {
		t.Errorf("err = %v, want ErrExceedsExcess", err)
	}

	if err := f.engine.WithdrawExcess(context.Background(), f.admin, recipient, excess); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	got, _ := f.token.BalanceOf(context.Background(), recipient)
	if got != excess {
		t.Errorf("recipient balance = %d, want %d", got, excess)
	}

	outs := f.drainEvents()
	if lastEventOfType(outs, event.TypeFundsWithdrawn) == nil {
		t.Error("no FundsWithdrawn event emitted")
	}
}

func TestWithdrawExcess_Unauthorized(t *testing.T) {
	f := newFixture(t)

	err := f.engine.WithdrawExcess(context.Background(), uuid.New(), uuid.New(), 1)
	if !errors.Is(err, engine.ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

func TestSequence_MonotonicAcrossOperations(t *testing.T) {
	f := newFixture(t)
	holder := uuid.New()

	start := f.engine.Sequence()
	f.openScenario(t, holder, 5_000)
	if err := f.engine.UpdateParameter(context.Background(), f.admin, params.KindMinPremium, 2); err != nil {
		t.Fatalf("update: %v", err)
	}

	if got := f.engine.Sequence(); got != start+2 {
		t.Errorf("sequence = %d, want %d", got, start+2)
	}
}
