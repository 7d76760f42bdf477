package params_test

import (
	"errors"
	"testing"
	"time"

	"CoverPool/internal/params"
)

func TestDefaults(t *testing.T) {
	p := params.Defaults()

	if p.StaleDataThreshold != int64(3*time.Hour/time.Second) {
		t.Errorf("staleness = %d, want 3h", p.StaleDataThreshold)
	}
	if p.MaxOracleDeviation != 5 {
		t.Errorf("deviation = %d, want 5", p.MaxOracleDeviation)
	}
	if p.CapitalEfficiencyRatio != 2 {
		t.Errorf("efficiency = %d, want 2", p.CapitalEfficiencyRatio)
	}
	if p.RiskMultiplier != 10 {
		t.Errorf("risk multiplier = %d, want 10", p.RiskMultiplier)
	}
	if p.MinPremium != 1 {
		t.Errorf("min premium = %d, want 1", p.MinPremium)
	}
}

func TestSet_RangeEnforced(t *testing.T) {
	tests := []struct {
		name  string
		kind  params.Kind
		value int64
		ok    bool
	}{
		{"staleness floor", params.KindStaleDataThreshold, 59, false},
		{"staleness min", params.KindStaleDataThreshold, 60, true},
		{"staleness max", params.KindStaleDataThreshold, int64(24 * time.Hour / time.Second), true},
		{"staleness over", params.KindStaleDataThreshold, int64(25 * time.Hour / time.Second), false},
		{"deviation zero", params.KindMaxOracleDeviation, 0, false},
		{"deviation max", params.KindMaxOracleDeviation, 50, true},
		{"efficiency zero", params.KindCapitalEfficiencyRatio, 0, false},
		{"efficiency max", params.KindCapitalEfficiencyRatio, 10, true},
		{"multiplier over", params.KindRiskMultiplier, 1001, false},
		{"min premium zero ok", params.KindMinPremium, 0, true},
		{"min premium negative", params.KindMinPremium, -1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := params.Defaults()
			err := p.Set(tt.kind, tt.value)
			if tt.ok && err != nil {
				t.Errorf("Set(%v, %d): %v", tt.kind, tt.value, err)
			}
			if !tt.ok && err == nil {
				t.Errorf("Set(%v, %d) should fail", tt.kind, tt.value)
			}
		})
	}
}

func TestSet_DurationBoundsCrossChecked(t *testing.T) {
	p := params.Defaults()

	// Min cannot be raised above the current max.
	if err := p.Set(params.KindMinPolicyDuration, p.MaxPolicyDuration+1); err == nil {
		t.Error("min duration above max should fail")
	}
	// Max cannot be lowered below the current min.
	if err := p.Set(params.KindMaxPolicyDuration, p.MinPolicyDuration-1); err == nil {
		t.Error("max duration below min should fail")
	}

	// Tightening within bounds works.
	if err := p.Set(params.KindMaxPolicyDuration, p.MinPolicyDuration); err != nil {
		t.Errorf("max = min should be legal: %v", err)
	}
}

func TestKindFromName_RoundTrip(t *testing.T) {
	names := []string{
		"stale_data_threshold",
		"max_oracle_deviation",
		"capital_efficiency_ratio",
		"min_policy_duration",
		"max_policy_duration",
		"risk_multiplier",
		"min_premium",
	}
	for _, name := range names {
		kind, err := params.KindFromName(name)
		if err != nil {
			t.Errorf("KindFromName(%q): %v", name, err)
			continue
		}
		if kind.String() != name {
			t.Errorf("round trip %q -> %q", name, kind.String())
		}
	}
}

func TestKindFromName_Unknown(t *testing.T) {
	if _, err := params.KindFromName("nonsense"); !errors.Is(err, params.ErrUnknownParameter) {
		t.Errorf("err = %v, want ErrUnknownParameter", err)
	}
	// Lookup is case sensitive.
	if _, err := params.KindFromName("Risk_Multiplier"); !errors.Is(err, params.ErrUnknownParameter) {
		t.Errorf("err = %v, want ErrUnknownParameter", err)
	}
}

func TestGet_UnknownKind(t *testing.T) {
	p := params.Defaults()
	if _, err := p.Get(params.KindUnknown); !errors.Is(err, params.ErrUnknownParameter) {
		t.Errorf("err = %v, want ErrUnknownParameter", err)
	}
}
