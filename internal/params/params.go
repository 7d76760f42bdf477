package params

import (
	"fmt"
	"time"
)

// Kind is the closed enumeration of protocol parameters. Each kind carries
// its own admissible range, checked before assignment.
type Kind int

const (
	KindUnknown Kind = iota
	KindStaleDataThreshold
	KindMaxOracleDeviation
	KindCapitalEfficiencyRatio
	KindMinPolicyDuration
	KindMaxPolicyDuration
	KindRiskMultiplier
	KindMinPremium
)

// ErrUnknownParameter is returned when a parameter name does not map to a Kind.
var ErrUnknownParameter = fmt.Errorf("unknown parameter")

// Params holds process-wide protocol configuration. Read by every pricing
// and admission decision; mutated only through the governed Update path.
type Params struct {
	// StaleDataThreshold is the maximum oracle reading age, in seconds.
	StaleDataThreshold int64

	// MaxOracleDeviation is the maximum primary/secondary divergence,
	// integer percent.
	MaxOracleDeviation int64

	// CapitalEfficiencyRatio bounds total promised coverage relative to
	// pool funds (coverage may exceed balance by this multiple).
	CapitalEfficiencyRatio int64

	// MinPolicyDuration / MaxPolicyDuration bound policy lifetimes, seconds.
	MinPolicyDuration int64
	MaxPolicyDuration int64

	// RiskMultiplier scales the premium rate (divided by 10 in the formula,
	// so 10 is the neutral value).
	RiskMultiplier int64

	// MinPremium is the premium floor in token base units.
	MinPremium int64
}

// Defaults returns the deployment-time parameter set.
func Defaults() Params {
	return Params{
		StaleDataThreshold:     int64(3 * time.Hour / time.Second),
		MaxOracleDeviation:     5,
		CapitalEfficiencyRatio: 2,
		MinPolicyDuration:      int64(24 * time.Hour / time.Second),
		MaxPolicyDuration:      int64(365 * 24 * time.Hour / time.Second),
		RiskMultiplier:         10,
		MinPremium:             1,
	}
}

func (k Kind) String() string {
	switch k {
	case KindStaleDataThreshold:
		return "stale_data_threshold"
	case KindMaxOracleDeviation:
		return "max_oracle_deviation"
	case KindCapitalEfficiencyRatio:
		return "capital_efficiency_ratio"
	case KindMinPolicyDuration:
		return "min_policy_duration"
	case KindMaxPolicyDuration:
		return "max_policy_duration"
	case KindRiskMultiplier:
		return "risk_multiplier"
	case KindMinPremium:
		return "min_premium"
	default:
		return "unknown"
	}
}

// KindFromName resolves the external string-keyed parameter name used at the
// API edge. Internal dispatch is on Kind only.
func KindFromName(name string) (Kind, error) {
	switch name {
	case "stale_data_threshold":
		return KindStaleDataThreshold, nil
	case "max_oracle_deviation":
		return KindMaxOracleDeviation, nil
	case "capital_efficiency_ratio":
		return KindCapitalEfficiencyRatio, nil
	case "min_policy_duration":
		return KindMinPolicyDuration, nil
	case "max_policy_duration":
		return KindMaxPolicyDuration, nil
	case "risk_multiplier":
		return KindRiskMultiplier, nil
	case "min_premium":
		return KindMinPremium, nil
	default:
		return KindUnknown, fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
}

// Validate checks value against the admissible range for this kind.
// Duration bounds are cross-checked against the current parameter set so
// min can never be raised above max.
func (p *Params) Validate(kind Kind, value int64) error {
	switch kind {
	case KindStaleDataThreshold:
		return inRange(kind, value, 60, int64(24*time.Hour/time.Second))
	case KindMaxOracleDeviation:
		return inRange(kind, value, 1, 50)
	case KindCapitalEfficiencyRatio:
		return inRange(kind, value, 1, 10)
	case KindMinPolicyDuration:
		return inRange(kind, value, int64(time.Hour/time.Second), p.MaxPolicyDuration)
	case KindMaxPolicyDuration:
		return inRange(kind, value, p.MinPolicyDuration, int64(5*365*24*time.Hour/time.Second))
	case KindRiskMultiplier:
		return inRange(kind, value, 1, 1_000)
	case KindMinPremium:
		return inRange(kind, value, 0, 1_000_000_000_000)
	default:
		return ErrUnknownParameter
	}
}

// Set assigns value after validation.
func (p *Params) Set(kind Kind, value int64) error {
	if err := p.Validate(kind, value); err != nil {
		return err
	}

	switch kind {
	case KindStaleDataThreshold:
		p.StaleDataThreshold = value
	case KindMaxOracleDeviation:
		p.MaxOracleDeviation = value
	case KindCapitalEfficiencyRatio:
		p.CapitalEfficiencyRatio = value
	case KindMinPolicyDuration:
		p.MinPolicyDuration = value
	case KindMaxPolicyDuration:
		p.MaxPolicyDuration = value
	case KindRiskMultiplier:
		p.RiskMultiplier = value
	case KindMinPremium:
		p.MinPremium = value
	}
	return nil
}

// Get reads the current value for a kind.
func (p *Params) Get(kind Kind) (int64, error) {
	switch kind {
	case KindStaleDataThreshold:
		return p.StaleDataThreshold, nil
	case KindMaxOracleDeviation:
		return p.MaxOracleDeviation, nil
	case KindCapitalEfficiencyRatio:
		return p.CapitalEfficiencyRatio, nil
	case KindMinPolicyDuration:
		return p.MinPolicyDuration, nil
	case KindMaxPolicyDuration:
		return p.MaxPolicyDuration, nil
	case KindRiskMultiplier:
		return p.RiskMultiplier, nil
	case KindMinPremium:
		return p.MinPremium, nil
	default:
		return 0, ErrUnknownParameter
	}
}

func inRange(kind Kind, value, min, max int64) error {
	if value < min || value > max {
		return fmt.Errorf("%s out of range: %d not in [%d, %d]", kind, value, min, max)
	}
	return nil
}
