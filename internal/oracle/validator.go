package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	fpmath "CoverPool/internal/math"
)

// ErrInvalidOraclePrice is returned by CurrentPrice when the primary
// source reports a non-positive answer.
var ErrInvalidOraclePrice = errors.New("invalid oracle price")

// Health is the outcome of one validation pass.
type Health struct {
	Healthy bool
	Reason  string
	// Price is the primary answer, valid only when Healthy.
	Price int64
}

// Limits are the validation tolerances, read from protocol parameters on
// every check. Results are never cached: staleness is time-relative.
type Limits struct {
	StaleDataThreshold int64 // Seconds
	MaxDeviation       int64 // Integer percent
}

// Validator cross-checks the primary price source and, when configured,
// a secondary source used for deviation validation only, never pricing.
//
// NAMED RISK: a failure to *reach* the secondary (as opposed to a reported
// unhealthy condition) is tolerated and validation falls back to
// primary-only health. This prioritizes availability over strict
// dual-confirmation; a fail-closed variant is a legitimate alternative.
type Validator struct {
	primary   PriceSource
	secondary PriceSource
	now       func() time.Time
	logger    zerolog.Logger
}

func NewValidator(primary PriceSource, logger zerolog.Logger) *Validator {
	return &Validator{
		primary: primary,
		now:     time.Now,
		logger:  logger.With().Str("component", "oracle_validator").Logger(),
	}
}

// SetSecondary installs or replaces the cross-validation source.
func (v *Validator) SetSecondary(src PriceSource) {
	v.secondary = src
}

// HasSecondary reports whether a cross-validation source is configured.
func (v *Validator) HasSecondary() bool {
	return v.secondary != nil
}

// SetClock overrides the time source. Test hook.
func (v *Validator) SetClock(now func() time.Time) {
	v.now = now
}

// CheckHealth fetches the primary round (and the secondary round, if one
// is configured) and classifies the feed. Re-run independently at policy
// creation and at every claim attempt.
func (v *Validator) CheckHealth(ctx context.Context, limits Limits) Health {
	round, err := v.primary.LatestRound(ctx)
	if err != nil {
		v.logger.Warn().Err(err).Msg("primary oracle unreachable")
		return Health{Healthy: false, Reason: "fetch failed"}
	}

	nowUnix := v.now().Unix()

	if round.Price <= 0 {
		return Health{Healthy: false, Reason: "invalid price"}
	}
	if round.UpdatedAt == 0 || nowUnix-round.UpdatedAt > limits.StaleDataThreshold {
		return Health{Healthy: false, Reason: "stale"}
	}
	if round.AnsweredInRound < round.RoundID {
		return Health{Healthy: false, Reason: "incomplete round"}
	}

	if v.secondary != nil {
		if h := v.crossCheck(ctx, round, limits, nowUnix); !h.Healthy {
			return h
		}
	}

	return Health{Healthy: true, Price: round.Price}
}

func (v *Validator) crossCheck(ctx context.Context, primary Round, limits Limits, nowUnix int64) Health {
	second, err := v.secondary.LatestRound(ctx)
	if err != nil {
		// Tolerated: fall back to primary-only health (see type doc).
		v.logger.Warn().Err(err).Msg("secondary oracle unreachable, validating primary-only")
		return Health{Healthy: true, Price: primary.Price}
	}

	if second.UpdatedAt == 0 || nowUnix-second.UpdatedAt > limits.StaleDataThreshold {
		return Health{Healthy: false, Reason: "secondary stale"}
	}

	if second.Price > 0 {
		deviation := fpmath.PercentOfDiff(primary.Price, second.Price, primary.Price)
		if deviation > limits.MaxDeviation {
			v.logger.Warn().
				Int64("primary", primary.Price).
				Int64("secondary", second.Price).
				Int64("deviation_pct", deviation).
				Msg("oracle deviation exceeded")
			return Health{Healthy: false, Reason: "deviation too high"}
		}
	}

	return Health{Healthy: true, Price: primary.Price}
}

// CurrentPrice returns the primary answer for pricing. It does not apply
// staleness or deviation checks; callers needing health gating run
// CheckHealth first.
func (v *Validator) CurrentPrice(ctx context.Context) (int64, error) {
	round, err := v.primary.LatestRound(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch primary round: %w", err)
	}
	if round.Price <= 0 {
		return 0, ErrInvalidOraclePrice
	}
	return round.Price, nil
}
