package oracle_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CoverPool/internal/oracle"
	"CoverPool/internal/testutil"
)

var testTime = time.Unix(1_700_000_000, 0)

func testLimits() oracle.Limits {
	return oracle.Limits{
		StaleDataThreshold: int64(3 * time.Hour / time.Second),
		MaxDeviation:       5,
	}
}

func newValidator(primary oracle.PriceSource) *oracle.Validator {
	v := oracle.NewValidator(primary, zerolog.Nop())
	v.SetClock(func() time.Time { return testTime })
	return v
}

func TestCheckHealth_HealthyPrimaryOnly(t *testing.T) {
	primary := testutil.NewScriptedOracle(3000, testTime.Unix())
	v := newValidator(primary)

	h := v.CheckHealth(context.Background(), testLimits())
	require.True(t, h.Healthy)
	assert.Equal(t, int64(3000), h.Price)
}

func TestCheckHealth_FetchFailed(t *testing.T) {
	primary := testutil.NewScriptedOracle(3000, testTime.Unix())
	primary.Fail(errors.New("rpc down"))
	v := newValidator(primary)

	h := v.CheckHealth(context.Background(), testLimits())
	assert.False(t, h.Healthy)
	assert.Equal(t, "fetch failed", h.Reason)
}

func TestCheckHealth_InvalidPrice(t *testing.T) {
	for _, price := range []int64{0, -100} {
		primary := testutil.NewScriptedOracle(price, testTime.Unix())
		v := newValidator(primary)

		h := v.CheckHealth(context.Background(), testLimits())
		assert.False(t, h.Healthy)
		assert.Equal(t, "invalid price", h.Reason)
	}
}

func TestCheckHealth_Staleness(t *testing.T) {
	limits := testLimits()

	// Exactly at the threshold is still fresh.
	atLimit := testutil.NewScriptedOracle(3000, testTime.Unix()-limits.StaleDataThreshold)
	h := newValidator(atLimit).CheckHealth(context.Background(), limits)
	assert.True(t, h.Healthy)

	// One second past is stale.
	past := testutil.NewScriptedOracle(3000, testTime.Unix()-limits.StaleDataThreshold-1)
	h = newValidator(past).CheckHealth(context.Background(), limits)
	assert.False(t, h.Healthy)
	assert.Equal(t, "stale", h.Reason)

	// A zero update timestamp never counts as fresh.
	zero := testutil.NewScriptedOracle(3000, 0)
	h = newValidator(zero).CheckHealth(context.Background(), limits)
	assert.False(t, h.Healthy)
	assert.Equal(t, "stale", h.Reason)
}

func TestCheckHealth_IncompleteRound(t *testing.T) {
	primary := testutil.NewScriptedOracle(3000, testTime.Unix())
	primary.SetRound(oracle.Round{
		RoundID:         10,
		Price:           3000,
		StartedAt:       testTime.Unix(),
		UpdatedAt:       testTime.Unix(),
		AnsweredInRound: 9,
	})
	v := newValidator(primary)

	h := v.CheckHealth(context.Background(), testLimits())
	assert.False(t, h.Healthy)
	assert.Equal(t, "incomplete round", h.Reason)
}

func TestCheckHealth_DeviationBoundary(t *testing.T) {
	primary := testutil.NewScriptedOracle(3000, testTime.Unix())

	// 5% away: |3000-2850|*100/3000 = 5, not above the limit of 5.
	within := testutil.NewScriptedOracle(2850, testTime.Unix())
	v := newValidator(primary)
	v.SetSecondary(within)
	h := v.CheckHealth(context.Background(), testLimits())
	assert.True(t, h.Healthy)

	// 6% away fails.
	outside := testutil.NewScriptedOracle(2820, testTime.Unix())
	v.SetSecondary(outside)
	h = v.CheckHealth(context.Background(), testLimits())
	assert.False(t, h.Healthy)
	assert.Equal(t, "deviation too high", h.Reason)
}

func TestCheckHealth_SecondaryStale(t *testing.T) {
	primary := testutil.NewScriptedOracle(3000, testTime.Unix())
	stale := testutil.NewScriptedOracle(3000, testTime.Unix()-int64(4*time.Hour/time.Second))
	v := newValidator(primary)
	v.SetSecondary(stale)

	h := v.CheckHealth(context.Background(), testLimits())
	assert.False(t, h.Healthy)
	assert.Equal(t, "secondary stale", h.Reason)
}

func TestCheckHealth_SecondaryUnreachableFallsBack(t *testing.T) {
	primary := testutil.NewScriptedOracle(3000, testTime.Unix())
	secondary := testutil.NewScriptedOracle(3000, testTime.Unix())
	secondary.Fail(errors.New("rpc timeout"))
	v := newValidator(primary)
	v.SetSecondary(secondary)

	// An unreachable secondary degrades to primary-only validation
	// instead of blocking the operation.
	h := v.CheckHealth(context.Background(), testLimits())
	assert.True(t, h.Healthy)
	assert.Equal(t, int64(3000), h.Price)
}

func TestCurrentPrice(t *testing.T) {
	primary := testutil.NewScriptedOracle(3000, testTime.Unix())
	v := newValidator(primary)

	price, err := v.CurrentPrice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3000), price)

	primary.SetRound(oracle.Round{RoundID: 2, Price: 0, UpdatedAt: testTime.Unix(), AnsweredInRound: 2})
	_, err = v.CurrentPrice(context.Background())
	assert.ErrorIs(t, err, oracle.ErrInvalidOraclePrice)
}
