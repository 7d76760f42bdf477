package solvency_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"CoverPool/internal/solvency"
)

func TestCanAdmit(t *testing.T) {
	c := solvency.Controller{CapitalEfficiencyRatio: 2}

	tests := []struct {
		name        string
		aggregate   int64
		newCoverage int64
		poolBalance int64
		premium     int64
		want        bool
	}{
		{"empty pool fits within leveraged capacity", 0, 1000, 450, 100, true},
		{"exactly at capacity", 0, 1100, 450, 100, true},
		{"one over capacity", 0, 1101, 450, 100, false},
		{"premium counts toward capacity", 0, 200, 0, 100, true},
		{"existing coverage consumes capacity", 950, 200, 450, 100, false},
		{"zero pool zero premium", 0, 1, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.CanAdmit(tt.aggregate, tt.newCoverage, tt.poolBalance, tt.premium)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanAdmit_RatioOne(t *testing.T) {
	c := solvency.Controller{CapitalEfficiencyRatio: 1}

	// Fully collateralized mode: coverage cannot exceed funds held.
	assert.True(t, c.CanAdmit(0, 100, 100, 0))
	assert.False(t, c.CanAdmit(0, 101, 100, 0))
}

func TestExcessFunds(t *testing.T) {
	assert.Equal(t, int64(400), solvency.ExcessFunds(1000, 600))
	assert.Equal(t, int64(0), solvency.ExcessFunds(600, 600))
	// Under-collateralized pool has no excess, never a negative value.
	assert.Equal(t, int64(0), solvency.ExcessFunds(500, 600))
}
