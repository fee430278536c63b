package risk_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/synapsestrike/tradeengine/risk"
)

// TestComputeSize_RespectsOrderValueBounds checks the sizing safety
// invariant: whenever equity and stop distance are positive, the
// resulting notional stays within [minOrderValue, maxOrderValue] up to
// the two-decimal quantity rounding.
func TestComputeSize_RespectsOrderValueBounds(t *testing.T) {
	cfg := risk.DefaultConfig()
	cfg.MinOrderValue = 500
	cfg.MaxOrderValue = 10000

	cases := []struct {
		name     string
		equity   float64
		entry    float64
		stop     float64
		strength float64
	}{
		{"tight stop pushes qty up", 100000, 100, 99.9, 1.0},
		{"wide stop pushes qty down", 100000, 100, 50, 0.2},
		{"small equity", 1000, 250, 245, 0.6},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := risk.ComputeSize(cfg, c.equity, c.entry, c.stop, c.strength)
			notional := got.Quantity * c.entry
			require.LessOrEqual(t, notional, cfg.MaxOrderValue+c.entry*0.005)
			require.GreaterOrEqual(t, notional, cfg.MinOrderValue-c.entry*0.005)
		})
	}
}

func TestComputeSize_ZeroOnInvalidInputs(t *testing.T) {
	cfg := risk.DefaultConfig()
	require.Zero(t, risk.ComputeSize(cfg, 0, 100, 99, 0.8).Quantity)
	require.Zero(t, risk.ComputeSize(cfg, 100000, 100, 100, 0.8).Quantity)
}

func TestComputeSize_ScenarioArithmetic(t *testing.T) {
	cfg := risk.DefaultConfig()
	cfg.MaxOrderValue = 1000000

	got := risk.ComputeSize(cfg, 100000, 15000, 14900, 0.8)
	require.InDelta(t, 18.0, got.Quantity, 0.01)
}
