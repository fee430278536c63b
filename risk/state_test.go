package risk_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/synapsestrike/tradeengine/model"
	"github.com/synapsestrike/tradeengine/risk"
)

func TestApplyFill_StreaksAndTradeCount(t *testing.T) {
	now := time.Now()
	var state model.RiskState

	risk.ApplyFill(&state, 0, now)
	require.Equal(t, 1, state.TodayTradeCount)
	require.Zero(t, state.ConsecutiveWins, "an entry fill with no realized PnL must not move the streaks")
	require.Zero(t, state.ConsecutiveLosses)

	risk.ApplyFill(&state, -120, now)
	risk.ApplyFill(&state, -80, now)
	require.Equal(t, 3, state.TodayTradeCount)
	require.Equal(t, 2, state.ConsecutiveLosses)
	require.Zero(t, state.ConsecutiveWins)

	risk.ApplyFill(&state, 300, now)
	require.Equal(t, 1, state.ConsecutiveWins)
	require.Zero(t, state.ConsecutiveLosses, "a win resets the loss streak")
}

func TestApplyFill_LossStreakReachesBreakerThreshold(t *testing.T) {
	now := time.Now()
	cfg := risk.DefaultConfig()
	cfg.ConsecutiveLossLimit = 3

	var state model.RiskState
	for i := 0; i < 3; i++ {
		risk.ApplyFill(&state, -50, now)
	}
	risk.EvaluateRiskState(cfg, &state, now)

	require.True(t, state.CircuitBreakerTriggered)
	require.NotNil(t, state.CircuitBreakerReason)
	require.Equal(t, model.TriggerConsecutiveLosses, *state.CircuitBreakerReason)
	require.NotNil(t, state.CircuitBreakerUntil, "a loss-streak trip carries an explicit cooldown")
}
