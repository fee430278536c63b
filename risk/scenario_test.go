package risk_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/synapsestrike/tradeengine/model"
	"github.com/synapsestrike/tradeengine/risk"
)

func baseSignal(now time.Time) model.Signal {
	return model.Signal{
		ID: "sig-1", Symbol: "MNQ", AssetClass: model.Futures, Timeframe: "1m",
		Direction: model.DirectionLong, Strength: 0.8, EntryPrice: 15000, StopLoss: 14900,
		Source: model.SourceMomentum, Status: model.SignalActive, Timestamp: now, ExpiresAt: now.Add(5 * time.Minute),
	}
}

func baseAccount(equity float64, positions ...model.Position) model.AggregatedAccount {
	return model.AggregatedAccount{TotalEquity: equity, TotalCash: equity, TotalBuyingPower: equity, Positions: positions}
}

// Position sizing lands at qty=18.0 on a 100 000 equity account, whose
// notional exceeds the 20% max-position-percent limit and gets halved
// to 9.0.
func TestEvaluateOrder_ReducesOversizedPosition(t *testing.T) {
	now := time.Now()
	mgr := risk.NewManager(risk.DefaultConfig())

	decision := mgr.EvaluateOrder(baseSignal(now), baseAccount(100000), model.RiskState{})

	require.Equal(t, risk.Reduce, decision.Outcome)
	require.InDelta(t, 9.0, decision.PositionSize, 0.01)
	require.Contains(t, decision.Reason, "Position size reduced")
}

// Ten existing positions trip the concurrent-positions gate regardless
// of signal.
func TestEvaluateOrder_BlocksAtConcurrentPositionLimit(t *testing.T) {
	now := time.Now()
	mgr := risk.NewManager(risk.DefaultConfig())

	var positions []model.Position
	for i := 0; i < 10; i++ {
		positions = append(positions, model.Position{Symbol: "SYM", AssetClass: model.Equity, Side: model.PositionLong, Quantity: 1, EntryPrice: 100, CurrentPrice: 100})
	}

	decision := mgr.EvaluateOrder(baseSignal(now), baseAccount(100000, positions...), model.RiskState{})

	require.Equal(t, risk.Block, decision.Outcome)
	require.Equal(t, "Maximum concurrent positions reached", decision.Reason)
}

// A triggered breaker with a future Until blocks every signal; once the
// cooldown has elapsed and the breaker is reset, evaluation resumes
// normally.
func TestEvaluateOrder_CircuitBreakerBlocksUntilReset(t *testing.T) {
	now := time.Now()
	mgr := risk.NewManager(risk.DefaultConfig())

	until := now.Add(5 * time.Minute)
	reason := model.TriggerDrawdown
	triggered := model.RiskState{CircuitBreakerTriggered: true, CircuitBreakerUntil: &until, CircuitBreakerReason: &reason}

	decision := mgr.EvaluateOrder(baseSignal(now), baseAccount(100000), triggered)
	require.Equal(t, risk.Block, decision.Outcome)
	require.Equal(t, "Circuit breaker is active", decision.Reason)

	later := now.Add(10 * time.Minute)
	require.True(t, risk.Resettable(triggered, later))
	risk.Reset(&triggered)
	require.False(t, triggered.CircuitBreakerTriggered)

	resumed := mgr.EvaluateOrder(baseSignal(later), baseAccount(100000), triggered)
	require.NotEqual(t, risk.Block, resumed.Outcome)
}
