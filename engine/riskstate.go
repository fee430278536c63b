package engine

import (
	"time"

	"github.com/synapsestrike/tradeengine/model"
	"github.com/synapsestrike/tradeengine/risk"
)

// refreshRiskState loads the singleton RiskState, updates its equity and
// drawdown figures from the latest account snapshot, trips or
// auto-resets the circuit breaker as thresholds are crossed, and
// persists the result. Every save produces an audit entry.
func (e *Engine) refreshRiskState(account model.AggregatedAccount, now time.Time) (*model.RiskState, error) {
	state, err := e.RiskState.Get(e.Config.StartingEquity, tradingDay(now), now)
	if err != nil {
		return nil, err
	}

	state.CurrentEquity = account.TotalEquity
	state.RecomputeDrawdown()
	if state.StartOfDayEquity > 0 {
		state.DailyPnl = state.CurrentEquity - state.StartOfDayEquity
		state.DailyPnlPercent = state.DailyPnl / state.StartOfDayEquity * 100
	}
	if state.StartOfWeekEquity > 0 {
		state.WeeklyPnl = state.CurrentEquity - state.StartOfWeekEquity
		state.WeeklyPnlPercent = state.WeeklyPnl / state.StartOfWeekEquity * 100
	}
	state.DayTradesUsed = account.DayTradesUsed
	state.DayTradesRemaining = account.DayTradesLimit - account.DayTradesUsed
	state.LastUpdated = now

	wasTriggered := state.CircuitBreakerTriggered
	if !state.CircuitBreakerTriggered {
		risk.EvaluateRiskState(e.Config.Risk, state, now)
		if state.CircuitBreakerTriggered && !wasTriggered {
			e.Breaker.Trip(now)
		}
	} else if risk.Resettable(*state, now) {
		risk.Reset(state)
		e.Audit.Info(model.CategoryRisk, "circuit breaker auto-reset after cooldown", nil)
	}

	if err := e.RiskState.Save(*state); err != nil {
		return nil, err
	}
	e.Audit.Info(model.CategoryRisk, "risk state refreshed", map[string]any{
		"currentEquity": state.CurrentEquity, "dailyPnlPercent": state.DailyPnlPercent,
		"circuitBreakerTriggered": state.CircuitBreakerTriggered,
	})
	return state, nil
}

// recordFill applies one fill's outcome to the persisted risk state,
// one fill at a time: symbol goroutines within a tick can report fills
// concurrently, and a later tick must already see the effects of every
// fill from earlier ones.
func (e *Engine) recordFill(realizedPnl float64) error {
	e.riskMu.Lock()
	defer e.riskMu.Unlock()

	now := e.Now()
	state, err := e.RiskState.Get(e.Config.StartingEquity, tradingDay(now), now)
	if err != nil {
		return err
	}

	risk.ApplyFill(state, realizedPnl, now)

	wasTriggered := state.CircuitBreakerTriggered
	if !wasTriggered {
		risk.EvaluateRiskState(e.Config.Risk, state, now)
		if state.CircuitBreakerTriggered {
			e.Breaker.Trip(now)
		}
	}

	if err := e.RiskState.Save(*state); err != nil {
		return err
	}
	e.Audit.Info(model.CategoryRisk, "risk state updated on fill", map[string]any{
		"realizedPnl": realizedPnl, "todayTradeCount": state.TodayTradeCount,
		"consecutiveLosses": state.ConsecutiveLosses,
	})
	return nil
}
