package engine

import (
	"context"

	"github.com/synapsestrike/tradeengine/model"
	"github.com/synapsestrike/tradeengine/risk"
	"github.com/synapsestrike/tradeengine/store"
)

// RunEquitySnapshot records one equity-curve sample, driven by the
// hourly schedule.
func (e *Engine) RunEquitySnapshot(ctx context.Context) error {
	account, err := e.Broker.AggregatedAccount(ctx)
	if err != nil {
		return err
	}
	return e.Metrics.RecordEquityPoint(store.EquityPoint{
		RecordedAt: e.Now(), Equity: account.TotalEquity, Cash: account.TotalCash, BuyingPower: account.TotalBuyingPower,
	})
}

// RunDailyReset closes out the trading day's metrics, rolls
// StartOfDayEquity forward, and clears any DAILY_LOSS circuit-breaker
// trip, which carries no automatic cooldown and is cleared only by
// this scheduled boundary (or a manual reset).
func (e *Engine) RunDailyReset(ctx context.Context) error {
	now := e.Now()
	account, err := e.Broker.AggregatedAccount(ctx)
	if err != nil {
		return err
	}

	state, err := e.RiskState.Get(e.Config.StartingEquity, tradingDay(now), now)
	if err != nil {
		return err
	}

	if err := e.Metrics.UpsertDaily(store.DailyMetrics{
		TradingDay: state.TradingDay, StartingEquity: state.StartOfDayEquity, EndingEquity: state.CurrentEquity,
		RealizedPnl: state.DailyPnl, TradeCount: state.TodayTradeCount,
		WinCount: state.ConsecutiveWins, LossCount: state.ConsecutiveLosses, UpdatedAt: now,
	}); err != nil {
		return err
	}

	wasTriggered := state.CircuitBreakerTriggered
	if state.CircuitBreakerReason != nil && *state.CircuitBreakerReason == model.TriggerDailyLoss {
		risk.Reset(state)
	}
	state.StartOfDayEquity = account.TotalEquity
	state.DailyPnl = 0
	state.DailyPnlPercent = 0
	state.TodayTradeCount = 0
	state.TradingDay = tradingDay(now)
	state.LastUpdated = now

	if err := e.RiskState.Save(*state); err != nil {
		return err
	}
	if wasTriggered && !state.CircuitBreakerTriggered {
		e.Breaker.OnReset()
	}
	e.Audit.Info(model.CategorySystem, "daily reset completed", map[string]any{"tradingDay": state.TradingDay})
	return nil
}

// RunWeeklyReset rolls StartOfWeekEquity forward and clears any
// WEEKLY_LOSS trip, driven by the Monday schedule.
func (e *Engine) RunWeeklyReset(ctx context.Context) error {
	now := e.Now()
	account, err := e.Broker.AggregatedAccount(ctx)
	if err != nil {
		return err
	}

	state, err := e.RiskState.Get(e.Config.StartingEquity, tradingDay(now), now)
	if err != nil {
		return err
	}

	wasTriggered := state.CircuitBreakerTriggered
	if state.CircuitBreakerReason != nil && *state.CircuitBreakerReason == model.TriggerWeeklyLoss {
		risk.Reset(state)
	}
	state.StartOfWeekEquity = account.TotalEquity
	state.WeeklyPnl = 0
	state.WeeklyPnlPercent = 0
	state.LastUpdated = now

	if err := e.RiskState.Save(*state); err != nil {
		return err
	}
	if wasTriggered && !state.CircuitBreakerTriggered {
		e.Breaker.OnReset()
	}
	e.Audit.Info(model.CategorySystem, "weekly reset completed", nil)
	return nil
}

// ResetCircuitBreaker clears a triggered breaker on demand. The api
// package gates the call behind a TOTP confirmation before invoking it;
// the engine itself trusts its caller.
func (e *Engine) ResetCircuitBreaker(ctx context.Context) error {
	now := e.Now()
	state, err := e.RiskState.Get(e.Config.StartingEquity, tradingDay(now), now)
	if err != nil {
		return err
	}
	risk.Reset(state)
	state.LastUpdated = now
	if err := e.RiskState.Save(*state); err != nil {
		return err
	}
	e.Breaker.OnReset()
	e.Audit.Critical(model.CategoryRisk, "circuit breaker manually reset", nil)
	return nil
}
