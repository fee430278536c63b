// Package engine threads the decision pipeline's explicit handles
// through one scheduled tick: market data, the signal manager, the risk
// manager and circuit breaker, the trailing-stop engine, broker
// routing, persistence, audit, and metrics. Nothing here is a package
// singleton; lifetime follows this struct.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/synapsestrike/tradeengine/audit"
	"github.com/synapsestrike/tradeengine/broker"
	"github.com/synapsestrike/tradeengine/config"
	"github.com/synapsestrike/tradeengine/market"
	"github.com/synapsestrike/tradeengine/metrics"
	"github.com/synapsestrike/tradeengine/model"
	"github.com/synapsestrike/tradeengine/risk"
	"github.com/synapsestrike/tradeengine/signal"
	"github.com/synapsestrike/tradeengine/store"
	"github.com/synapsestrike/tradeengine/trailingstop"
)

// Engine owns one pass through the full pipeline per scheduled tick.
type Engine struct {
	Config *config.Config

	Market       *market.Provider
	Signals      *signal.Manager
	Risk         *risk.Manager
	Breaker      *risk.CircuitBreaker
	TrailingStop *trailingstop.Engine
	Broker       *broker.Router

	Trades     *store.TradeRepo
	Positions  *store.PositionRepo
	SignalRepo *store.SignalRepo
	RiskState  *store.RiskStateRepo
	Metrics    *store.MetricsRepo
	Audit      *audit.Logger

	Now        func() time.Time
	NewOrderID func() string

	cron   *cron.Cron
	tickMu sync.Mutex
	riskMu sync.Mutex // serializes fill application to the risk state
}

// New builds an Engine with every dependency wired, the circuit
// breaker's trip/reset callbacks hooked to audit and metrics, and its
// own cron scheduler.
func New(cfg *config.Config, deps Dependencies) *Engine {
	e := &Engine{
		Config:       cfg,
		Market:       deps.Market,
		Signals:      deps.Signals,
		Risk:         deps.Risk,
		Breaker:      risk.NewCircuitBreaker(cfg.Risk),
		TrailingStop: deps.TrailingStop,
		Broker:       deps.Broker,
		Trades:       deps.Trades,
		Positions:    deps.Positions,
		SignalRepo:   deps.SignalRepo,
		RiskState:    deps.RiskState,
		Metrics:      deps.Metrics,
		Audit:        deps.Audit,
		Now:          time.Now,
		NewOrderID:   deps.NewOrderID,
	}
	e.Breaker.OnTrip = func(trigger model.CircuitBreakerTrigger, until *time.Time) {
		e.Audit.Critical(model.CategoryRisk, "circuit breaker tripped", map[string]any{"trigger": string(trigger)})
		metrics.SetCircuitBreakerState(true, false)
	}
	e.Breaker.OnReset = func() {
		e.Audit.Info(model.CategoryRisk, "circuit breaker reset", nil)
		metrics.SetCircuitBreakerState(false, false)
	}
	return e
}

// Dependencies is every collaborator New wires into an Engine. Kept as
// a struct rather than a long positional parameter list.
type Dependencies struct {
	Market       *market.Provider
	Signals      *signal.Manager
	Risk         *risk.Manager
	TrailingStop *trailingstop.Engine
	Broker       *broker.Router
	Trades       *store.TradeRepo
	Positions    *store.PositionRepo
	SignalRepo   *store.SignalRepo
	RiskState    *store.RiskStateRepo
	Metrics      *store.MetricsRepo
	Audit        *audit.Logger
	NewOrderID   func() string
}

// Start launches the audit drain goroutine and the cron scheduler:
// per-minute tick, hourly equity snapshot, daily reset, weekly reset.
func (e *Engine) Start(ctx context.Context) error {
	e.Audit.Start()

	e.cron = cron.New()
	if _, err := e.cron.AddFunc(e.Config.TickCron, func() { e.runTickSafely(ctx) }); err != nil {
		return fmt.Errorf("engine: scheduling tick: %w", err)
	}
	if _, err := e.cron.AddFunc(e.Config.EquitySnapshotCron, func() { e.logScheduledErr("equity snapshot", e.RunEquitySnapshot(ctx)) }); err != nil {
		return fmt.Errorf("engine: scheduling equity snapshot: %w", err)
	}
	if _, err := e.cron.AddFunc(e.Config.DailyResetCron, func() { e.logScheduledErr("daily reset", e.RunDailyReset(ctx)) }); err != nil {
		return fmt.Errorf("engine: scheduling daily reset: %w", err)
	}
	if _, err := e.cron.AddFunc(e.Config.WeeklyResetCron, func() { e.logScheduledErr("weekly reset", e.RunWeeklyReset(ctx)) }); err != nil {
		return fmt.Errorf("engine: scheduling weekly reset: %w", err)
	}
	e.cron.Start()
	return nil
}

// Stop drains the cron scheduler and the audit logger.
func (e *Engine) Stop() {
	if e.cron != nil {
		<-e.cron.Stop().Done()
	}
	e.Audit.Stop()
}

// runTickSafely ensures at most one tick is active at a time: the
// scheduler drops overlapping fires rather than queuing them.
func (e *Engine) runTickSafely(ctx context.Context) {
	if !e.tickMu.TryLock() {
		e.Audit.Warn(model.CategorySystem, "tick skipped: previous tick still running", nil)
		return
	}
	defer e.tickMu.Unlock()

	start := e.Now()
	if err := e.RunTick(ctx); err != nil {
		e.Audit.Error(model.CategorySystem, "tick failed", map[string]any{"error": err.Error()})
	}
	metrics.TickDuration.Observe(e.Now().Sub(start).Seconds())
}

func (e *Engine) logScheduledErr(name string, err error) {
	if err != nil {
		e.Audit.Error(model.CategorySystem, name+" failed", map[string]any{"error": err.Error()})
	}
}

func tradingDay(now time.Time) string { return now.UTC().Format("2006-01-02") }

func positionID(symbol, brokerName string) string { return symbol + "|" + brokerName }
