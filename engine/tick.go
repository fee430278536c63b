package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/synapsestrike/tradeengine/broker"
	"github.com/synapsestrike/tradeengine/indicator"
	"github.com/synapsestrike/tradeengine/market"
	"github.com/synapsestrike/tradeengine/metrics"
	"github.com/synapsestrike/tradeengine/model"
)

// RunTick drives one pass through the pipeline: expire stale signals,
// refresh risk state, update trailing stops, then evaluate every
// configured symbol on a
// bounded worker pool. Per-symbol work is sequential; across symbols it
// is concurrent.
func (e *Engine) RunTick(ctx context.Context) error {
	now := e.Now()

	if expired, err := e.SignalRepo.ExpireStale(now); err != nil {
		e.Audit.Error(model.CategorySystem, "failed to expire stale signals", map[string]any{"error": err.Error()})
	} else if expired > 0 {
		metrics.SignalsExpiredTotal.Add(float64(expired))
	}

	account, err := e.Broker.AggregatedAccount(ctx)
	if err != nil {
		e.Audit.Error(model.CategoryBroker, "failed to fetch aggregated account", map[string]any{"error": err.Error()})
		return err
	}
	metrics.OpenPositionsCount.Set(float64(len(account.Positions)))
	metrics.EquityTotal.Set(account.TotalEquity)

	state, err := e.refreshRiskState(account, now)
	if err != nil {
		return err
	}

	e.manageTrailingStops(ctx, account)

	sem := make(chan struct{}, e.Config.MaxConcurrentSymbols)
	var wg sync.WaitGroup
	for _, symbol := range e.Config.Symbols {
		symbol := symbol
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			if err := e.tickSymbol(ctx, symbol, account, *state); err != nil {
				e.Audit.Error(model.CategorySystem, "symbol tick failed", map[string]any{"symbol": symbol, "error": err.Error()})
			}
		}()
	}
	wg.Wait()
	return nil
}

// tickSymbol runs the sequential per-symbol pipeline: load bars,
// evaluate signals, persist them, then run each through the risk chain
// and submit any resulting order.
func (e *Engine) tickSymbol(ctx context.Context, symbol string, account model.AggregatedAccount, state model.RiskState) error {
	assetClass := broker.Route(symbol)

	bars, err := e.Market.FetchHistoricalData(ctx, symbol, e.Config.Timeframe, market.HistoricalParams{Limit: 200})
	if err != nil {
		if errors.Is(err, indicator.ErrInsufficientData) {
			return nil
		}
		return err
	}

	signals, err := e.Signals.Evaluate(symbol, assetClass, e.Config.Timeframe, bars)
	if err != nil {
		if errors.Is(err, indicator.ErrInsufficientData) {
			return nil
		}
		return err
	}

	for _, sig := range signals {
		if err := e.SignalRepo.Create(sig); err != nil {
			e.Audit.Error(model.CategorySignal, "failed to persist signal", map[string]any{"symbol": symbol, "error": err.Error()})
			continue
		}
		metrics.SignalsEmittedTotal.WithLabelValues(string(sig.Source), string(sig.Direction), sig.Symbol).Inc()
		e.Audit.Info(model.CategorySignal, "signal emitted", map[string]any{
			"symbol": sig.Symbol, "direction": string(sig.Direction), "strength": sig.Strength, "source": string(sig.Source),
		})

		if err := e.evaluateAndSubmit(ctx, sig, account, state); err != nil {
			e.Audit.Error(model.CategoryOrder, "failed to act on signal", map[string]any{"signal": sig.ID, "error": err.Error()})
		}
	}
	return nil
}
