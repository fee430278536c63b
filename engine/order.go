package engine

import (
	"context"
	"errors"
	"time"

	"github.com/synapsestrike/tradeengine/broker"
	"github.com/synapsestrike/tradeengine/metrics"
	"github.com/synapsestrike/tradeengine/model"
	"github.com/synapsestrike/tradeengine/risk"
)

// evaluateAndSubmit runs a freshly emitted signal through the risk
// chain and, on ALLOW or REDUCE, submits the resulting order to the
// broker, persists it, and registers trailing-stop bookkeeping. BLOCK
// decisions are audited and otherwise have no further effect.
func (e *Engine) evaluateAndSubmit(ctx context.Context, sig model.Signal, account model.AggregatedAccount, state model.RiskState) error {
	decision := e.Risk.EvaluateOrder(sig, account, state)
	metrics.RecordRiskDecision(primaryGate(decision), string(decision.Outcome))

	e.Audit.Info(model.CategoryRisk, "risk decision", map[string]any{
		"signal": sig.ID, "outcome": string(decision.Outcome), "reason": decision.Reason, "positionSize": decision.PositionSize,
	})
	for _, w := range decision.Warnings {
		e.Audit.Warn(model.CategoryRisk, w, map[string]any{"signal": sig.ID})
	}

	if decision.Outcome == risk.Block {
		if err := e.SignalRepo.UpdateStatus(sig.ID, model.SignalCancelled); err != nil {
			return err
		}
		return nil
	}
	if decision.PositionSize <= 0 {
		return nil
	}

	assetClass := sig.AssetClass
	side := model.Buy
	if sig.Direction == model.DirectionShort {
		side = model.Sell
	}

	order := model.Order{
		ID:            e.NewOrderID(),
		Symbol:        sig.Symbol,
		AssetClass:    assetClass,
		Broker:        e.brokerNameFor(assetClass),
		ClientOrderID: e.NewOrderID(),
		Side:          side,
		Quantity:      decision.PositionSize,
		OrderType:     model.OrderMarket,
		SignalID:      &sig.ID,
		Status:        model.OrderPending,
		CreatedAt:     e.Now(),
		UpdatedAt:     e.Now(),
	}
	if err := order.Validate(); err != nil {
		return err
	}
	persisted, err := e.Trades.Create(order)
	if err != nil {
		return err
	}

	brokerCtx, cancel := context.WithTimeout(ctx, e.Config.BrokerTimeout)
	defer cancel()

	start := e.Now()
	result, err := e.Broker.PlaceOrder(brokerCtx, broker.UnifiedOrder{
		ClientOrderID: persisted.ClientOrderID, Symbol: sig.Symbol, AssetClass: assetClass,
		Side: side, Quantity: decision.PositionSize, OrderType: model.OrderMarket, SignalID: &sig.ID,
	})
	metrics.OrderSubmitDuration.WithLabelValues(persisted.Broker).Observe(e.Now().Sub(start).Seconds())

	var rejected *broker.OrderRejectedError
	if errors.As(err, &rejected) {
		now := e.Now()
		if uerr := e.Trades.UpdateStatus(persisted.ID, model.OrderRejected, 0, nil, nil, now); uerr != nil {
			return uerr
		}
		e.Audit.Error(model.CategoryOrder, "order rejected", map[string]any{"order": persisted.ID, "reason": rejected.Reason})
		metrics.OrderFillsTotal.WithLabelValues(persisted.Broker, string(model.OrderRejected)).Inc()
		return e.SignalRepo.UpdateStatus(sig.ID, model.SignalExpired)
	}
	if err != nil {
		return err
	}

	var filledAt *time.Time
	if result.Status == model.OrderFilled {
		now := e.Now()
		filledAt = &now
	}
	if err := e.Trades.UpdateStatus(persisted.ID, result.Status, result.FilledQuantity, result.AvgFillPrice, filledAt, e.Now()); err != nil {
		return err
	}
	metrics.OrderFillsTotal.WithLabelValues(persisted.Broker, string(result.Status)).Inc()

	if err := e.SignalRepo.UpdateStatus(sig.ID, model.SignalExecuted); err != nil {
		return err
	}

	if result.FilledQuantity > 0 {
		if err := e.recordFill(0); err != nil {
			e.Audit.Error(model.CategoryRisk, "failed to record fill on risk state", map[string]any{"order": persisted.ID, "error": err.Error()})
		}
		entryPrice := sig.EntryPrice
		if result.AvgFillPrice != nil {
			entryPrice = *result.AvgFillPrice
		}
		posSide := model.PositionLong
		if side == model.Sell {
			posSide = model.PositionShort
		}
		e.TrailingStop.Register(positionID(sig.Symbol, persisted.Broker), sig.Symbol, posSide, entryPrice, sig.StopLoss)
		if err := e.Positions.Upsert(model.Position{
			Symbol: sig.Symbol, AssetClass: assetClass, Broker: persisted.Broker, Side: posSide,
			Quantity: result.FilledQuantity, EntryPrice: entryPrice, CurrentPrice: entryPrice,
			MarketValue: result.FilledQuantity * entryPrice, UpdatedAt: e.Now(),
		}); err != nil {
			return err
		}
	}

	return nil
}

func (e *Engine) brokerNameFor(assetClass model.AssetClass) string {
	if assetClass == model.Futures && e.Broker.Futures != nil {
		return e.Broker.Futures.GetBrokerType()
	}
	if e.Broker.Equity != nil {
		return e.Broker.Equity.GetBrokerType()
	}
	return ""
}

func primaryGate(d risk.Decision) string {
	if len(d.Checks) == 0 {
		return "none"
	}
	return d.Checks[len(d.Checks)-1].Gate
}
