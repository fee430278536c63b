package engine

import (
	"context"

	"github.com/synapsestrike/tradeengine/broker"
	"github.com/synapsestrike/tradeengine/metrics"
	"github.com/synapsestrike/tradeengine/model"
)

// manageTrailingStops feeds the latest quote for every open position
// into the trailing-stop engine and closes out any position whose stop
// has been crossed. Positions opened before this process started (and
// therefore never Register'd) are left untouched until their next
// engine-submitted fill re-registers them.
func (e *Engine) manageTrailingStops(ctx context.Context, account model.AggregatedAccount) {
	if !e.Config.TrailingStop.Enabled {
		return
	}
	for _, pos := range account.Positions {
		id := positionID(pos.Symbol, pos.Broker)
		quote, err := e.Market.FetchQuote(ctx, pos.Symbol)
		if err != nil || quote == nil {
			continue
		}
		price := currentPrice(*quote)
		if price <= 0 {
			continue
		}

		update, tracked := e.TrailingStop.OnPriceTick(id, price)
		if !tracked {
			continue
		}
		if update.Changed {
			metrics.TrailingStopUpdatesTotal.WithLabelValues(pos.Symbol).Inc()
		}
		pnl := pos.Quantity * (price - pos.EntryPrice)
		if pos.Side == model.PositionShort {
			pnl = pos.Quantity * (pos.EntryPrice - price)
		}
		if err := e.Positions.Upsert(model.Position{
			Symbol: pos.Symbol, AssetClass: pos.AssetClass, Broker: pos.Broker, Side: pos.Side,
			Quantity: pos.Quantity, EntryPrice: pos.EntryPrice, CurrentPrice: price,
			MarketValue: pos.Quantity * price, UnrealizedPnl: pnl,
			UpdatedAt: e.Now(),
		}); err != nil {
			e.Audit.Error(model.CategorySystem, "failed to refresh position mark", map[string]any{
				"symbol": pos.Symbol, "error": err.Error(),
			})
		}

		if !update.Triggered {
			continue
		}
		if err := e.closePosition(ctx, pos); err != nil {
			e.Audit.Error(model.CategoryOrder, "failed to close position on trailing-stop trigger", map[string]any{
				"symbol": pos.Symbol, "error": err.Error(),
			})
			continue
		}
		e.TrailingStop.Remove(id)
	}
}

func currentPrice(q model.Quote) float64 {
	if q.Last != nil {
		return *q.Last
	}
	if q.Bid != nil && q.Ask != nil {
		return (*q.Bid + *q.Ask) / 2
	}
	return 0
}

// closePosition submits an opposing market order to flatten pos and
// removes its repository row.
func (e *Engine) closePosition(ctx context.Context, pos model.Position) error {
	side := model.Sell
	if pos.Side == model.PositionShort {
		side = model.Buy
	}

	brokerCtx, cancel := context.WithTimeout(ctx, e.Config.BrokerTimeout)
	defer cancel()

	_, err := e.Broker.PlaceOrder(brokerCtx, broker.UnifiedOrder{
		ClientOrderID: e.NewOrderID(), Symbol: pos.Symbol, AssetClass: pos.AssetClass,
		Side: side, Quantity: pos.Quantity, OrderType: model.OrderMarket,
	})
	if err != nil {
		return err
	}
	if err := e.recordFill(pos.UnrealizedPnl); err != nil {
		e.Audit.Error(model.CategoryRisk, "failed to record closing fill on risk state", map[string]any{"symbol": pos.Symbol, "error": err.Error()})
	}
	e.Audit.Info(model.CategoryOrder, "position closed on trailing-stop trigger", map[string]any{"symbol": pos.Symbol})
	return e.Positions.Delete(pos.Symbol, pos.Broker)
}
