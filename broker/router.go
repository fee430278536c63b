package broker

import (
	"context"
	"regexp"

	"github.com/synapsestrike/tradeengine/model"
)

// contractMonthPattern matches a futures contract-month symbol, e.g.
// "ESH25".
var contractMonthPattern = regexp.MustCompile(`^[A-Z]{1,3}[FGHJKMNQUVXZ][0-9]{1,2}$`)

// futuresRoots is the known futures-root set for exact-match routing.
var futuresRoots = map[string]struct{}{
	"ES": {}, "MES": {}, "NQ": {}, "MNQ": {}, "RTY": {}, "M2K": {},
	"YM": {}, "MYM": {}, "GC": {}, "CL": {},
}

// Route is a pure function of the symbol string: exact futures-root
// match, then the contract-month regex, else equities. A symbol that
// merely starts with a futures root without matching the contract form
// (e.g. "MNQXYZ") routes to equities. Routing never transforms the
// symbol, so repeated calls for the same symbol always agree.
func Route(symbol string) model.AssetClass {
	if _, ok := futuresRoots[symbol]; ok {
		return model.Futures
	}
	if contractMonthPattern.MatchString(symbol) {
		return model.Futures
	}
	return model.Equity
}

// Router dispatches UnifiedOrder and read operations to the adapter
// whose asset class matches the order/symbol.
type Router struct {
	Futures Broker
	Equity  Broker
}

// NewRouter builds a Router over the two concrete adapters.
func NewRouter(futures, equity Broker) *Router {
	return &Router{Futures: futures, Equity: equity}
}

func (r *Router) adapterFor(assetClass model.AssetClass) (Broker, error) {
	switch assetClass {
	case model.Futures:
		if r.Futures == nil {
			return nil, ErrUnsupportedSymbol
		}
		return r.Futures, nil
	default:
		if r.Equity == nil {
			return nil, ErrUnsupportedSymbol
		}
		return r.Equity, nil
	}
}

// PlaceOrder dispatches solely by order.AssetClass.
func (r *Router) PlaceOrder(ctx context.Context, order UnifiedOrder) (OrderResult, error) {
	adapter, err := r.adapterFor(order.AssetClass)
	if err != nil {
		return OrderResult{}, err
	}
	return adapter.PlaceOrder(ctx, order)
}

// CancelOrder dispatches by asset class.
func (r *Router) CancelOrder(ctx context.Context, assetClass model.AssetClass, brokerOrderID string) error {
	adapter, err := r.adapterFor(assetClass)
	if err != nil {
		return err
	}
	return adapter.CancelOrder(ctx, brokerOrderID)
}

// GetOrderStatus dispatches by asset class.
func (r *Router) GetOrderStatus(ctx context.Context, assetClass model.AssetClass, brokerOrderID string) (OrderResult, error) {
	adapter, err := r.adapterFor(assetClass)
	if err != nil {
		return OrderResult{}, err
	}
	return adapter.GetOrderStatus(ctx, brokerOrderID)
}

// AggregatedAccount merges both adapters' accounts into a single
// portfolio-level snapshot, per the Portfolio Exposure component's
// AggregatedAccount input.
func (r *Router) AggregatedAccount(ctx context.Context) (model.AggregatedAccount, error) {
	var out model.AggregatedAccount
	if r.Futures != nil {
		acc, err := r.Futures.GetAccount(ctx)
		if err != nil {
			return out, err
		}
		out.TotalEquity += acc.TotalEquity
		out.TotalCash += acc.TotalCash
		out.TotalBuyingPower += acc.TotalBuyingPower
		out.Positions = append(out.Positions, acc.Positions...)
		out.Exposure.Futures += acc.Exposure.Futures
	}
	if r.Equity != nil {
		acc, err := r.Equity.GetAccount(ctx)
		if err != nil {
			return out, err
		}
		out.TotalEquity += acc.TotalEquity
		out.TotalCash += acc.TotalCash
		out.TotalBuyingPower += acc.TotalBuyingPower
		out.Positions = append(out.Positions, acc.Positions...)
		out.Exposure.Equities += acc.Exposure.Equities
		out.PDTSubject = acc.PDTSubject
		out.DayTradesUsed = acc.DayTradesUsed
		out.DayTradesLimit = acc.DayTradesLimit
	}
	out.Exposure.Total = out.Exposure.Futures + out.Exposure.Equities
	return out, nil
}
