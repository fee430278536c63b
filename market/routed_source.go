package market

import (
	"context"

	"github.com/synapsestrike/tradeengine/broker"
	"github.com/synapsestrike/tradeengine/model"
)

// RoutedSource dispatches FetchHistoricalData/FetchQuote to whichever
// concrete Source covers a symbol's asset class, using the same routing
// rule the broker Router applies to order placement so a symbol never
// sees two different venues across the pipeline.
type RoutedSource struct {
	Futures Source
	Equity  Source
}

// NewRoutedSource builds a Source that routes by broker.Route.
func NewRoutedSource(futures, equity Source) *RoutedSource {
	return &RoutedSource{Futures: futures, Equity: equity}
}

func (r *RoutedSource) sourceFor(symbol string) Source {
	if broker.Route(symbol) == model.Futures {
		return r.Futures
	}
	return r.Equity
}

func (r *RoutedSource) FetchHistoricalData(ctx context.Context, symbol, timeframe string, params HistoricalParams) ([]model.PriceBar, error) {
	src := r.sourceFor(symbol)
	if src == nil {
		return nil, errNoSourceForSymbol(symbol)
	}
	return src.FetchHistoricalData(ctx, symbol, timeframe, params)
}

func (r *RoutedSource) FetchQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	src := r.sourceFor(symbol)
	if src == nil {
		return nil, errNoSourceForSymbol(symbol)
	}
	return src.FetchQuote(ctx, symbol)
}

type noSourceError string

func (e noSourceError) Error() string { return "market: no source configured for symbol " + string(e) }
func errNoSourceForSymbol(symbol string) error { return noSourceError(symbol) }
