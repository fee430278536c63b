package market_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/synapsestrike/tradeengine/market"
	"github.com/synapsestrike/tradeengine/model"
)

type fakeSource struct {
	name  string
	calls int
}

func (f *fakeSource) FetchHistoricalData(ctx context.Context, symbol, timeframe string, params market.HistoricalParams) ([]model.PriceBar, error) {
	return []model.PriceBar{{Close: 1}}, nil
}

func (f *fakeSource) FetchQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	f.calls++
	last := 1.0
	return &model.Quote{Symbol: symbol, Last: &last}, nil
}

func TestRoutedSource_DispatchesByAssetClass(t *testing.T) {
	futures := &fakeSource{name: "futures"}
	equity := &fakeSource{name: "equity"}
	src := market.NewRoutedSource(futures, equity)

	_, err := src.FetchQuote(context.Background(), "MNQ")
	require.NoError(t, err)
	require.Equal(t, 1, futures.calls)
	require.Equal(t, 0, equity.calls)

	_, err = src.FetchQuote(context.Background(), "SPY")
	require.NoError(t, err)
	require.Equal(t, 1, futures.calls)
	require.Equal(t, 1, equity.calls)
}

func TestRoutedSource_NoSourceConfigured(t *testing.T) {
	src := market.NewRoutedSource(nil, nil)
	_, err := src.FetchQuote(context.Background(), "MNQ")
	require.Error(t, err)
}
