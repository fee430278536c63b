package strategy_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/synapsestrike/tradeengine/model"
	"github.com/synapsestrike/tradeengine/strategy"
)

func bar(t time.Time, o, h, l, c, v float64) model.PriceBar {
	return model.PriceBar{Timestamp: t, Open: o, High: h, Low: l, Close: c, Volume: v}
}

// Fifty-nine flat bars (squeeze) followed by a strongly trending ramp and a
// closing bar far outside the upper band should produce a LONG breakout.
func TestBreakout_EmitsLongAfterSqueeze(t *testing.T) {
	start := time.Now().Add(-61 * time.Minute)
	var bars []model.PriceBar
	for i := 0; i < 59; i++ {
		ts := start.Add(time.Duration(i) * time.Minute)
		bars = append(bars, bar(ts, 100, 100.1, 99.9, 100+0.01*float64(i%3), 1000))
	}
	for i := 0; i < 40; i++ {
		ts := start.Add(time.Duration(59+i) * time.Minute)
		bars = append(bars, bar(ts, 100+float64(i), 101+float64(i), 99+float64(i), 100.5+float64(i), 1000))
	}
	bars = append(bars, bar(start.Add(100*time.Minute), 139, 143, 138, 102.5+float64(len(bars)), 1500))

	b := strategy.NewBreakout()
	candidates, err := b.Evaluate(strategy.Input{
		Symbol: "TEST", AssetClass: model.Equity, Timeframe: "1m",
		Bars: bars, CurrentRegime: model.RegimeVolatile, MinStrength: 0.6,
	})
	require.NoError(t, err)
	require.NotEmpty(t, candidates)
	require.Equal(t, model.DirectionLong, candidates[0].Direction)
	require.GreaterOrEqual(t, candidates[0].Strength, 0.6)
}

// Thirty-two declining bars whose last close sits at the lower band with a
// deeply oversold RSI should produce a LONG reversion candidate.
func TestMeanReversion_EmitsLongAtLowerBand(t *testing.T) {
	start := time.Now().Add(-30 * time.Minute)
	var bars []model.PriceBar
	price := 100.0
	for i := 0; i < 29; i++ {
		ts := start.Add(time.Duration(i) * time.Minute)
		price -= 0.3
		bars = append(bars, bar(ts, price+0.2, price+0.3, price-0.3, price, 1000))
	}
	// Final sharp drop so the close lands at the lower band and RSI is
	// deeply oversold.
	for i := 0; i < 3; i++ {
		price -= 1.5
		bars = append(bars, bar(start.Add(time.Duration(29+i)*time.Minute), price+1, price+1.2, price-1, price, 1200))
	}

	mr := strategy.NewMeanReversion()
	candidates, err := mr.Evaluate(strategy.Input{
		Symbol: "TEST", AssetClass: model.Equity, Timeframe: "1m",
		Bars: bars, CurrentRegime: model.RegimeRanging, MinStrength: 0.6,
	})
	require.NoError(t, err)
	require.NotEmpty(t, candidates)
	require.Equal(t, model.DirectionLong, candidates[0].Direction)
	require.NotNil(t, candidates[0].TakeProfit)
}

func TestMomentum_SuppressesBelowMinStrength(t *testing.T) {
	start := time.Now().Add(-40 * time.Minute)
	var bars []model.PriceBar
	for i := 0; i < 40; i++ {
		bars = append(bars, bar(start.Add(time.Duration(i)*time.Minute), 100, 100.05, 99.95, 100, 1000))
	}
	m := strategy.NewMomentum()
	candidates, err := m.Evaluate(strategy.Input{
		Symbol: "FLAT", AssetClass: model.Equity, Timeframe: "1m", Bars: bars, MinStrength: 0.6,
	})
	require.NoError(t, err)
	require.Empty(t, candidates)
}
