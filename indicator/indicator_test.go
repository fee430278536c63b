package indicator_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/synapsestrike/tradeengine/indicator"
)

func flatSeries(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestRSI_InsufficientData(t *testing.T) {
	_, err := indicator.RSI([]float64{1, 2, 3}, 14)
	require.ErrorIs(t, err, indicator.ErrInsufficientData)
}

func TestRSI_AllGainsReturns100(t *testing.T) {
	prices := make([]float64, 0, 20)
	for i := 0; i < 20; i++ {
		prices = append(prices, float64(100+i))
	}
	rsi, err := indicator.RSI(prices, 14)
	require.NoError(t, err)
	require.InDelta(t, 100.0, rsi, 0.001)
}

func TestRSIProjection_Thresholds(t *testing.T) {
	p := indicator.RSIProjection(22)
	require.Equal(t, indicator.Long, p.Direction)
	require.Greater(t, p.Strength, 0.5)

	p = indicator.RSIProjection(50)
	require.Equal(t, indicator.Neutral, p.Direction)
}

func TestEMA_SeededWithFirstValue(t *testing.T) {
	series, err := indicator.EMASeries([]float64{10, 10, 10}, 5)
	require.NoError(t, err)
	require.InDelta(t, 10.0, series[0], 1e-9)
}

func TestMACD_NoNaN(t *testing.T) {
	prices := flatSeries(40, 100)
	result, err := indicator.MACD(prices, 12, 26, 9)
	require.NoError(t, err)
	require.InDelta(t, 0, result.Histogram, 1e-6)
}

func TestBollingerBands_FlatSeriesMiddleEqualsPrice(t *testing.T) {
	prices := flatSeries(30, 100)
	bands, err := indicator.BollingerBands(prices, 20, 2)
	require.NoError(t, err)
	require.NotEmpty(t, bands)
	last := bands[len(bands)-1]
	require.InDelta(t, 100.0, last.Middle, 1e-9)
}

func TestATR_InsufficientData(t *testing.T) {
	_, err := indicator.ATR([]float64{1, 2}, []float64{1, 2}, []float64{1, 2}, 14)
	require.ErrorIs(t, err, indicator.ErrInsufficientData)
}

func TestADX_TrendingSeriesFavorsPlusDI(t *testing.T) {
	n := 60
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		base := 100 + float64(i)
		highs[i] = base + 1
		lows[i] = base - 1
		closes[i] = base
	}
	result, err := indicator.ADX(highs, lows, closes, 14)
	require.NoError(t, err)
	require.Greater(t, result.PlusDI, result.MinusDI)
	require.GreaterOrEqual(t, result.ADX, 0.0)
}

func TestVolume_RVOL(t *testing.T) {
	volumes := flatSeries(20, 1000)
	volumes[19] = 3000
	v, err := indicator.Volume(volumes, 20)
	require.NoError(t, err)
	require.Greater(t, v.RVOL, 1.0)
}
