package signal

import (
	"github.com/synapsestrike/tradeengine/indicator"
	"github.com/synapsestrike/tradeengine/model"
)

// RegimeDetector classifies market behavior from ADX magnitude and ATR
// percentile.
type RegimeDetector struct {
	ADXPeriod             int
	ADXTrendThreshold     float64
	ATRVolatilePercentile float64
}

// NewRegimeDetector builds a detector with conventional defaults.
func NewRegimeDetector() RegimeDetector {
	return RegimeDetector{ADXPeriod: 14, ADXTrendThreshold: 25, ATRVolatilePercentile: 0.8}
}

// Detect classifies the latest bar in bars into one of TREND_UP,
// TREND_DOWN, RANGING, or VOLATILE.
func (d RegimeDetector) Detect(bars []model.PriceBar) (model.Regime, error) {
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	closes := make([]float64, len(bars))
	for i, b := range bars {
		highs[i], lows[i], closes[i] = b.High, b.Low, b.Close
	}

	adx, err := indicator.ADX(highs, lows, closes, d.ADXPeriod)
	if err != nil {
		return "", err
	}
	atrSeries, err := indicator.ATRSeries(highs, lows, closes, d.ADXPeriod)
	if err != nil {
		return "", err
	}
	percentile := indicator.ATRPercentile(atrSeries)

	if percentile >= d.ATRVolatilePercentile {
		return model.RegimeVolatile, nil
	}
	if adx.ADX < d.ADXTrendThreshold {
		return model.RegimeRanging, nil
	}
	if adx.PlusDI > adx.MinusDI {
		return model.RegimeTrendUp, nil
	}
	return model.RegimeTrendDown, nil
}

// DirectionAllowed enforces the regime-consistency rule: no LONG in
// TREND_DOWN, no SHORT in TREND_UP; both allowed in RANGING/VOLATILE.
func DirectionAllowed(regime model.Regime, dir model.Direction) bool {
	switch regime {
	case model.RegimeTrendDown:
		return dir != model.DirectionLong
	case model.RegimeTrendUp:
		return dir != model.DirectionShort
	default:
		return true
	}
}
