package strategy

import (
	"github.com/synapsestrike/tradeengine/indicator"
	"github.com/synapsestrike/tradeengine/model"
)

// Breakout requires a prior squeeze (or an expanding-bandwidth regime),
// the current close crossing outside a band the previous bar did not
// cross, and ADX above its trend threshold with the correct DI
// dominance. Stop is k*ATR; target is 2x risk.
type Breakout struct {
	BBPeriod         int
	BBK              float64
	ConsolidationBars int
	ADXPeriod        int
	ADXTrendThreshold float64
	ATRPeriod        int
	ATRMultiple      float64
}

// NewBreakout builds a Breakout strategy with conventional defaults.
func NewBreakout() Breakout {
	return Breakout{
		BBPeriod: 20, BBK: 2, ConsolidationBars: 20,
		ADXPeriod: 14, ADXTrendThreshold: 25,
		ATRPeriod: 14, ATRMultiple: 2,
	}
}

func (b Breakout) Name() model.SignalSource { return model.SourceBreakout }

func (b Breakout) Evaluate(in Input) ([]Candidate, error) {
	prices := closes(in.Bars)
	bands, err := indicator.BollingerBands(prices, b.BBPeriod, b.BBK)
	if err != nil {
		return nil, err
	}
	if len(bands) < 2 {
		return nil, indicator.ErrInsufficientData
	}
	adx, err := indicator.ADX(highs(in.Bars), lows(in.Bars), closes(in.Bars), b.ADXPeriod)
	if err != nil {
		return nil, err
	}
	atr, err := indicator.ATR(highs(in.Bars), lows(in.Bars), closes(in.Bars), b.ATRPeriod)
	if err != nil {
		return nil, err
	}

	recentSqueeze := false
	lookback := b.ConsolidationBars
	if lookback > len(bands) {
		lookback = len(bands)
	}
	for _, band := range bands[len(bands)-lookback:] {
		if band.Squeeze {
			recentSqueeze = true
			break
		}
	}
	expandingRegime := in.CurrentRegime == model.RegimeVolatile

	if !recentSqueeze && !expandingRegime {
		return nil, nil
	}
	if adx.ADX < b.ADXTrendThreshold {
		return nil, nil
	}

	last := bands[len(bands)-1]
	prev := bands[len(bands)-2]
	closeNow := prices[len(prices)-1]
	closePrev := prices[len(prices)-2]
	threshold := minStrength(in)

	indicators := map[string]float64{
		"bbUpper": last.Upper, "bbLower": last.Lower, "adx": adx.ADX,
		"plusDI": adx.PlusDI, "minusDI": adx.MinusDI, "atr": atr,
	}

	var out []Candidate

	crossedUp := closeNow > last.Upper && closePrev <= prev.Upper
	if crossedUp && adx.PlusDI > adx.MinusDI {
		strength := adxBreakoutStrength(adx.ADX, b.ADXTrendThreshold)
		if strength >= threshold {
			entry := closeNow
			stop := entry - b.ATRMultiple*atr
			risk := entry - stop
			target := entry + 2*risk
			out = append(out, Candidate{
				Source: model.SourceBreakout, Direction: model.DirectionLong, Strength: strength,
				EntryPrice: entry, StopLoss: stop, TakeProfit: ptr(target),
				Reasons:    []string{"upper band breakout", "ADX confirms trend", "+DI dominant"},
				Indicators: indicators,
			})
		}
	}

	crossedDown := closeNow < last.Lower && closePrev >= prev.Lower
	if crossedDown && adx.MinusDI > adx.PlusDI {
		strength := adxBreakoutStrength(adx.ADX, b.ADXTrendThreshold)
		if strength >= threshold {
			entry := closeNow
			stop := entry + b.ATRMultiple*atr
			risk := stop - entry
			target := entry - 2*risk
			out = append(out, Candidate{
				Source: model.SourceBreakout, Direction: model.DirectionShort, Strength: strength,
				EntryPrice: entry, StopLoss: stop, TakeProfit: ptr(target),
				Reasons:    []string{"lower band breakout", "ADX confirms trend", "-DI dominant"},
				Indicators: indicators,
			})
		}
	}

	return out, nil
}

func adxBreakoutStrength(adx, threshold float64) float64 {
	strength := 0.6 + 0.4*((adx-threshold)/threshold)
	if strength > 1 {
		strength = 1
	}
	if strength < 0.6 {
		strength = 0.6
	}
	return strength
}
