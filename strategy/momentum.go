package strategy

import (
	"github.com/synapsestrike/tradeengine/indicator"
	"github.com/synapsestrike/tradeengine/model"
)

// Momentum requires an EMA cross plus a MACD histogram of the same sign
// (positive for LONG, negative for SHORT) and an RSI reading in a
// momentum-confirming band. Stop is close -/+ k*ATR;
// target is 2x the resulting risk.
type Momentum struct {
	FastPeriod, SlowPeriod int
	RSIPeriod              int
	ATRPeriod              int
	ATRMultiple            float64
}

// NewMomentum builds a Momentum strategy with conventional defaults.
func NewMomentum() Momentum {
	return Momentum{FastPeriod: 12, SlowPeriod: 26, RSIPeriod: 14, ATRPeriod: 14, ATRMultiple: 2}
}

func (m Momentum) Name() model.SignalSource { return model.SourceMomentum }

func (m Momentum) Evaluate(in Input) ([]Candidate, error) {
	prices := closes(in.Bars)
	fastSeries, err := indicator.EMASeries(prices, m.FastPeriod)
	if err != nil {
		return nil, err
	}
	slowSeries, err := indicator.EMASeries(prices, m.SlowPeriod)
	if err != nil {
		return nil, err
	}
	hist, err := indicator.MACDSeries(prices, m.FastPeriod, m.SlowPeriod, 9)
	if err != nil {
		return nil, err
	}
	rsi, err := indicator.RSI(prices, m.RSIPeriod)
	if err != nil {
		return nil, err
	}
	atr, err := indicator.ATR(highs(in.Bars), lows(in.Bars), closes(in.Bars), m.ATRPeriod)
	if err != nil {
		return nil, err
	}

	last := len(prices) - 1
	fast, slow := fastSeries[last], slowSeries[last]
	histogram := hist[last]
	close := prices[last]
	threshold := minStrength(in)

	indicators := map[string]float64{
		"emaFast": fast, "emaSlow": slow, "macdHistogram": histogram, "rsi": rsi, "atr": atr,
	}

	var out []Candidate

	// LONG: fast above slow, positive histogram, RSI in bullish-confirming band.
	if fast > slow && histogram > 0 && rsi > 50 && rsi < 70 {
		strength := macdConfirmStrength(histogram, rsi, 50, 70)
		if strength >= threshold {
			entry := close
			stop := entry - m.ATRMultiple*atr
			risk := entry - stop
			target := entry + 2*risk
			out = append(out, Candidate{
				Source: model.SourceMomentum, Direction: model.DirectionLong, Strength: strength,
				EntryPrice: entry, StopLoss: stop, TakeProfit: ptr(target),
				Reasons:    []string{"EMA fast above slow", "MACD histogram positive", "RSI confirms momentum"},
				Indicators: indicators,
			})
		}
	}

	// SHORT: fast below slow, negative histogram, RSI in bearish-confirming band.
	if fast < slow && histogram < 0 && rsi < 50 && rsi > 30 {
		strength := macdConfirmStrength(-histogram, 100-rsi, 50, 70)
		if strength >= threshold {
			entry := close
			stop := entry + m.ATRMultiple*atr
			risk := stop - entry
			target := entry - 2*risk
			out = append(out, Candidate{
				Source: model.SourceMomentum, Direction: model.DirectionShort, Strength: strength,
				EntryPrice: entry, StopLoss: stop, TakeProfit: ptr(target),
				Reasons:    []string{"EMA fast below slow", "MACD histogram negative", "RSI confirms momentum"},
				Indicators: indicators,
			})
		}
	}

	return out, nil
}

// macdConfirmStrength blends MACD histogram confirmation with how
// centrally the RSI sits within its confirming band.
func macdConfirmStrength(histogram, rsi, low, high float64) float64 {
	bandCenter := (low + high) / 2
	bandHalfWidth := (high - low) / 2
	rsiScore := 1 - abs(rsi-bandCenter)/bandHalfWidth
	if rsiScore < 0 {
		rsiScore = 0
	}
	macdScore := 0.7
	if histogram <= 0 {
		macdScore = 0.5
	}
	strength := 0.5*macdScore + 0.5*(0.6+0.4*rsiScore)
	if strength > 1 {
		strength = 1
	}
	return strength
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
