package strategy

import (
	"github.com/synapsestrike/tradeengine/indicator"
	"github.com/synapsestrike/tradeengine/model"
)

// MeanReversion requires the last close at a band extremity plus RSI
// beyond an extreme threshold. Stop is 1.5*ATR from entry; target is the
// Bollinger middle band.
type MeanReversion struct {
	BBPeriod    int
	BBK         float64
	RSIPeriod   int
	ATRPeriod   int
	ATRMultiple float64
}

// NewMeanReversion builds a Mean Reversion strategy with conventional
// defaults.
func NewMeanReversion() MeanReversion {
	return MeanReversion{BBPeriod: 20, BBK: 2, RSIPeriod: 14, ATRPeriod: 14, ATRMultiple: 1.5}
}

func (m MeanReversion) Name() model.SignalSource { return model.SourceMeanReversion }

func (m MeanReversion) Evaluate(in Input) ([]Candidate, error) {
	prices := closes(in.Bars)
	bands, err := indicator.BollingerBands(prices, m.BBPeriod, m.BBK)
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

	lastBand := bands[len(bands)-1]
	close := prices[len(prices)-1]
	pct := indicator.BandPercentile(close, lastBand)
	threshold := minStrength(in)

	indicators := map[string]float64{
		"bbUpper": lastBand.Upper, "bbMiddle": lastBand.Middle, "bbLower": lastBand.Lower,
		"bandPercentile": pct, "rsi": rsi, "atr": atr,
	}

	var out []Candidate

	if pct <= 0.1 && rsi <= 25 {
		strength := extremityStrength(pct, 0.1, 25-rsi, 25, true)
		if strength >= threshold {
			entry := close
			stop := entry - m.ATRMultiple*atr
			target := lastBand.Middle
			out = append(out, Candidate{
				Source: model.SourceMeanReversion, Direction: model.DirectionLong, Strength: strength,
				EntryPrice: entry, StopLoss: stop, TakeProfit: ptr(target),
				Reasons:    []string{"close at lower Bollinger extremity", "RSI oversold"},
				Indicators: indicators,
			})
		}
	}

	if pct >= 0.9 && rsi >= 75 {
		strength := extremityStrength(1-pct, 0.1, rsi-75, 25, true)
		if strength >= threshold {
			entry := close
			stop := entry + m.ATRMultiple*atr
			target := lastBand.Middle
			out = append(out, Candidate{
				Source: model.SourceMeanReversion, Direction: model.DirectionShort, Strength: strength,
				EntryPrice: entry, StopLoss: stop, TakeProfit: ptr(target),
				Reasons:    []string{"close at upper Bollinger extremity", "RSI overbought"},
				Indicators: indicators,
			})
		}
	}

	return out, nil
}

// extremityStrength blends how far price sits beyond the band threshold
// with how far RSI sits beyond its extreme threshold.
func extremityStrength(pctBeyond, pctCap, rsiBeyond, rsiCap float64, _ bool) float64 {
	bbScore := 1 - pctBeyond/pctCap
	if bbScore < 0 {
		bbScore = 0
	}
	if bbScore > 1 {
		bbScore = 1
	}
	rsiScore := rsiBeyond / rsiCap
	if rsiScore > 1 {
		rsiScore = 1
	}
	strength := 0.6 + 0.2*bbScore + 0.2*rsiScore
	if strength > 1 {
		strength = 1
	}
	return strength
}
