// Package strategy implements the three independent signal producers:
// Momentum, Mean Reversion, and Breakout. Each consumes a bundle of
// indicator readings over a bar history and emits at most one LONG and/or
// one SHORT candidate. Strategies hold no mutable state across calls, do
// not consult each other, and do not consult risk; combination across
// strategies is the Signal Manager's job.
package strategy

import "github.com/synapsestrike/tradeengine/model"

// DefaultMinStrength is the suppression floor below which a computed
// candidate is dropped before it ever reaches the Signal Manager.
const DefaultMinStrength = 0.6

// Input is what the Signal Manager hands each strategy per tick.
type Input struct {
	Symbol        string
	AssetClass    model.AssetClass
	Timeframe     string
	Bars          []model.PriceBar
	CurrentRegime model.Regime
	MinStrength   float64
}

// Candidate is one strategy's directional opinion before combination.
type Candidate struct {
	Source     model.SignalSource
	Direction  model.Direction
	Strength   float64
	EntryPrice float64
	StopLoss   float64
	TakeProfit *float64
	Reasons    []string
	Indicators map[string]float64
}

// Strategy is the shared capability every producer implements. A small
// interface, not an inheritance hierarchy: each concrete type is a plain
// struct with an Evaluate method; the Signal Manager holds a
// []Strategy slice.
type Strategy interface {
	Name() model.SignalSource
	Evaluate(in Input) ([]Candidate, error)
}

func minStrength(in Input) float64 {
	if in.MinStrength > 0 {
		return in.MinStrength
	}
	return DefaultMinStrength
}

func closes(bars []model.PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

func highs(bars []model.PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.High
	}
	return out
}

func lows(bars []model.PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Low
	}
	return out
}

func volumes(bars []model.PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}
	return out
}

func ptr(v float64) *float64 { return &v }
