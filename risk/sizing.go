package risk

import (
	"math"

	"github.com/shopspring/decimal"
)

// SizeResult is the outcome of volatility-adjusted, signal-weighted
// position sizing.
type SizeResult struct {
	Quantity float64
	Notional decimal.Decimal
}

// ComputeSize implements volatility-adjusted, signal-weighted sizing:
//
//	riskAmount   = equity * maxRiskPerTradePercent/100
//	stopDistance = |entryPrice - stopLoss|
//	baseQty      = riskAmount / stopDistance
//	qty          = baseQty * (0.5 + 0.5*strength)
//	qty          = clamp(qty, minOrderValue/entryPrice, maxOrderValue/entryPrice)
//	qty          = round(qty, 2)
func ComputeSize(cfg Config, equity, entryPrice, stopLoss, strength float64) SizeResult {
	if equity <= 0 {
		return SizeResult{Quantity: 0}
	}
	stopDistance := math.Abs(entryPrice - stopLoss)
	if stopDistance <= 0 || entryPrice <= 0 {
		return SizeResult{Quantity: 0}
	}

	riskAmount := equity * cfg.MaxRiskPerTradePercent / 100
	baseQty := riskAmount / stopDistance
	qty := baseQty * (0.5 + 0.5*strength)

	minQty := cfg.MinOrderValue / entryPrice
	maxQty := cfg.MaxOrderValue / entryPrice
	qty = clamp(qty, minQty, maxQty)
	qty = roundTo(qty, 2)

	notional := decimal.NewFromFloat(qty).Mul(decimal.NewFromFloat(entryPrice))
	return SizeResult{Quantity: qty, Notional: notional}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func roundTo(v float64, places int) float64 {
	mult := math.Pow(10, float64(places))
	return math.Round(v*mult) / mult
}
