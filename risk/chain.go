package risk

import (
	"fmt"

	"github.com/synapsestrike/tradeengine/model"
)

// circuitBreakerGate is check 1: an open breaker blocks everything
// regardless of signal.
type circuitBreakerGate struct{}

func (circuitBreakerGate) Name() string  { return "circuit_breaker" }
func (circuitBreakerGate) Priority() int { return 1 }

func (circuitBreakerGate) Evaluate(ctx *GateContext) (GateOutcome, error) {
	state := ctx.RiskState
	if state.CircuitBreakerTriggered && (state.CircuitBreakerUntil == nil || state.CircuitBreakerUntil.After(ctx.Now)) {
		return pass(), fmt.Errorf("Circuit breaker is active")
	}
	return pass(), nil
}

// concurrentPositionsGate is check 2.
type concurrentPositionsGate struct{}

func (concurrentPositionsGate) Name() string  { return "concurrent_positions" }
func (concurrentPositionsGate) Priority() int { return 2 }

func (concurrentPositionsGate) Evaluate(ctx *GateContext) (GateOutcome, error) {
	if len(ctx.Account.Positions) >= ctx.Config.MaxConcurrentPositions {
		return pass(), fmt.Errorf("Maximum concurrent positions reached")
	}
	return pass(), nil
}

// positionSizeGate is check 3: computes the provisional quantity and
// notional, stashing both on the context for later gates.
type positionSizeGate struct{}

func (positionSizeGate) Name() string  { return "position_size" }
func (positionSizeGate) Priority() int { return 3 }

func (positionSizeGate) Evaluate(ctx *GateContext) (GateOutcome, error) {
	sized := ComputeSize(ctx.Config, ctx.Account.TotalEquity, ctx.Signal.EntryPrice, ctx.Signal.StopLoss, ctx.Signal.Strength)
	ctx.ProposedSize = sized.Quantity
	if sized.Quantity <= 0 {
		return reduceTo(0, "Invalid equity or stop distance"), nil
	}
	return pass(), nil
}

// maxPositionPercentGate is check 4; it downgrades an oversized position
// to REDUCE instead of blocking.
type maxPositionPercentGate struct{}

func (maxPositionPercentGate) Name() string  { return "max_position_percent" }
func (maxPositionPercentGate) Priority() int { return 4 }

func (maxPositionPercentGate) Evaluate(ctx *GateContext) (GateOutcome, error) {
	if ctx.Config.MaxPositionPercent <= 0 || ctx.Account.TotalEquity <= 0 {
		return pass(), nil
	}
	notional := ctx.ProposedSize * ctx.Signal.EntryPrice
	limit := ctx.Config.MaxPositionPercent / 100 * ctx.Account.TotalEquity
	if notional > limit {
		return reduceTo(ctx.ProposedSize/2, "Position size reduced"), nil
	}
	return pass(), nil
}

// exposureGate is check 5, delegated to Portfolio Exposure.
type exposureGate struct{}

func (exposureGate) Name() string  { return "exposure" }
func (exposureGate) Priority() int { return 5 }

func (exposureGate) Evaluate(ctx *GateContext) (GateOutcome, error) {
	hypothetical := withHypotheticalPosition(ctx.Account, ctx.Signal, ctx.ProposedSize)
	violations := Violations(ctx.Config, hypothetical)
	for _, v := range violations {
		if v.Severity == SeverityError {
			return pass(), fmt.Errorf("%s", v.Message)
		}
	}
	for _, v := range violations {
		if v.Severity == SeverityWarning {
			return warn(v.Message), nil
		}
	}
	return pass(), nil
}

// withHypotheticalPosition appends the proposed trade as a synthetic
// position so exposure math evaluates the post-trade state.
func withHypotheticalPosition(account model.AggregatedAccount, signal model.Signal, qty float64) model.AggregatedAccount {
	if qty <= 0 {
		return account
	}
	side := model.PositionLong
	if signal.Direction == model.DirectionShort {
		side = model.PositionShort
	}
	out := account
	out.Positions = append(append([]model.Position{}, account.Positions...), model.Position{
		Symbol: signal.Symbol, AssetClass: signal.AssetClass, Side: side,
		Quantity: qty, EntryPrice: signal.EntryPrice, CurrentPrice: signal.EntryPrice,
		MarketValue: qty * signal.EntryPrice,
	})
	return out
}

// pdtGate is check 6, equities only.
type pdtGate struct{}

func (pdtGate) Name() string  { return "pdt" }
func (pdtGate) Priority() int { return 6 }

func (pdtGate) Evaluate(ctx *GateContext) (GateOutcome, error) {
	if ctx.Signal.AssetClass != model.Equity || !ctx.Account.PDTSubject {
		return pass(), nil
	}
	reserve := ctx.Config.PDTReserveDayTrades
	limit := ctx.Config.PDTDayTradesLimit
	if ctx.Account.DayTradesUsed+1 > limit-reserve {
		sub, ok := pdtSubstitute[ctx.Signal.Symbol]
		if ok {
			return pass(), fmt.Errorf("PDT day-trade limit reached; consider the paired futures symbol %s", sub)
		}
		return pass(), fmt.Errorf("PDT day-trade limit reached")
	}
	return pass(), nil
}

// pdtSubstitute maps equities to the paired futures symbol a BLOCKed
// PDT decision should suggest instead.
var pdtSubstitute = map[string]string{
	"TQQQ": "MNQ",
	"SPY":  "MES",
	"IWM":  "M2K",
}
