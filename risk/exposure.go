package risk

import (
	"regexp"

	"github.com/synapsestrike/tradeengine/model"
)

// futuresContractPattern strips a futures contract-month code and
// expiry year off a symbol, e.g. "ESU26" -> "ES", matching the same
// root-symbol regex the broker router uses to dispatch by underlying.
var futuresContractPattern = regexp.MustCompile(`^([A-Z]{1,3})[FGHJKMNQUVXZ]\d{1,2}$`)

// FuturesRoot returns the underlying root for a futures contract
// symbol, or the symbol unchanged if it doesn't match the
// root+month+year shape (already a root, or a perpetual/continuous
// symbol).
func FuturesRoot(symbol string) string {
	if m := futuresContractPattern.FindStringSubmatch(symbol); m != nil {
		return m[1]
	}
	return symbol
}

// PortfolioExposure is the computed set of exposure metrics checked
// against configured limits.
type PortfolioExposure struct {
	GrossPercent    float64
	NetLongPercent  float64
	NetShortPercent float64
	FuturesPercent  float64
	EquitiesPercent float64
	ByGroup         map[string]float64 // correlation group name -> percent of equity
}

// ComputeExposure aggregates an account's positions into gross, net,
// per-asset-class, and per-correlation-group percentages of equity.
// Zero or negative equity short-circuits to an all-zero result so
// downstream percentage math never divides by zero.
func ComputeExposure(cfg Config, account model.AggregatedAccount) PortfolioExposure {
	out := PortfolioExposure{ByGroup: map[string]float64{}}
	if account.TotalEquity <= 0 {
		return out
	}

	var gross, netLong, netShort, futures, equities float64
	groupValue := map[string]float64{}

	for _, p := range account.Positions {
		value := p.MarketValue
		if value == 0 {
			value = p.Quantity * p.CurrentPrice
		}
		absValue := value
		if absValue < 0 {
			absValue = -absValue
		}
		gross += absValue

		switch p.Side {
		case model.PositionLong:
			netLong += absValue
		case model.PositionShort:
			netShort += absValue
		}

		switch p.AssetClass {
		case model.Futures:
			futures += absValue
		case model.Equity:
			equities += absValue
		}

		group := groupFor(cfg, p.Symbol)
		if group != "" {
			groupValue[group] += absValue
		}
	}

	equity := account.TotalEquity
	out.GrossPercent = gross / equity * 100
	out.NetLongPercent = netLong / equity * 100
	out.NetShortPercent = netShort / equity * 100
	out.FuturesPercent = futures / equity * 100
	out.EquitiesPercent = equities / equity * 100
	for name, v := range groupValue {
		out.ByGroup[name] = v / equity * 100
	}
	return out
}

// Violation is one exposure-limit breach at a given severity.
type Violation struct {
	Severity Severity
	Message  string
}

// Violations evaluates total/gross/net/correlation-group exposure
// against cfg's limits (defaults: total 250%, gross 300%, net long
// 150%, net short 50%) and the 80%/100% warning/error thresholds on
// each correlation group's cap. Zero or
// negative equity short-circuits to a single ERROR violation.
func Violations(cfg Config, account model.AggregatedAccount) []Violation {
	if account.TotalEquity <= 0 {
		return []Violation{{Severity: SeverityError, Message: "Invalid equity value"}}
	}

	exp := ComputeExposure(cfg, account)
	var out []Violation

	total := exp.FuturesPercent + exp.EquitiesPercent
	if limit := cfg.MaxTotalExposurePercent; limit > 0 && total > limit {
		out = append(out, Violation{Severity: SeverityError, Message: "Total exposure exceeds limit"})
	}
	if limit := cfg.MaxGrossExposurePercent; limit > 0 && exp.GrossPercent > limit {
		out = append(out, Violation{Severity: SeverityError, Message: "Gross exposure exceeds limit"})
	}
	if limit := cfg.MaxNetLongPercent; limit > 0 && exp.NetLongPercent > limit {
		out = append(out, Violation{Severity: SeverityError, Message: "Net long exposure exceeds limit"})
	}
	if limit := cfg.MaxNetShortPercent; limit > 0 && exp.NetShortPercent > limit {
		out = append(out, Violation{Severity: SeverityError, Message: "Net short exposure exceeds limit"})
	}
	if limit := cfg.MaxFuturesExposurePercent; limit > 0 && exp.FuturesPercent > limit {
		out = append(out, Violation{Severity: SeverityError, Message: "Futures exposure exceeds limit"})
	}
	if limit := cfg.MaxEquitiesExposurePercent; limit > 0 && exp.EquitiesPercent > limit {
		out = append(out, Violation{Severity: SeverityError, Message: "Equities exposure exceeds limit"})
	}

	for _, g := range cfg.CorrelationGroups {
		if g.MaxConcentrationPercent <= 0 {
			continue
		}
		pct := exp.ByGroup[g.Name]
		switch {
		case pct >= g.MaxConcentrationPercent:
			out = append(out, Violation{Severity: SeverityError, Message: "Correlation group " + g.Name + " exceeds concentration limit"})
		case pct >= 0.8*g.MaxConcentrationPercent:
			out = append(out, Violation{Severity: SeverityWarning, Message: "Correlation group " + g.Name + " approaching concentration limit"})
		}
	}

	return out
}

func groupFor(cfg Config, symbol string) string {
	root := FuturesRoot(symbol)
	for _, g := range cfg.CorrelationGroups {
		if _, ok := g.Symbols[symbol]; ok {
			return g.Name
		}
		if _, ok := g.Symbols[root]; ok {
			return g.Name
		}
	}
	return ""
}
