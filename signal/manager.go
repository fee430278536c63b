package signal

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/synapsestrike/tradeengine/model"
	"github.com/synapsestrike/tradeengine/strategy"
)

// StrategyWeight pairs a strategy with its combination weight and an
// enable flag, so each strategy can be tuned or disabled on its own.
type StrategyWeight struct {
	Strategy strategy.Strategy
	Weight   float64
	Enabled  bool
}

// ManagerConfig configures signal combination.
type ManagerConfig struct {
	Strategies          []StrategyWeight
	MinStrength         float64
	MaxSignalsPerSymbol int
	EnableRegimeFilter  bool
	SignalTTL           time.Duration
}

// DefaultManagerConfig wires the three strategies with the default
// weights (momentum=0.4, meanReversion=0.3, breakout=0.3).
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		Strategies: []StrategyWeight{
			{Strategy: strategy.NewMomentum(), Weight: 0.4, Enabled: true},
			{Strategy: strategy.NewMeanReversion(), Weight: 0.3, Enabled: true},
			{Strategy: strategy.NewBreakout(), Weight: 0.3, Enabled: true},
		},
		MinStrength:         0.6,
		MaxSignalsPerSymbol: 3,
		EnableRegimeFilter:  true,
		SignalTTL:           time.Hour,
	}
}

// Manager orchestrates regime detection, the time filter, strategy
// evaluation, and weighted combination into zero or more final Signals
// per tick, per symbol.
type Manager struct {
	Config  ManagerConfig
	Regime  RegimeDetector
	Filter  TimeFilter
	Now     func() time.Time
	NewUUID func() string
}

// NewManager builds a Manager with the given config and the default
// regime detector and time filter.
func NewManager(cfg ManagerConfig) *Manager {
	return &Manager{
		Config:  cfg,
		Regime:  NewRegimeDetector(),
		Filter:  NewTimeFilter(DefaultTimeFilterConfig()),
		Now:     time.Now,
		NewUUID: func() string { return uuid.NewString() },
	}
}

// Evaluate runs the per-tick, per-symbol pipeline: load bars are passed
// in by the caller (the engine owns the Market Data Provider call);
// Evaluate performs regime detection, the time filter, strategy
// evaluation, and weighted combination.
func (m *Manager) Evaluate(symbol string, assetClass model.AssetClass, timeframe string, bars []model.PriceBar) ([]model.Signal, error) {
	now := m.Now()

	if !m.Filter.Allow(now, assetClass) {
		return nil, nil
	}

	regime, err := m.Regime.Detect(bars)
	if err != nil {
		return nil, err
	}

	byDirection := map[model.Direction][]weightedCandidate{}
	for _, sw := range m.Config.Strategies {
		if !sw.Enabled {
			continue
		}
		candidates, err := sw.Strategy.Evaluate(strategy.Input{
			Symbol: symbol, AssetClass: assetClass, Timeframe: timeframe,
			Bars: bars, CurrentRegime: regime, MinStrength: m.Config.MinStrength,
		})
		if err != nil {
			// InsufficientData and any other strategy error is swallowed:
			// skip this strategy's contribution for this tick.
			continue
		}
		for _, c := range candidates {
			byDirection[c.Direction] = append(byDirection[c.Direction], weightedCandidate{Candidate: c, Weight: sw.Weight})
		}
	}

	var out []model.Signal
	for dir, candidates := range byDirection {
		if m.Config.EnableRegimeFilter && !DirectionAllowed(regime, dir) {
			continue
		}
		combined := combine(candidates)
		if combined.Strength < m.Config.MinStrength {
			continue
		}
		sig := model.Signal{
			ID:         m.NewUUID(),
			Symbol:     symbol,
			AssetClass: assetClass,
			Timeframe:  timeframe,
			Direction:  dir,
			Strength:   combined.Strength,
			EntryPrice: combined.EntryPrice,
			StopLoss:   combined.StopLoss,
			TakeProfit: combined.TakeProfit,
			Source:     combined.Source,
			Regime:     regime,
			Reasons:    combined.Reasons,
			Indicators: combined.Indicators,
			Status:     model.SignalActive,
			Timestamp:  now,
			ExpiresAt:  now.Add(m.ttl()),
		}
		if err := sig.Validate(); err != nil {
			continue
		}
		out = append(out, sig)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Strength > out[j].Strength })
	if len(out) > m.Config.MaxSignalsPerSymbol {
		out = out[:m.Config.MaxSignalsPerSymbol]
	}
	return out, nil
}

func (m *Manager) ttl() time.Duration {
	if m.Config.SignalTTL > 0 {
		return m.Config.SignalTTL
	}
	return time.Hour
}

type weightedCandidate struct {
	Candidate strategy.Candidate
	Weight    float64
}

type combined struct {
	Strength   float64
	EntryPrice float64
	StopLoss   float64
	TakeProfit *float64
	Source     model.SignalSource
	Reasons    []string
	Indicators map[string]float64
}

// combine computes combinedStrength = sum(weight_i * strength_i) and
// takes entry/stop/target from the strongest single contributor, merging
// reasons and indicators across all contributors.
func combine(candidates []weightedCandidate) combined {
	var strengthSum float64
	var strongest weightedCandidate
	reasons := make([]string, 0, len(candidates))
	indicators := map[string]float64{}

	for i, wc := range candidates {
		strengthSum += wc.Weight * wc.Candidate.Strength
		if i == 0 || wc.Candidate.Strength > strongest.Candidate.Strength {
			strongest = wc
		}
		reasons = append(reasons, wc.Candidate.Reasons...)
		for k, v := range wc.Candidate.Indicators {
			indicators[k] = v
		}
	}

	if strengthSum > 1 {
		strengthSum = 1
	}

	return combined{
		Strength:   strengthSum,
		EntryPrice: strongest.Candidate.EntryPrice,
		StopLoss:   strongest.Candidate.StopLoss,
		TakeProfit: strongest.Candidate.TakeProfit,
		Source:     strongest.Candidate.Source,
		Reasons:    reasons,
		Indicators: indicators,
	}
}
