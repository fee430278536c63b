package signal_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/synapsestrike/tradeengine/model"
	"github.com/synapsestrike/tradeengine/signal"
	"github.com/synapsestrike/tradeengine/strategy"
)

func TestTimeFilter_RejectsWeekend(t *testing.T) {
	f := signal.NewTimeFilter(signal.DefaultTimeFilterConfig())
	saturday := time.Date(2026, 8, 1, 14, 0, 0, 0, time.UTC)
	require.False(t, f.Allow(saturday, model.Equity))
}

func TestTimeFilter_AcceptsMidSession(t *testing.T) {
	f := signal.NewTimeFilter(signal.DefaultTimeFilterConfig())
	wednesday := time.Date(2026, 7, 29, 15, 0, 0, 0, time.UTC)
	require.True(t, f.Allow(wednesday, model.Equity))
}

func TestTimeFilter_RejectsSessionEdge(t *testing.T) {
	f := signal.NewTimeFilter(signal.DefaultTimeFilterConfig())
	justAfterOpen := time.Date(2026, 7, 29, 13, 5, 0, 0, time.UTC)
	require.False(t, f.Allow(justAfterOpen, model.Equity))
}

func TestTimeFilter_HolidayMode(t *testing.T) {
	cfg := signal.DefaultTimeFilterConfig()
	cfg.HolidayMode = true
	f := signal.NewTimeFilter(cfg)
	wednesday := time.Date(2026, 7, 29, 15, 0, 0, 0, time.UTC)
	require.False(t, f.Allow(wednesday, model.Equity))
}

func TestDirectionAllowed_RegimeConsistency(t *testing.T) {
	require.False(t, signal.DirectionAllowed(model.RegimeTrendDown, model.DirectionLong))
	require.True(t, signal.DirectionAllowed(model.RegimeTrendDown, model.DirectionShort))
	require.True(t, signal.DirectionAllowed(model.RegimeRanging, model.DirectionLong))
	require.True(t, signal.DirectionAllowed(model.RegimeRanging, model.DirectionShort))
}

// fakeStrategy always emits one candidate in the configured direction,
// used to drive the combiner without depending on real strategy math.
type fakeStrategy struct {
	source    model.SignalSource
	direction model.Direction
}

func (f fakeStrategy) Name() model.SignalSource { return f.source }

func (f fakeStrategy) Evaluate(in strategy.Input) ([]strategy.Candidate, error) {
	entry := 100.0
	stop := 98.0
	if f.direction == model.DirectionShort {
		stop = 102.0
	}
	return []strategy.Candidate{{
		Source: f.source, Direction: f.direction, Strength: 0.9,
		EntryPrice: entry, StopLoss: stop, Reasons: []string{"fake"},
	}}, nil
}

func trendingBars(n int) []model.PriceBar {
	bars := make([]model.PriceBar, n)
	price := 100.0
	for i := range bars {
		price += 0.5
		bars[i] = model.PriceBar{Open: price - 0.5, High: price + 0.2, Low: price - 0.7, Close: price, Volume: 1000}
	}
	return bars
}

// Per tick, per symbol, emitted signals never exceed
// maxSignalsPerSymbol, even when both directions combine to a valid
// signal.
func TestManager_EvaluateCapsAtMaxSignalsPerSymbol(t *testing.T) {
	cfg := signal.ManagerConfig{
		Strategies: []signal.StrategyWeight{
			{Strategy: fakeStrategy{source: model.SourceMomentum, direction: model.DirectionLong}, Weight: 1, Enabled: true},
			{Strategy: fakeStrategy{source: model.SourceBreakout, direction: model.DirectionShort}, Weight: 1, Enabled: true},
		},
		MinStrength:         0.1,
		MaxSignalsPerSymbol: 1,
		EnableRegimeFilter:  false,
		SignalTTL:           time.Hour,
	}
	mgr := signal.NewManager(cfg)
	mgr.Now = func() time.Time { return time.Date(2026, 7, 29, 15, 0, 0, 0, time.UTC) }

	out, err := mgr.Evaluate("MNQ", model.Futures, "1m", trendingBars(40))
	require.NoError(t, err)
	require.LessOrEqual(t, len(out), 1)
}
