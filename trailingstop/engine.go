// Package trailingstop implements the per-position trailing-stop
// engine: a single-writer, many-reader map of TrailingStopState keyed
// by position ID, updated on each price tick with an asymmetric,
// ratcheting rule that never moves the stop against the position.
//
// The engine never mutates broker orders directly; it reports intended
// new stop levels that the order-management layer may translate into
// modify-order requests.
package trailingstop

import (
	"sync"
	"time"

	"github.com/synapsestrike/tradeengine/model"
)

// Config holds the trailing-stop tunables.
type Config struct {
	Enabled            bool
	TrailPercent       float64
	ActivationPercent  float64
	MinTrailPercent    float64
	UpdateIntervalSecs int
}

// DefaultConfig activates at 0.3% profit and trails 0.5% behind price.
func DefaultConfig() Config {
	return Config{Enabled: true, TrailPercent: 0.5, ActivationPercent: 0.3, MinTrailPercent: 0.2, UpdateIntervalSecs: 5}
}

// Update is the engine's report for one price tick: the current stop
// level and whether it should trigger an exit now.
type Update struct {
	CurrentStop float64
	Activated   bool
	Triggered   bool
	Changed     bool
}

// Engine holds the live trailing-stop map. Single-writer (this engine's
// OnPriceTick), many-reader (Get), guarded by a RWMutex.
type Engine struct {
	Config Config
	Now    func() time.Time

	mu     sync.RWMutex
	states map[string]*model.TrailingStopState

	// OnActivate is called once per position, the first tick that
	// crosses the activation threshold, for audit purposes.
	OnActivate func(state model.TrailingStopState)
}

// NewEngine builds an Engine with the given config.
func NewEngine(cfg Config) *Engine {
	return &Engine{Config: cfg, Now: time.Now, states: map[string]*model.TrailingStopState{}}
}

// Register seeds trailing-stop bookkeeping for a newly opened position.
func (e *Engine) Register(positionID, symbol string, side model.PositionSide, entryPrice, initialStop float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.states[positionID] = &model.TrailingStopState{
		PositionID: positionID, Symbol: symbol, Side: side,
		EntryPrice: entryPrice, InitialStop: initialStop, CurrentStop: initialStop,
		HighestPrice: entryPrice, LowestPrice: entryPrice, LastUpdate: e.Now(),
	}
}

// Remove drops bookkeeping for a closed position.
func (e *Engine) Remove(positionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.states, positionID)
}

// Get returns a copy of the current state for a position, if tracked.
func (e *Engine) Get(positionID string) (model.TrailingStopState, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.states[positionID]
	if !ok {
		return model.TrailingStopState{}, false
	}
	return *s, true
}

// OnPriceTick updates the position's trailing-stop state for the given
// current price and reports the new level: update extremes, check
// activation, compute the candidate stop, ratchet, check the trigger.
func (e *Engine) OnPriceTick(positionID string, currentPrice float64) (Update, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.states[positionID]
	if !ok {
		return Update{}, false
	}

	// 1. Update extremes.
	if currentPrice > s.HighestPrice {
		s.HighestPrice = currentPrice
	}
	if s.LowestPrice == 0 || currentPrice < s.LowestPrice {
		s.LowestPrice = currentPrice
	}
	s.LastUpdate = e.Now()

	// 2. Activation check.
	profitPercent := profitPercent(*s, currentPrice)
	if !s.Activated && profitPercent >= e.Config.ActivationPercent {
		s.Activated = true
		if e.OnActivate != nil {
			e.OnActivate(*s)
		}
	}

	// 3. Not yet activated: report the initial stop unchanged.
	if !s.Activated {
		return Update{CurrentStop: s.CurrentStop, Activated: false, Triggered: checkTrigger(*s, currentPrice)}, true
	}

	// 4. Compute the candidate stop and 5. ratchet: commit only if
	// favorable.
	candidate := candidateStop(e.Config, *s, currentPrice)
	changed := false
	if favorable(s.Side, candidate, s.CurrentStop) {
		s.CurrentStop = candidate
		changed = true
	}

	return Update{
		CurrentStop: s.CurrentStop,
		Activated:   true,
		Changed:     changed,
		Triggered:   checkTrigger(*s, currentPrice),
	}, true
}

func profitPercent(s model.TrailingStopState, currentPrice float64) float64 {
	if s.EntryPrice == 0 {
		return 0
	}
	switch s.Side {
	case model.PositionShort:
		return (s.EntryPrice - currentPrice) / s.EntryPrice * 100
	default:
		return (currentPrice - s.EntryPrice) / s.EntryPrice * 100
	}
}

// candidateStop computes the proposed stop level before the ratchet check.
func candidateStop(cfg Config, s model.TrailingStopState, currentPrice float64) float64 {
	switch s.Side {
	case model.PositionShort:
		trailingPrice := s.LowestPrice
		if currentPrice < trailingPrice {
			trailingPrice = currentPrice
		}
		candidates := []float64{
			trailingPrice + currentPrice*cfg.TrailPercent/100,
			s.EntryPrice * (1 - cfg.MinTrailPercent/100),
			s.InitialStop,
		}
		return minOf(candidates)
	default:
		trailingPrice := s.HighestPrice
		if currentPrice > trailingPrice {
			trailingPrice = currentPrice
		}
		candidates := []float64{
			trailingPrice - currentPrice*cfg.TrailPercent/100,
			s.EntryPrice * (1 + cfg.MinTrailPercent/100),
			s.InitialStop,
		}
		return maxOf(candidates)
	}
}

// favorable reports whether candidate is a strictly better stop than
// current: strictly greater for LONG, strictly less for SHORT. This is
// the ratchet invariant — the only direction an update is ever allowed
// to move.
func favorable(side model.PositionSide, candidate, current float64) bool {
	if side == model.PositionShort {
		return candidate < current
	}
	return candidate > current
}

// checkTrigger reports whether currentPrice has crossed the committed
// stop.
func checkTrigger(s model.TrailingStopState, currentPrice float64) bool {
	if s.Side == model.PositionShort {
		return currentPrice >= s.CurrentStop
	}
	return currentPrice <= s.CurrentStop
}

func maxOf(vs []float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minOf(vs []float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
