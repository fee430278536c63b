package risk

import (
	"time"

	"github.com/sony/gobreaker"

	"github.com/synapsestrike/tradeengine/model"
)

// CircuitBreaker wraps a gobreaker.TwoStepCircuitBreaker to give the
// CLOSED/OPEN/RESETTABLE state machine a durable backing: the
// breaker's own in-memory counts drive trip decisions, but RiskState is
// the source of truth a restart recovers from, and every transition is
// reported through OnStateChange for the audit log.
type CircuitBreaker struct {
	tscb     *gobreaker.TwoStepCircuitBreaker
	OnTrip   func(trigger model.CircuitBreakerTrigger, until *time.Time)
	OnReset  func()
	cooldown time.Duration
	tripTime time.Time // set by Trip immediately before forcing gobreaker open, read back by OnStateChange
}

// NewCircuitBreaker builds a breaker that trips after a single request
// failure (the engine calls Trip based on RiskState, not on request
// volume) and stays open for cfg.cooldown().
func NewCircuitBreaker(cfg Config) *CircuitBreaker {
	cb := &CircuitBreaker{cooldown: cfg.cooldown()}
	settings := gobreaker.Settings{
		Name:        "risk-circuit-breaker",
		MaxRequests: 1,
		Interval:    0,
		Timeout:     cfg.cooldown(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 0
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen && cb.OnTrip != nil {
				until := cb.tripTime.Add(cb.cooldown)
				cb.OnTrip(model.TriggerManual, &until)
			}
			if to == gobreaker.StateClosed && cb.OnReset != nil {
				cb.OnReset()
			}
		},
	}
	cb.tscb = gobreaker.NewTwoStepCircuitBreaker(settings)
	return cb
}

// Allow reports whether a trade may proceed (breaker CLOSED or
// HALF-OPEN/RESETTABLE) and returns the confirm callback used to report
// the outcome back to the breaker.
func (c *CircuitBreaker) Allow() (bool, func(success bool), error) {
	done, err := c.tscb.Allow()
	if err != nil {
		return false, nil, nil
	}
	return true, done, nil
}

// Trip forces the breaker open, used when the risk-state daily/weekly
// loss or drawdown thresholds are crossed outside of the normal
// request-failure path. now becomes the trip timestamp OnStateChange
// hands to OnTrip, so the forced-trip path stays as injectable as
// EvaluateRiskState's.
func (c *CircuitBreaker) Trip(now time.Time) {
	c.tripTime = now
	if allowed, done, _ := c.Allow(); allowed {
		done(false)
	}
}

// State exposes the current gobreaker state for diagnostics.
func (c *CircuitBreaker) State() gobreaker.State { return c.tscb.State() }

// EvaluateRiskState inspects RiskState against Config and trips the
// breaker when a threshold is newly crossed, recording the trigger.
// DAILY_LOSS and WEEKLY_LOSS leave CircuitBreakerUntil nil (indefinite,
// cleared only by a manual or scheduled reset); all other triggers get
// an explicit cooldown.
func EvaluateRiskState(cfg Config, state *model.RiskState, now time.Time) {
	trigger, breached := breachedTrigger(cfg, *state)
	if !breached {
		return
	}
	state.CircuitBreakerTriggered = true
	state.CircuitBreakerReason = &trigger
	switch trigger {
	case model.TriggerDailyLoss, model.TriggerWeeklyLoss:
		state.CircuitBreakerUntil = nil
	default:
		until := now.Add(cfg.cooldown())
		state.CircuitBreakerUntil = &until
	}
}

func breachedTrigger(cfg Config, state model.RiskState) (model.CircuitBreakerTrigger, bool) {
	if cfg.MaxDailyLossPercent > 0 && state.DailyPnlPercent <= -cfg.MaxDailyLossPercent {
		return model.TriggerDailyLoss, true
	}
	if cfg.MaxWeeklyLossPercent > 0 && state.WeeklyPnlPercent <= -cfg.MaxWeeklyLossPercent {
		return model.TriggerWeeklyLoss, true
	}
	if cfg.MaxDrawdownPercent > 0 && state.MaxDrawdownPercent >= cfg.MaxDrawdownPercent {
		return model.TriggerDrawdown, true
	}
	if cfg.ConsecutiveLossLimit > 0 && state.ConsecutiveLosses >= cfg.ConsecutiveLossLimit {
		return model.TriggerConsecutiveLosses, true
	}
	return "", false
}

// Resettable reports whether a triggered breaker has reached its
// cooldown and is eligible for an automatic or manual reset.
func Resettable(state model.RiskState, now time.Time) bool {
	if !state.CircuitBreakerTriggered {
		return false
	}
	if state.CircuitBreakerUntil == nil {
		return false
	}
	return !now.Before(*state.CircuitBreakerUntil)
}

// Reset clears the triggered state, used both by the scheduled cooldown
// sweep and by the TOTP-gated manual reset endpoint.
func Reset(state *model.RiskState) {
	state.CircuitBreakerTriggered = false
	state.CircuitBreakerUntil = nil
	state.CircuitBreakerReason = nil
	state.ConsecutiveLosses = 0
}
