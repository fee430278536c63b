package risk

import (
	"time"

	"github.com/synapsestrike/tradeengine/model"
)

// Outcome is the Risk Manager's final verdict for a proposed order.
type Outcome string

const (
	Allow  Outcome = "ALLOW"
	Reduce Outcome = "REDUCE"
	Block  Outcome = "BLOCK"
)

// Decision is EvaluateOrder's verdict: outcome, sized quantity, and
// the per-gate check trail.
type Decision struct {
	Outcome      Outcome
	PositionSize float64
	Reason       string
	Warnings     []string
	Checks       []CheckResult
}

// Manager runs the sequenced gate chain. The circuit breaker itself is
// held by the engine; the chain sees its state only through the
// RiskState snapshot. Manager does not persist RiskState itself; the engine reads/writes RiskState
// through a repository and hands Manager a snapshot per call.
type Manager struct {
	Config Config
	Gates  []Gate
	Now    func() time.Time
}

// NewManager builds a Manager with the six standard checks wired in
// evaluation order.
func NewManager(cfg Config) *Manager {
	return &Manager{
		Config: cfg,
		Now:    time.Now,
		Gates: []Gate{
			circuitBreakerGate{},
			concurrentPositionsGate{},
			positionSizeGate{},
			maxPositionPercentGate{},
			exposureGate{},
			pdtGate{},
		},
	}
}

// EvaluateOrder runs the sequenced chain: the first failing ERROR
// determines BLOCK; the max-position-percent check downgrades to REDUCE
// rather than blocking, and the sizing check returns a REDUCE to zero
// when equity or stop distance is invalid; WARNINGs accumulate without
// stopping evaluation.
func (m *Manager) EvaluateOrder(signal model.Signal, account model.AggregatedAccount, state model.RiskState) Decision {
	ctx := &GateContext{Signal: signal, Account: account, RiskState: state, Config: m.Config, Now: m.Now()}

	decision := Decision{Outcome: Allow}
	for _, g := range m.Gates {
		outcome, err := g.Evaluate(ctx)
		if err != nil {
			decision.Outcome = Block
			decision.Reason = err.Error()
			decision.Checks = append(decision.Checks, CheckResult{Gate: g.Name(), Severity: SeverityError, Message: err.Error()})
			return decision
		}

		decision.Checks = append(decision.Checks, CheckResult{Gate: g.Name(), Severity: outcome.Severity, Message: outcome.Message})

		switch outcome.Severity {
		case SeverityError:
			decision.Outcome = Block
			decision.Reason = outcome.Message
			return decision
		case SeverityWarning:
			if outcome.Reduce != nil {
				decision.Outcome = Reduce
				decision.Reason = outcome.Message
				ctx.ProposedSize = *outcome.Reduce
			} else {
				decision.Warnings = append(decision.Warnings, outcome.Message)
			}
		}
	}

	decision.PositionSize = ctx.ProposedSize
	if decision.Outcome == Allow {
		decision.Reason = "all risk checks passed"
	}
	return decision
}
