package risk

import (
	"time"

	"github.com/synapsestrike/tradeengine/model"
)

// Severity is a gate outcome's severity: WARNING accumulates without
// stopping the chain, ERROR short-circuits it.
type Severity string

const (
	SeverityOK      Severity = "OK"
	SeverityWarning Severity = "WARNING"
	SeverityError   Severity = "ERROR"
)

// GateOutcome is one gate's verdict.
type GateOutcome struct {
	Severity Severity
	Message  string
	// Reduce, when non-nil, caps the proposed quantity instead of
	// rejecting the trade outright.
	Reduce *float64
}

func pass() GateOutcome { return GateOutcome{Severity: SeverityOK} }

func warn(msg string) GateOutcome { return GateOutcome{Severity: SeverityWarning, Message: msg} }

func reduceTo(qty float64, msg string) GateOutcome {
	q := qty
	return GateOutcome{Severity: SeverityWarning, Message: msg, Reduce: &q}
}

// GateContext is everything a Gate needs to evaluate one proposed trade.
type GateContext struct {
	Signal       model.Signal
	Account      model.AggregatedAccount
	RiskState    model.RiskState
	Config       Config
	Now          time.Time
	ProposedSize float64
}

// Gate is one link in the sequenced risk chain.
type Gate interface {
	Name() string
	Priority() int
	Evaluate(ctx *GateContext) (GateOutcome, error)
}

// CheckResult records one gate's outcome for the audit trail and the
// caller-facing EvaluationResult.
type CheckResult struct {
	Gate     string
	Severity Severity
	Message  string
}
