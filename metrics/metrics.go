// Package metrics exposes the engine's Prometheus instrumentation on a
// private registry rather than the global default one.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Registry is the custom prometheus registry for tradeengine
	// metrics.
	Registry = prometheus.NewRegistry()

	// SignalsEmittedTotal counts signals emitted by strategy, direction
	// and symbol.
	SignalsEmittedTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tradeengine",
			Subsystem: "signal",
			Name:      "emitted_total",
			Help:      "Total number of signals emitted",
		},
		[]string{"source", "direction", "symbol"},
	)

	// SignalsExpiredTotal counts signals that expired without filling.
	SignalsExpiredTotal = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: "tradeengine",
			Subsystem: "signal",
			Name:      "expired_total",
			Help:      "Total number of signals that expired unfilled",
		},
	)

	// RiskDecisionsTotal counts risk manager decisions by outcome.
	RiskDecisionsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tradeengine",
			Subsystem: "risk",
			Name:      "decisions_total",
			Help:      "Total number of risk manager decisions by outcome",
		},
		[]string{"outcome", "gate"},
	)

	// CircuitBreakerState reports 0=CLOSED, 1=OPEN, 2=RESETTABLE.
	CircuitBreakerState = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tradeengine",
			Subsystem: "risk",
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state: 0=closed, 1=open, 2=resettable",
		},
	)

	// OrderFillsTotal counts order fills by broker and status.
	OrderFillsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tradeengine",
			Subsystem: "order",
			Name:      "fills_total",
			Help:      "Total number of order status transitions",
		},
		[]string{"broker", "status"},
	)

	// OrderSubmitDuration tracks broker order submission latency.
	OrderSubmitDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tradeengine",
			Subsystem: "order",
			Name:      "submit_duration_seconds",
			Help:      "Broker order submission duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"broker"},
	)

	// TrailingStopUpdatesTotal counts trailing-stop ratchet updates.
	TrailingStopUpdatesTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tradeengine",
			Subsystem: "trailingstop",
			Name:      "updates_total",
			Help:      "Total number of trailing-stop ratchet updates",
		},
		[]string{"symbol"},
	)

	// OpenPositionsCount tracks currently open positions.
	OpenPositionsCount = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tradeengine",
			Subsystem: "portfolio",
			Name:      "open_positions_count",
			Help:      "Number of currently open positions",
		},
	)

	// EquityTotal tracks current account equity.
	EquityTotal = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tradeengine",
			Subsystem: "portfolio",
			Name:      "equity_total",
			Help:      "Current aggregated account equity",
		},
	)

	// TickDuration tracks one engine scheduling tick's wall time.
	TickDuration = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tradeengine",
			Subsystem: "engine",
			Name:      "tick_duration_seconds",
			Help:      "Duration of one engine tick across all symbols",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30},
		},
	)
)

// Init registers the standard Go/process collectors alongside the
// domain metrics above.
func Init() {
	Registry.MustRegister(prometheus.NewGoCollector())
	Registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
}

// RecordRiskDecision increments the risk decision counter for the
// given gate and outcome.
func RecordRiskDecision(gate, outcome string) {
	RiskDecisionsTotal.WithLabelValues(outcome, gate).Inc()
}

// SetCircuitBreakerState sets the numeric circuit breaker state gauge.
func SetCircuitBreakerState(triggered, resettable bool) {
	switch {
	case triggered && !resettable:
		CircuitBreakerState.Set(1)
	case triggered && resettable:
		CircuitBreakerState.Set(2)
	default:
		CircuitBreakerState.Set(0)
	}
}
