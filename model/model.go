// Package model holds the entity types shared across the decision
// pipeline: price data, signals, orders, positions, account snapshots,
// and risk state. All timestamps are milliseconds since epoch at every
// boundary that crosses into persistence or a broker wire format; inside
// the pipeline they are carried as time.Time for convenience.
package model

import "time"

// AssetClass distinguishes the two broker-routed trading universes.
type AssetClass string

const (
	Futures AssetClass = "FUTURES"
	Equity  AssetClass = "EQUITY"
)

// Direction is a signal or position's directional bias.
type Direction string

const (
	DirectionLong    Direction = "LONG"
	DirectionShort   Direction = "SHORT"
	DirectionNeutral Direction = "NEUTRAL"
)

// Regime is the market-behavior classification used to admit or reject
// signal directions.
type Regime string

const (
	RegimeTrendUp   Regime = "TREND_UP"
	RegimeTrendDown Regime = "TREND_DOWN"
	RegimeRanging   Regime = "RANGING"
	RegimeVolatile  Regime = "VOLATILE"
)

// PriceBar is one OHLCV bar. Immutable once produced; ordered strictly
// increasing by Timestamp per (symbol, timeframe).
type PriceBar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Quote is an ephemeral top-of-book snapshot; no persistence invariant.
type Quote struct {
	Symbol    string
	Bid       *float64
	Ask       *float64
	Last      *float64
	Volume    *float64
	Timestamp time.Time
}

// SignalSource identifies which producer emitted a signal.
type SignalSource string

const (
	SourceMomentum      SignalSource = "momentum"
	SourceMeanReversion SignalSource = "meanReversion"
	SourceBreakout      SignalSource = "breakout"
	SourceManual        SignalSource = "manual"
)

// SignalStatus is a signal's lifecycle state. Status transitions
// monotonically ACTIVE -> {EXECUTED | EXPIRED | CANCELLED}.
type SignalStatus string

const (
	SignalActive    SignalStatus = "ACTIVE"
	SignalExecuted  SignalStatus = "EXECUTED"
	SignalExpired   SignalStatus = "EXPIRED"
	SignalCancelled SignalStatus = "CANCELLED"
)

// Signal is a proposal to trade: direction, strength, and price levels.
type Signal struct {
	ID         string
	Symbol     string
	AssetClass AssetClass
	Timeframe  string
	Direction  Direction
	Strength   float64
	EntryPrice float64
	StopLoss   float64
	TakeProfit *float64
	Source     SignalSource
	Regime     Regime
	Reasons    []string
	Indicators map[string]float64
	Status     SignalStatus
	Timestamp  time.Time
	ExpiresAt  time.Time
}

// Valid reports whether the signal is still actionable: not expired and
// not older than five minutes.
func (s Signal) Valid(now time.Time) bool {
	if !now.Before(s.ExpiresAt) {
		return false
	}
	return now.Sub(s.Timestamp) <= 5*time.Minute
}

// Validate checks the stop/target invariants from the data model.
func (s Signal) Validate() error {
	if s.StopLoss == s.EntryPrice {
		return errInvalidSignal("stopLoss equals entryPrice")
	}
	switch s.Direction {
	case DirectionLong:
		if s.StopLoss >= s.EntryPrice {
			return errInvalidSignal("LONG stopLoss must be below entryPrice")
		}
		if s.TakeProfit != nil && *s.TakeProfit <= s.EntryPrice {
			return errInvalidSignal("LONG takeProfit must be above entryPrice")
		}
	case DirectionShort:
		if s.StopLoss <= s.EntryPrice {
			return errInvalidSignal("SHORT stopLoss must be above entryPrice")
		}
		if s.TakeProfit != nil && *s.TakeProfit >= s.EntryPrice {
			return errInvalidSignal("SHORT takeProfit must be below entryPrice")
		}
	}
	return nil
}

type invalidSignalError string

func (e invalidSignalError) Error() string { return "model: invalid signal: " + string(e) }
func errInvalidSignal(msg string) error    { return invalidSignalError(msg) }

// Side is an order's buy/sell direction.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// OrderType is the broker order type.
type OrderType string

const (
	OrderMarket OrderType = "MARKET"
	OrderLimit  OrderType = "LIMIT"
	OrderStop   OrderType = "STOP"
)

// OrderStatus is the common status alphabet every broker adapter
// normalizes into.
type OrderStatus string

const (
	OrderPending         OrderStatus = "PENDING"
	OrderOpen            OrderStatus = "OPEN"
	OrderFilled          OrderStatus = "FILLED"
	OrderPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderCancelled       OrderStatus = "CANCELLED"
	OrderRejected        OrderStatus = "REJECTED"
	OrderExpired         OrderStatus = "EXPIRED"
)

// IsTerminal reports whether no further status transition is expected.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderFilled, OrderCancelled, OrderRejected, OrderExpired:
		return true
	default:
		return false
	}
}

// Order is a trade submitted to a broker.
type Order struct {
	ID             string
	Symbol         string
	AssetClass     AssetClass
	Broker         string
	ClientOrderID  string
	BrokerOrderID  *string
	Side           Side
	Quantity       float64
	OrderType      OrderType
	LimitPrice     *float64
	StopPrice      *float64
	Status         OrderStatus
	FilledQuantity float64
	AvgFillPrice   *float64
	SignalID       *string
	CreatedAt      time.Time
	FilledAt       *time.Time
	UpdatedAt      time.Time
}

// Validate checks the fill-quantity and terminal-status invariants.
func (o Order) Validate() error {
	if o.FilledQuantity < 0 || o.FilledQuantity > o.Quantity {
		return errInvalidSignal("filledQuantity must be within [0, quantity]")
	}
	if o.Status == OrderFilled && o.FilledAt == nil {
		return errInvalidSignal("filledAt must be set when status is FILLED")
	}
	return nil
}

// PositionSide is a held position's directional bias.
type PositionSide string

const (
	PositionLong  PositionSide = "LONG"
	PositionShort PositionSide = "SHORT"
)

// Position is a held, non-zero quantity in one symbol at one broker.
type Position struct {
	Symbol        string
	AssetClass    AssetClass
	Broker        string
	Side          PositionSide
	Quantity      float64
	EntryPrice    float64
	CurrentPrice  float64
	MarketValue   float64
	UnrealizedPnl float64
	UpdatedAt     time.Time
}

// Exposure summarizes an account's deployed capital by asset class.
type Exposure struct {
	Total    float64
	Futures  float64
	Equities float64
}

// AggregatedAccount is a point-in-time account snapshot.
type AggregatedAccount struct {
	TotalEquity      float64
	TotalCash        float64
	TotalBuyingPower float64
	Positions        []Position
	Exposure         Exposure
	PDTSubject       bool
	DayTradesUsed    int
	DayTradesLimit   int
}

// CircuitBreakerTrigger names the reason a circuit breaker tripped.
type CircuitBreakerTrigger string

const (
	TriggerDailyLoss         CircuitBreakerTrigger = "DAILY_LOSS"
	TriggerWeeklyLoss        CircuitBreakerTrigger = "WEEKLY_LOSS"
	TriggerDrawdown          CircuitBreakerTrigger = "DRAWDOWN"
	TriggerConsecutiveLosses CircuitBreakerTrigger = "CONSECUTIVE_LOSSES"
	TriggerManual            CircuitBreakerTrigger = "MANUAL"
)

// RiskState is the risk-management singleton, mutated only by the Risk
// Manager and scheduled reset tasks.
type RiskState struct {
	StartOfDayEquity        float64
	StartOfWeekEquity       float64
	PeakEquity              float64
	CurrentEquity           float64
	DailyPnl                float64
	DailyPnlPercent         float64
	WeeklyPnl               float64
	WeeklyPnlPercent        float64
	MaxDrawdown             float64
	MaxDrawdownPercent      float64
	ConsecutiveLosses       int
	ConsecutiveWins         int
	TodayTradeCount         int
	CircuitBreakerTriggered bool
	CircuitBreakerUntil     *time.Time
	CircuitBreakerReason    *CircuitBreakerTrigger
	DayTradesUsed           int
	DayTradesRemaining      int
	TradingDay              string
	LastUpdated             time.Time
}

// RecomputeDrawdown enforces peakEquity >= currentEquity => maxDrawdown =
// peakEquity - currentEquity.
func (r *RiskState) RecomputeDrawdown() {
	if r.CurrentEquity > r.PeakEquity {
		r.PeakEquity = r.CurrentEquity
	}
	r.MaxDrawdown = r.PeakEquity - r.CurrentEquity
	if r.PeakEquity > 0 {
		r.MaxDrawdownPercent = r.MaxDrawdown / r.PeakEquity * 100
	}
}

// TrailingStopState is per-position trailing-stop bookkeeping.
type TrailingStopState struct {
	PositionID   string
	Symbol       string
	Side         PositionSide
	EntryPrice   float64
	InitialStop  float64
	CurrentStop  float64
	HighestPrice float64
	LowestPrice  float64
	Activated    bool
	LastUpdate   time.Time
}

// AuditSeverity is an audit log entry's severity.
type AuditSeverity string

const (
	SeverityInfo     AuditSeverity = "INFO"
	SeverityWarn     AuditSeverity = "WARN"
	SeverityError    AuditSeverity = "ERROR"
	SeverityCritical AuditSeverity = "CRITICAL"
)

// AuditCategory classifies an audit log entry's subsystem.
type AuditCategory string

const (
	CategoryOrder  AuditCategory = "ORDER"
	CategoryRisk   AuditCategory = "RISK"
	CategorySignal AuditCategory = "SIGNAL"
	CategoryBroker AuditCategory = "BROKER"
	CategorySystem AuditCategory = "SYSTEM"
	CategoryAuth   AuditCategory = "AUTH"
	CategoryConfig AuditCategory = "CONFIG"
)

// AuditEntry is one append-only audit log row.
type AuditEntry struct {
	ID                string
	Timestamp         time.Time
	Severity          AuditSeverity
	Category          AuditCategory
	Message           string
	Context           map[string]any
	RelatedEntityID   *string
	RelatedEntityType *string
}
