// Package risk implements the Risk Manager: position sizing, the
// sequenced gate chain that turns a Signal into a Decision, portfolio
// exposure checks, the PDT check, and the circuit-breaker state machine.
package risk

import "time"

// Config holds every option the Risk Manager recognizes.
type Config struct {
	MaxRiskPerTradePercent     float64
	MaxDailyLossPercent        float64
	MaxWeeklyLossPercent       float64
	MaxDrawdownPercent         float64
	MaxPositionPercent         float64
	MaxConcurrentPositions     int
	MaxTotalExposurePercent    float64
	MaxFuturesExposurePercent  float64
	MaxEquitiesExposurePercent float64
	MinOrderValue              float64
	MaxOrderValue              float64
	ConsecutiveLossLimit       int
	CooldownMinutes            int
	PDTReserveDayTrades        int
	PDTDayTradesLimit          int
	CorrelationGroups          []CorrelationGroup

	MaxGrossExposurePercent float64
	MaxNetLongPercent       float64
	MaxNetShortPercent      float64
}

// CorrelationGroup is a named set of symbols whose combined exposure is
// bounded by a single limit.
type CorrelationGroup struct {
	Name                    string
	Symbols                 map[string]struct{}
	MaxConcentrationPercent float64
}

// DefaultConfig is the standard risk tuning.
func DefaultConfig() Config {
	return Config{
		MaxRiskPerTradePercent:     2,
		MaxDailyLossPercent:        5,
		MaxWeeklyLossPercent:       10,
		MaxDrawdownPercent:         15,
		MaxPositionPercent:         20,
		MaxConcurrentPositions:     10,
		MaxTotalExposurePercent:    250,
		MaxFuturesExposurePercent:  250,
		MaxEquitiesExposurePercent: 250,
		MinOrderValue:              500,
		MaxOrderValue:              1000000,
		ConsecutiveLossLimit:       5,
		CooldownMinutes:            60,
		PDTReserveDayTrades:        1,
		PDTDayTradesLimit:          4,
		MaxGrossExposurePercent:    300,
		MaxNetLongPercent:          150,
		MaxNetShortPercent:         50,
	}
}

// Validate surfaces InvalidConfig at startup. minOrderValue above
// maxOrderValue would invert the sizing clamp, so it is rejected here
// rather than handled at order time.
func (c Config) Validate() error {
	if c.MinOrderValue > c.MaxOrderValue {
		return errConfig("minOrderValue must not exceed maxOrderValue")
	}
	if c.MaxRiskPerTradePercent <= 0 {
		return errConfig("maxRiskPerTradePercent must be positive")
	}
	if c.MaxConcurrentPositions <= 0 {
		return errConfig("maxConcurrentPositions must be positive")
	}
	return nil
}

type configError string

func (e configError) Error() string { return "risk: invalid config: " + string(e) }
func errConfig(msg string) error    { return configError(msg) }

// cooldown returns the configured cooldown as a time.Duration.
func (c Config) cooldown() time.Duration {
	if c.CooldownMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.CooldownMinutes) * time.Minute
}
