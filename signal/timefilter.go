package signal

import (
	"time"

	"github.com/synapsestrike/tradeengine/model"
)

// SessionWindow is a trading-hour window in UTC minutes-of-day.
type SessionWindow struct {
	OpenMinute  int
	CloseMinute int
	EdgeWidth   time.Duration // avoided at both session edges
}

// TimeFilterConfig holds the per-asset-class session windows and the
// optional weekday guards.
type TimeFilterConfig struct {
	Futures          SessionWindow
	Equity           SessionWindow
	HolidayMode      bool
	FridayLateGuard  time.Duration // avoid the last N of Friday's session
	MondayEarlyGuard time.Duration // avoid the first N of Monday's session
}

// DefaultTimeFilterConfig is the standard session table: futures
// 06:00-22:00 UTC, equities 13:00-20:00 UTC, 30 minute session edges.
func DefaultTimeFilterConfig() TimeFilterConfig {
	return TimeFilterConfig{
		Futures: SessionWindow{OpenMinute: 6 * 60, CloseMinute: 22 * 60, EdgeWidth: 30 * time.Minute},
		Equity:  SessionWindow{OpenMinute: 13 * 60, CloseMinute: 20 * 60, EdgeWidth: 30 * time.Minute},
	}
}

// TimeFilter accepts or rejects a timestamp for a given asset class.
type TimeFilter struct {
	Config TimeFilterConfig
}

// NewTimeFilter builds a TimeFilter with the given configuration.
func NewTimeFilter(cfg TimeFilterConfig) TimeFilter { return TimeFilter{Config: cfg} }

// Allow reports whether now (any timezone; converted to UTC internally) is
// an acceptable instant to evaluate signals for assetClass.
func (f TimeFilter) Allow(now time.Time, assetClass model.AssetClass) bool {
	now = now.UTC()
	weekday := now.Weekday()
	if weekday == time.Saturday || weekday == time.Sunday {
		return false
	}
	if f.Config.HolidayMode {
		return false
	}

	window := f.Config.Equity
	if assetClass == model.Futures {
		window = f.Config.Futures
	}

	minuteOfDay := now.Hour()*60 + now.Minute()
	sessionStart := window.OpenMinute + int(window.EdgeWidth.Minutes())
	sessionEnd := window.CloseMinute - int(window.EdgeWidth.Minutes())
	if minuteOfDay < sessionStart || minuteOfDay > sessionEnd {
		return false
	}

	if weekday == time.Friday && f.Config.FridayLateGuard > 0 {
		guardStart := window.CloseMinute - int(f.Config.FridayLateGuard.Minutes())
		if minuteOfDay >= guardStart {
			return false
		}
	}
	if weekday == time.Monday && f.Config.MondayEarlyGuard > 0 {
		guardEnd := window.OpenMinute + int(f.Config.MondayEarlyGuard.Minutes())
		if minuteOfDay <= guardEnd {
			return false
		}
	}

	return true
}
