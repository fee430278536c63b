package store

import (
	"database/sql"
	"time"

	"github.com/synapsestrike/tradeengine/model"
)

const riskStateSchema = `
CREATE TABLE IF NOT EXISTS risk_state (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	start_of_day_equity REAL NOT NULL,
	start_of_week_equity REAL NOT NULL,
	peak_equity REAL NOT NULL,
	current_equity REAL NOT NULL,
	daily_pnl REAL NOT NULL,
	daily_pnl_percent REAL NOT NULL,
	weekly_pnl REAL NOT NULL,
	weekly_pnl_percent REAL NOT NULL,
	max_drawdown REAL NOT NULL,
	max_drawdown_percent REAL NOT NULL,
	consecutive_losses INTEGER NOT NULL,
	consecutive_wins INTEGER NOT NULL,
	today_trade_count INTEGER NOT NULL,
	circuit_breaker_triggered INTEGER NOT NULL,
	circuit_breaker_until INTEGER,
	circuit_breaker_reason TEXT,
	day_trades_used INTEGER NOT NULL,
	day_trades_remaining INTEGER NOT NULL,
	trading_day TEXT NOT NULL,
	last_updated INTEGER NOT NULL
);
`

// RiskStateRepo persists the single RiskState row. The row at id=1 is
// seeded on first boot and never deleted, so reads never come back
// empty afterwards.
type RiskStateRepo struct {
	db *sql.DB
}

// NewRiskStateRepo wraps db with the risk state repository.
func NewRiskStateRepo(db *sql.DB) *RiskStateRepo { return &RiskStateRepo{db: db} }

// Get loads the singleton row, seeding it with startingEquity if this
// is the first boot.
func (r *RiskStateRepo) Get(startingEquity float64, tradingDay string, now time.Time) (*model.RiskState, error) {
	row := r.db.QueryRow(`
		SELECT start_of_day_equity, start_of_week_equity, peak_equity, current_equity, daily_pnl,
			daily_pnl_percent, weekly_pnl, weekly_pnl_percent, max_drawdown, max_drawdown_percent,
			consecutive_losses, consecutive_wins, today_trade_count, circuit_breaker_triggered,
			circuit_breaker_until, circuit_breaker_reason, day_trades_used, day_trades_remaining,
			trading_day, last_updated
		FROM risk_state WHERE id = 1
	`)
	state, err := scanRiskState(row)
	if err == sql.ErrNoRows {
		seed := model.RiskState{
			StartOfDayEquity: startingEquity, StartOfWeekEquity: startingEquity,
			PeakEquity: startingEquity, CurrentEquity: startingEquity,
			DayTradesRemaining: 3, TradingDay: tradingDay, LastUpdated: now,
		}
		if err := r.Save(seed); err != nil {
			return nil, err
		}
		return &seed, nil
	}
	if err != nil {
		return nil, err
	}
	return state, nil
}

// Save upserts the singleton row.
func (r *RiskStateRepo) Save(s model.RiskState) error {
	var reason interface{}
	if s.CircuitBreakerReason != nil {
		reason = string(*s.CircuitBreakerReason)
	}
	var until interface{}
	if s.CircuitBreakerUntil != nil {
		until = s.CircuitBreakerUntil.UnixMilli()
	}
	_, err := r.db.Exec(`
		INSERT INTO risk_state (id, start_of_day_equity, start_of_week_equity, peak_equity, current_equity,
			daily_pnl, daily_pnl_percent, weekly_pnl, weekly_pnl_percent, max_drawdown, max_drawdown_percent,
			consecutive_losses, consecutive_wins, today_trade_count, circuit_breaker_triggered,
			circuit_breaker_until, circuit_breaker_reason, day_trades_used, day_trades_remaining,
			trading_day, last_updated)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			start_of_day_equity = excluded.start_of_day_equity, start_of_week_equity = excluded.start_of_week_equity,
			peak_equity = excluded.peak_equity, current_equity = excluded.current_equity,
			daily_pnl = excluded.daily_pnl, daily_pnl_percent = excluded.daily_pnl_percent,
			weekly_pnl = excluded.weekly_pnl, weekly_pnl_percent = excluded.weekly_pnl_percent,
			max_drawdown = excluded.max_drawdown, max_drawdown_percent = excluded.max_drawdown_percent,
			consecutive_losses = excluded.consecutive_losses, consecutive_wins = excluded.consecutive_wins,
			today_trade_count = excluded.today_trade_count,
			circuit_breaker_triggered = excluded.circuit_breaker_triggered,
			circuit_breaker_until = excluded.circuit_breaker_until,
			circuit_breaker_reason = excluded.circuit_breaker_reason,
			day_trades_used = excluded.day_trades_used, day_trades_remaining = excluded.day_trades_remaining,
			trading_day = excluded.trading_day, last_updated = excluded.last_updated
	`, s.StartOfDayEquity, s.StartOfWeekEquity, s.PeakEquity, s.CurrentEquity, s.DailyPnl, s.DailyPnlPercent,
		s.WeeklyPnl, s.WeeklyPnlPercent, s.MaxDrawdown, s.MaxDrawdownPercent, s.ConsecutiveLosses, s.ConsecutiveWins,
		s.TodayTradeCount, boolToInt(s.CircuitBreakerTriggered), until, reason, s.DayTradesUsed,
		s.DayTradesRemaining, s.TradingDay, s.LastUpdated.UnixMilli())
	return err
}

func scanRiskState(row *sql.Row) (*model.RiskState, error) {
	var s model.RiskState
	var triggered int
	var until sql.NullInt64
	var reason sql.NullString
	var lastUpdated int64

	err := row.Scan(&s.StartOfDayEquity, &s.StartOfWeekEquity, &s.PeakEquity, &s.CurrentEquity, &s.DailyPnl,
		&s.DailyPnlPercent, &s.WeeklyPnl, &s.WeeklyPnlPercent, &s.MaxDrawdown, &s.MaxDrawdownPercent,
		&s.ConsecutiveLosses, &s.ConsecutiveWins, &s.TodayTradeCount, &triggered, &until, &reason,
		&s.DayTradesUsed, &s.DayTradesRemaining, &s.TradingDay, &lastUpdated)
	if err != nil {
		return nil, err
	}
	s.CircuitBreakerTriggered = triggered != 0
	s.LastUpdated = time.UnixMilli(lastUpdated)
	if until.Valid {
		t := time.UnixMilli(until.Int64)
		s.CircuitBreakerUntil = &t
	}
	if reason.Valid {
		trig := model.CircuitBreakerTrigger(reason.String)
		s.CircuitBreakerReason = &trig
	}
	return &s, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
