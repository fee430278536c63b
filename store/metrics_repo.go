package store

import (
	"database/sql"
	"time"
)

const dailyMetricsSchema = `
CREATE TABLE IF NOT EXISTS daily_metrics (
	trading_day TEXT PRIMARY KEY,
	starting_equity REAL NOT NULL,
	ending_equity REAL NOT NULL,
	realized_pnl REAL NOT NULL,
	trade_count INTEGER NOT NULL,
	win_count INTEGER NOT NULL,
	loss_count INTEGER NOT NULL,
	circuit_breaker_trips INTEGER NOT NULL DEFAULT 0,
	updated_at INTEGER NOT NULL
);
`

const equityCurveSchema = `
CREATE TABLE IF NOT EXISTS equity_curve (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	recorded_at INTEGER NOT NULL,
	equity REAL NOT NULL,
	cash REAL NOT NULL,
	buying_power REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_equity_curve_recorded_at ON equity_curve(recorded_at);
`

// DailyMetrics is one day's closing risk/performance snapshot, written
// by the engine's daily reset task.
type DailyMetrics struct {
	TradingDay          string
	StartingEquity      float64
	EndingEquity        float64
	RealizedPnl         float64
	TradeCount          int
	WinCount            int
	LossCount           int
	CircuitBreakerTrips int
	UpdatedAt           time.Time
}

// EquityPoint is one hourly equity-curve sample.
type EquityPoint struct {
	RecordedAt  time.Time
	Equity      float64
	Cash        float64
	BuyingPower float64
}

// MetricsRepo persists daily close-of-day summaries and the
// higher-frequency equity curve sampled by the engine's hourly
// snapshot task.
type MetricsRepo struct {
	db *sql.DB
}

// NewMetricsRepo wraps db with the metrics repository.
func NewMetricsRepo(db *sql.DB) *MetricsRepo { return &MetricsRepo{db: db} }

// UpsertDaily writes or replaces a day's summary row.
func (r *MetricsRepo) UpsertDaily(m DailyMetrics) error {
	_, err := r.db.Exec(`
		INSERT INTO daily_metrics (trading_day, starting_equity, ending_equity, realized_pnl, trade_count,
			win_count, loss_count, circuit_breaker_trips, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(trading_day) DO UPDATE SET
			starting_equity = excluded.starting_equity, ending_equity = excluded.ending_equity,
			realized_pnl = excluded.realized_pnl, trade_count = excluded.trade_count,
			win_count = excluded.win_count, loss_count = excluded.loss_count,
			circuit_breaker_trips = excluded.circuit_breaker_trips, updated_at = excluded.updated_at
	`, m.TradingDay, m.StartingEquity, m.EndingEquity, m.RealizedPnl, m.TradeCount, m.WinCount, m.LossCount,
		m.CircuitBreakerTrips, m.UpdatedAt.UnixMilli())
	return err
}

// RecordEquityPoint appends one equity-curve sample.
func (r *MetricsRepo) RecordEquityPoint(p EquityPoint) error {
	_, err := r.db.Exec(`
		INSERT INTO equity_curve (recorded_at, equity, cash, buying_power) VALUES (?, ?, ?, ?)
	`, p.RecordedAt.UnixMilli(), p.Equity, p.Cash, p.BuyingPower)
	return err
}

// EquityCurveSince returns every sample recorded at or after since.
func (r *MetricsRepo) EquityCurveSince(since time.Time) ([]EquityPoint, error) {
	rows, err := r.db.Query(`
		SELECT recorded_at, equity, cash, buying_power FROM equity_curve WHERE recorded_at >= ? ORDER BY recorded_at
	`, since.UnixMilli())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquityPoint
	for rows.Next() {
		var p EquityPoint
		var recordedAt int64
		if err := rows.Scan(&recordedAt, &p.Equity, &p.Cash, &p.BuyingPower); err != nil {
			return nil, err
		}
		p.RecordedAt = time.UnixMilli(recordedAt)
		out = append(out, p)
	}
	return out, rows.Err()
}
