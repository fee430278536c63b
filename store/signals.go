package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/synapsestrike/tradeengine/model"
)

const signalsSchema = `
CREATE TABLE IF NOT EXISTS signals (
	id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	asset_class TEXT NOT NULL,
	timeframe TEXT NOT NULL,
	direction TEXT NOT NULL,
	strength REAL NOT NULL,
	entry_price REAL NOT NULL,
	stop_loss REAL NOT NULL,
	take_profit REAL,
	source TEXT NOT NULL,
	regime TEXT NOT NULL,
	reasons TEXT NOT NULL DEFAULT '[]',
	indicators TEXT NOT NULL DEFAULT '{}',
	status TEXT NOT NULL,
	timestamp INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_signals_symbol_status ON signals(symbol, status);
CREATE INDEX IF NOT EXISTS idx_signals_status_expires ON signals(status, expires_at);
`

// SignalRepo persists Signal rows. Inserts never mutate an existing
// row; status changes happen only through UpdateStatus.
type SignalRepo struct {
	db *sql.DB
}

// NewSignalRepo wraps db with the signal repository.
func NewSignalRepo(db *sql.DB) *SignalRepo { return &SignalRepo{db: db} }

// Create inserts a new signal row. Signal IDs are caller-generated
// (uuid), so a retried Create with the same ID is a programming error,
// not an idempotency case — unlike TradeRepo.Create, signals carry no
// natural dedup key.
func (r *SignalRepo) Create(s model.Signal) error {
	reasons, err := json.Marshal(s.Reasons)
	if err != nil {
		return fmt.Errorf("store: marshaling signal reasons: %w", err)
	}
	indicators, err := json.Marshal(s.Indicators)
	if err != nil {
		return fmt.Errorf("store: marshaling signal indicators: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO signals (id, symbol, asset_class, timeframe, direction, strength, entry_price, stop_loss,
			take_profit, source, regime, reasons, indicators, status, timestamp, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.Symbol, string(s.AssetClass), s.Timeframe, string(s.Direction), s.Strength, s.EntryPrice, s.StopLoss,
		nullableFloat(s.TakeProfit), string(s.Source), string(s.Regime), string(reasons), string(indicators),
		string(s.Status), s.Timestamp.UnixMilli(), s.ExpiresAt.UnixMilli())
	return err
}

// UpdateStatus is the only path by which a signal's status changes.
func (r *SignalRepo) UpdateStatus(id string, status model.SignalStatus) error {
	_, err := r.db.Exec(`UPDATE signals SET status = ? WHERE id = ?`, string(status), id)
	return err
}

// Get fetches a single signal by ID.
func (r *SignalRepo) Get(id string) (*model.Signal, error) {
	row := r.db.QueryRow(`
		SELECT id, symbol, asset_class, timeframe, direction, strength, entry_price, stop_loss,
			take_profit, source, regime, reasons, indicators, status, timestamp, expires_at
		FROM signals WHERE id = ?
	`, id)
	return scanSignal(row)
}

// Active returns every signal with status ACTIVE and expiresAt > now,
// backing the control plane's active-signals view.
func (r *SignalRepo) Active(now time.Time) ([]model.Signal, error) {
	rows, err := r.db.Query(`
		SELECT id, symbol, asset_class, timeframe, direction, strength, entry_price, stop_loss,
			take_profit, source, regime, reasons, indicators, status, timestamp, expires_at
		FROM signals WHERE status = 'ACTIVE' AND expires_at > ?
		ORDER BY timestamp DESC
	`, now.UnixMilli())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Signal
	for rows.Next() {
		s, err := scanSignalRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// ExpireStale transitions every ACTIVE signal whose expiresAt has
// passed to EXPIRED; called by the scheduled tick sweep.
func (r *SignalRepo) ExpireStale(now time.Time) (int64, error) {
	res, err := r.db.Exec(`UPDATE signals SET status = 'EXPIRED' WHERE status = 'ACTIVE' AND expires_at <= ?`, now.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSignal(row *sql.Row) (*model.Signal, error) {
	return scanSignalRow(row)
}

func scanSignalRow(row rowScanner) (*model.Signal, error) {
	var s model.Signal
	var assetClass, direction, source, regime, status string
	var reasonsJSON, indicatorsJSON string
	var takeProfit sql.NullFloat64
	var timestamp, expiresAt int64

	err := row.Scan(&s.ID, &s.Symbol, &assetClass, &s.Timeframe, &direction, &s.Strength, &s.EntryPrice, &s.StopLoss,
		&takeProfit, &source, &regime, &reasonsJSON, &indicatorsJSON, &status, &timestamp, &expiresAt)
	if err != nil {
		return nil, err
	}

	s.AssetClass = model.AssetClass(assetClass)
	s.Direction = model.Direction(direction)
	s.Source = model.SignalSource(source)
	s.Regime = model.Regime(regime)
	s.Status = model.SignalStatus(status)
	s.Timestamp = time.UnixMilli(timestamp)
	s.ExpiresAt = time.UnixMilli(expiresAt)
	if takeProfit.Valid {
		v := takeProfit.Float64
		s.TakeProfit = &v
	}
	if err := json.Unmarshal([]byte(reasonsJSON), &s.Reasons); err != nil {
		return nil, fmt.Errorf("store: unmarshaling signal reasons: %w", err)
	}
	if err := json.Unmarshal([]byte(indicatorsJSON), &s.Indicators); err != nil {
		return nil, fmt.Errorf("store: unmarshaling signal indicators: %w", err)
	}
	return &s, nil
}

func nullableFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}
