package store

import (
	"database/sql"
	"time"

	"github.com/synapsestrike/tradeengine/model"
)

const tradesSchema = `
CREATE TABLE IF NOT EXISTS trades (
	id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	asset_class TEXT NOT NULL,
	broker TEXT NOT NULL,
	client_order_id TEXT NOT NULL UNIQUE,
	broker_order_id TEXT,
	side TEXT NOT NULL,
	quantity REAL NOT NULL,
	order_type TEXT NOT NULL,
	limit_price REAL,
	stop_price REAL,
	status TEXT NOT NULL,
	filled_quantity REAL NOT NULL DEFAULT 0,
	avg_fill_price REAL,
	signal_id TEXT,
	created_at INTEGER NOT NULL,
	filled_at INTEGER,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trades_symbol_created ON trades(symbol, created_at);
CREATE INDEX IF NOT EXISTS idx_trades_status ON trades(status);

CREATE TABLE IF NOT EXISTS trade_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	trade_id TEXT NOT NULL,
	status TEXT NOT NULL,
	filled_quantity REAL NOT NULL,
	avg_fill_price REAL,
	recorded_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trade_history_trade ON trade_history(trade_id);
`

const positionsSchema = `
CREATE TABLE IF NOT EXISTS positions (
	symbol TEXT NOT NULL,
	broker TEXT NOT NULL,
	asset_class TEXT NOT NULL,
	side TEXT NOT NULL,
	quantity REAL NOT NULL,
	entry_price REAL NOT NULL,
	current_price REAL NOT NULL,
	market_value REAL NOT NULL,
	unrealized_pnl REAL NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (symbol, broker)
);
`

// TradeRepo persists Order/Trade rows and enforces idempotency on
// clientOrderId.
type TradeRepo struct {
	db *sql.DB
}

// NewTradeRepo wraps db with the trade repository.
func NewTradeRepo(db *sql.DB) *TradeRepo { return &TradeRepo{db: db} }

// Create inserts a trade, or returns the existing row unchanged when
// clientOrderId already exists, so a retried broker submission never
// double-books.
func (r *TradeRepo) Create(o model.Order) (model.Order, error) {
	_, err := r.db.Exec(`
		INSERT INTO trades (id, symbol, asset_class, broker, client_order_id, broker_order_id, side, quantity,
			order_type, limit_price, stop_price, status, filled_quantity, avg_fill_price, signal_id,
			created_at, filled_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(client_order_id) DO NOTHING
	`, o.ID, o.Symbol, string(o.AssetClass), o.Broker, o.ClientOrderID, nullableString(o.BrokerOrderID), string(o.Side),
		o.Quantity, string(o.OrderType), nullableFloat(o.LimitPrice), nullableFloat(o.StopPrice), string(o.Status),
		o.FilledQuantity, nullableFloat(o.AvgFillPrice), nullableString(o.SignalID),
		o.CreatedAt.UnixMilli(), nullableMillis(o.FilledAt), o.UpdatedAt.UnixMilli())
	if err != nil {
		return model.Order{}, err
	}

	existing, err := r.GetByClientOrderID(o.ClientOrderID)
	if err != nil {
		return model.Order{}, err
	}
	return *existing, nil
}

// UpdateStatus applies a fill or status transition and appends a
// trade_history row for audit-grade replay.
func (r *TradeRepo) UpdateStatus(id string, status model.OrderStatus, filledQty float64, avgFillPrice *float64, filledAt *time.Time, now time.Time) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		UPDATE trades SET status = ?, filled_quantity = ?, avg_fill_price = ?, filled_at = ?, updated_at = ?
		WHERE id = ?
	`, string(status), filledQty, nullableFloat(avgFillPrice), nullableMillis(filledAt), now.UnixMilli(), id)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO trade_history (trade_id, status, filled_quantity, avg_fill_price, recorded_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, string(status), filledQty, nullableFloat(avgFillPrice), now.UnixMilli())
	if err != nil {
		return err
	}

	return tx.Commit()
}

// GetByClientOrderID fetches a trade by its idempotency key.
func (r *TradeRepo) GetByClientOrderID(clientOrderID string) (*model.Order, error) {
	row := r.db.QueryRow(tradeSelectCols+`FROM trades WHERE client_order_id = ?`, clientOrderID)
	return scanTrade(row)
}

// Get fetches a trade by ID.
func (r *TradeRepo) Get(id string) (*model.Order, error) {
	row := r.db.QueryRow(tradeSelectCols+`FROM trades WHERE id = ?`, id)
	return scanTrade(row)
}

// BySymbol returns trades for a symbol ordered by createdAt.
func (r *TradeRepo) BySymbol(symbol string, limit int) ([]model.Order, error) {
	rows, err := r.db.Query(tradeSelectCols+`FROM trades WHERE symbol = ? ORDER BY created_at DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Order
	for rows.Next() {
		o, err := scanTradeRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

const tradeSelectCols = `
	SELECT id, symbol, asset_class, broker, client_order_id, broker_order_id, side, quantity, order_type,
		limit_price, stop_price, status, filled_quantity, avg_fill_price, signal_id, created_at, filled_at, updated_at
`

func scanTrade(row *sql.Row) (*model.Order, error) { return scanTradeRow(row) }

func scanTradeRow(row rowScanner) (*model.Order, error) {
	var o model.Order
	var assetClass, side, orderType, status string
	var brokerOrderID, signalID sql.NullString
	var limitPrice, stopPrice, avgFillPrice sql.NullFloat64
	var createdAt, updatedAt int64
	var filledAt sql.NullInt64

	err := row.Scan(&o.ID, &o.Symbol, &assetClass, &o.Broker, &o.ClientOrderID, &brokerOrderID, &side, &o.Quantity,
		&orderType, &limitPrice, &stopPrice, &status, &o.FilledQuantity, &avgFillPrice, &signalID,
		&createdAt, &filledAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	o.AssetClass = model.AssetClass(assetClass)
	o.Side = model.Side(side)
	o.OrderType = model.OrderType(orderType)
	o.Status = model.OrderStatus(status)
	o.CreatedAt = time.UnixMilli(createdAt)
	o.UpdatedAt = time.UnixMilli(updatedAt)
	if brokerOrderID.Valid {
		o.BrokerOrderID = &brokerOrderID.String
	}
	if signalID.Valid {
		o.SignalID = &signalID.String
	}
	if limitPrice.Valid {
		o.LimitPrice = &limitPrice.Float64
	}
	if stopPrice.Valid {
		o.StopPrice = &stopPrice.Float64
	}
	if avgFillPrice.Valid {
		o.AvgFillPrice = &avgFillPrice.Float64
	}
	if filledAt.Valid {
		t := time.UnixMilli(filledAt.Int64)
		o.FilledAt = &t
	}
	return &o, nil
}

// PositionRepo persists the derived one-per-(symbol,broker) Position
// rows.
type PositionRepo struct {
	db *sql.DB
}

// NewPositionRepo wraps db with the position repository.
func NewPositionRepo(db *sql.DB) *PositionRepo { return &PositionRepo{db: db} }

// Upsert writes the current state of a position, replacing any prior
// row for the same (symbol, broker).
func (r *PositionRepo) Upsert(p model.Position) error {
	_, err := r.db.Exec(`
		INSERT INTO positions (symbol, broker, asset_class, side, quantity, entry_price, current_price,
			market_value, unrealized_pnl, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, broker) DO UPDATE SET
			asset_class = excluded.asset_class, side = excluded.side, quantity = excluded.quantity,
			entry_price = excluded.entry_price, current_price = excluded.current_price,
			market_value = excluded.market_value, unrealized_pnl = excluded.unrealized_pnl,
			updated_at = excluded.updated_at
	`, p.Symbol, p.Broker, string(p.AssetClass), string(p.Side), p.Quantity, p.EntryPrice, p.CurrentPrice,
		p.MarketValue, p.UnrealizedPnl, p.UpdatedAt.UnixMilli())
	return err
}

// Delete removes a position once its quantity returns to zero.
func (r *PositionRepo) Delete(symbol, broker string) error {
	_, err := r.db.Exec(`DELETE FROM positions WHERE symbol = ? AND broker = ?`, symbol, broker)
	return err
}

// All returns every open position.
func (r *PositionRepo) All() ([]model.Position, error) {
	rows, err := r.db.Query(`
		SELECT symbol, broker, asset_class, side, quantity, entry_price, current_price, market_value,
			unrealized_pnl, updated_at
		FROM positions
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Position
	for rows.Next() {
		var p model.Position
		var assetClass, side string
		var updatedAt int64
		if err := rows.Scan(&p.Symbol, &p.Broker, &assetClass, &side, &p.Quantity, &p.EntryPrice, &p.CurrentPrice,
			&p.MarketValue, &p.UnrealizedPnl, &updatedAt); err != nil {
			return nil, err
		}
		p.AssetClass = model.AssetClass(assetClass)
		p.Side = model.PositionSide(side)
		p.UpdatedAt = time.UnixMilli(updatedAt)
		out = append(out, p)
	}
	return out, rows.Err()
}

func nullableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func nullableMillis(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}
