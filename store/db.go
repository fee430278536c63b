// Package store implements the persistence layer: narrow CRUD/query
// repositories over trades, positions, signals, risk_state,
// daily_metrics, equity_curve, and audit_log, backed by database/sql
// and modernc.org/sqlite.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open opens (creating if necessary) the sqlite database at path and
// runs every repository's schema migration.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: opening database: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite: a single writer avoids SQLITE_BUSY under concurrent ticks
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		tradesSchema,
		positionsSchema,
		signalsSchema,
		riskStateSchema,
		dailyMetricsSchema,
		equityCurveSchema,
		auditLogSchema,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("store: migrating schema: %w", err)
		}
	}
	return nil
}
