package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/synapsestrike/tradeengine/model"
)

const auditLogSchema = `
CREATE TABLE IF NOT EXISTS audit_log (
	id TEXT PRIMARY KEY,
	timestamp INTEGER NOT NULL,
	severity TEXT NOT NULL,
	category TEXT NOT NULL,
	message TEXT NOT NULL,
	context TEXT NOT NULL DEFAULT '{}',
	related_entity_id TEXT,
	related_entity_type TEXT
);
CREATE INDEX IF NOT EXISTS idx_audit_log_timestamp ON audit_log(timestamp);
CREATE INDEX IF NOT EXISTS idx_audit_log_category ON audit_log(category);
`

// AuditRepo is an append-only writer for AuditEntry rows. Rows are
// never updated or deleted through this repository; it tolerates high
// write volume from the audit package's background drain loop.
type AuditRepo struct {
	db *sql.DB
}

// NewAuditRepo wraps db with the audit repository.
func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{db: db} }

// Append writes one audit entry.
func (r *AuditRepo) Append(e model.AuditEntry) error {
	ctxJSON, err := json.Marshal(e.Context)
	if err != nil {
		return fmt.Errorf("store: marshaling audit context: %w", err)
	}
	_, err = r.db.Exec(`
		INSERT INTO audit_log (id, timestamp, severity, category, message, context, related_entity_id, related_entity_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Timestamp.UnixMilli(), string(e.Severity), string(e.Category), e.Message, string(ctxJSON),
		nullableString(e.RelatedEntityID), nullableString(e.RelatedEntityType))
	return err
}

// Recent returns the most recent n audit entries, optionally filtered
// by category.
func (r *AuditRepo) Recent(category *model.AuditCategory, limit int) ([]model.AuditEntry, error) {
	var rows *sql.Rows
	var err error
	if category != nil {
		rows, err = r.db.Query(`
			SELECT id, timestamp, severity, category, message, context, related_entity_id, related_entity_type
			FROM audit_log WHERE category = ? ORDER BY timestamp DESC LIMIT ?
		`, string(*category), limit)
	} else {
		rows, err = r.db.Query(`
			SELECT id, timestamp, severity, category, message, context, related_entity_id, related_entity_type
			FROM audit_log ORDER BY timestamp DESC LIMIT ?
		`, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AuditEntry
	for rows.Next() {
		var e model.AuditEntry
		var severity, cat, ctxJSON string
		var timestamp int64
		var relatedID, relatedType sql.NullString
		if err := rows.Scan(&e.ID, &timestamp, &severity, &cat, &e.Message, &ctxJSON, &relatedID, &relatedType); err != nil {
			return nil, err
		}
		e.Timestamp = time.UnixMilli(timestamp)
		e.Severity = model.AuditSeverity(severity)
		e.Category = model.AuditCategory(cat)
		if err := json.Unmarshal([]byte(ctxJSON), &e.Context); err != nil {
			return nil, fmt.Errorf("store: unmarshaling audit context: %w", err)
		}
		if relatedID.Valid {
			e.RelatedEntityID = &relatedID.String
		}
		if relatedType.Valid {
			e.RelatedEntityType = &relatedType.String
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
