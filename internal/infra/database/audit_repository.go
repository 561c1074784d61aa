package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/xavierca1/leadflow/internal/entity"
)

const createAuditTable = `
	CREATE TABLE IF NOT EXISTS lead_audit_log (
		id             BIGSERIAL PRIMARY KEY,
		logged_at      TIMESTAMPTZ NOT NULL,
		lead_name      TEXT NOT NULL,
		lead_phone     TEXT,
		lead_email     TEXT,
		partner_name   TEXT,
		partner_phone  TEXT,
		balance_after  NUMERIC(12,2),
		notify_partner TEXT NOT NULL,
		notify_lead    TEXT NOT NULL,
		status         TEXT NOT NULL,
		run_id         TEXT NOT NULL
	)
`

// AuditRepository mirrors the lead log into Postgres so it can be queried
// without the spreadsheet.
type AuditRepository struct {
	DB *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{DB: db}
}

// Migrate creates the mirror table when it is missing.
func (r *AuditRepository) Migrate(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, createAuditTable); err != nil {
		return fmt.Errorf("create lead_audit_log: %w", err)
	}
	return nil
}

func (r *AuditRepository) Append(ctx context.Context, e entity.AuditEntry) error {
	query := `
		INSERT INTO lead_audit_log (
			logged_at, lead_name, lead_phone, lead_email, partner_name, partner_phone,
			balance_after, notify_partner, notify_lead, status, run_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	var balance *string
	if e.PartnerName != "" {
		s := e.BalanceAfter.StringFixed(2)
		balance = &s
	}

	_, err := r.DB.ExecContext(ctx, query,
		e.Timestamp.UTC(),
		e.Lead.Name,
		nullString(e.Lead.Phone),
		nullString(e.Lead.Email),
		nullString(e.PartnerName),
		nullString(e.PartnerPhone),
		balance,
		e.PartnerNotify.Label(),
		e.LeadNotify.Label(),
		string(e.Status),
		e.RunID,
	)
	if err != nil {
		return fmt.Errorf("insert audit row: %w", err)
	}
	return nil
}

// CountByStatus reports how many rows of each status one scan run wrote.
func (r *AuditRepository) CountByStatus(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM lead_audit_log WHERE run_id = $1 GROUP BY status`, runID)
	if err != nil {
		return nil, fmt.Errorf("count audit rows: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
