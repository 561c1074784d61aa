package sheetstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/spreadsheet"
)

var AuditHeader = []string{
	"Timestamp", "Lead_Name", "Lead_Phone", "Lead_Email",
	"Partner_Name", "Partner_Phone", "Balance_After",
	"Notify_Partner", "Notify_Lead", "Status", "Run_ID",
}

const (
	auditColLeadName  = 1
	auditColLeadPhone = 2
	auditColStatus    = 9
)

// AuditLogRepository appends to the lead log tab. The tab is expected to be
// opened with spreadsheet.Workbook.EnsureTable(AuditHeader).
type AuditLogRepository struct {
	table spreadsheet.Table
}

func NewAuditLogRepository(table spreadsheet.Table) *AuditLogRepository {
	return &AuditLogRepository{table: table}
}

func (r *AuditLogRepository) Append(ctx context.Context, e entity.AuditEntry) error {
	row := []any{
		formatTimestamp(e.Timestamp),
		e.Lead.Name,
		e.Lead.Phone,
		e.Lead.Email,
		e.PartnerName,
		e.PartnerPhone,
		e.BalanceAfter.Round(2).InexactFloat64(),
		e.PartnerNotify.Label(),
		e.LeadNotify.Label(),
		string(e.Status),
		e.RunID,
	}
	if err := r.table.AppendRow(ctx, row); err != nil {
		return fmt.Errorf("append audit row: %w", err)
	}
	return nil
}

func (r *AuditLogRepository) FindAll(ctx context.Context) ([]entity.AuditRecord, error) {
	rows, err := r.table.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	out := make([]entity.AuditRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		out = append(out, entity.AuditRecord{
			Row:       i + 2,
			LeadName:  strings.TrimSpace(spreadsheet.Cell(row, auditColLeadName)),
			LeadPhone: strings.TrimSpace(spreadsheet.Cell(row, auditColLeadPhone)),
			Status:    strings.TrimSpace(spreadsheet.Cell(row, auditColStatus)),
		})
	}
	return out, nil
}

func (r *AuditLogRepository) UpdateStatus(ctx context.Context, row int, status string) error {
	return r.table.UpdateCell(ctx, row, auditColStatus, status)
}
