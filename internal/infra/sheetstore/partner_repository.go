package sheetstore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/spreadsheet"
)

// PartnerHeader is written when the ledger tab has to be created.
var PartnerHeader = []string{"Name", "Telefon", "Guthaben_Euro", "Leads_Geliefert", "Letzter_Lead_Am", "Status"}

type partnerColumns struct {
	name, phone, balance, delivered, lastAssigned, status int
}

var defaultPartnerColumns = partnerColumns{0, 1, 2, 3, 4, 5}

func resolvePartnerColumns(header []string) partnerColumns {
	pick := func(fallback int, names ...string) int {
		if i := spreadsheet.HeaderIndex(header, names...); i >= 0 {
			return i
		}
		return fallback
	}
	d := defaultPartnerColumns
	return partnerColumns{
		name:         pick(d.name, "Name"),
		phone:        pick(d.phone, "Telefon", "Phone", "Telefonnummer"),
		balance:      pick(d.balance, "Guthaben_Euro", "Guthaben", "Balance"),
		delivered:    pick(d.delivered, "Leads_Geliefert", "Delivered", "Delivered_Count"),
		lastAssigned: pick(d.lastAssigned, "Letzter_Lead_Am", "Last_Assigned_At", "Last_Lead"),
		status:       pick(d.status, "Status"),
	}
}

func (c partnerColumns) width() int {
	w := 0
	for _, i := range []int{c.name, c.phone, c.balance, c.delivered, c.lastAssigned, c.status} {
		if i+1 > w {
			w = i + 1
		}
	}
	return w
}

// PartnerRepository is the ledger adapter over one spreadsheet tab.
type PartnerRepository struct {
	table spreadsheet.Table
	log   logrus.FieldLogger

	mu   sync.RWMutex
	cols partnerColumns
}

func NewPartnerRepository(table spreadsheet.Table, log logrus.FieldLogger) *PartnerRepository {
	return &PartnerRepository{table: table, log: log, cols: defaultPartnerColumns}
}

// FindAll re-reads the whole tab. Rows without a name are ignored.
func (r *PartnerRepository) FindAll(ctx context.Context) ([]entity.Partner, error) {
	rows, err := r.table.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read partner ledger: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	cols := resolvePartnerColumns(rows[0])
	r.mu.Lock()
	r.cols = cols
	r.mu.Unlock()

	partners := make([]entity.Partner, 0, len(rows)-1)
	for i, row := range rows[1:] {
		sheetRow := i + 2
		name := strings.TrimSpace(spreadsheet.Cell(row, cols.name))
		if name == "" {
			continue
		}

		p := entity.Partner{
			Row:    sheetRow,
			Name:   name,
			Phone:  strings.TrimSpace(spreadsheet.Cell(row, cols.phone)),
			Status: entity.ParsePartnerStatus(spreadsheet.Cell(row, cols.status)),
		}

		if p.Balance, err = parseAmount(spreadsheet.Cell(row, cols.balance)); err != nil {
			r.log.WithFields(logrus.Fields{"row": sheetRow, "partner": name}).Warnf("unreadable balance %q, partner skipped until fixed", spreadsheet.Cell(row, cols.balance))
			p.Balance = decimal.Zero
			p.BalanceUnreadable = true
		}
		if p.DeliveredCount, err = parseCount(spreadsheet.Cell(row, cols.delivered)); err != nil {
			r.log.WithFields(logrus.Fields{"row": sheetRow, "partner": name}).Warnf("unreadable delivered count %q, using 0", spreadsheet.Cell(row, cols.delivered))
			p.DeliveredCount = 0
		}
		ts, ok := parseTimestamp(spreadsheet.Cell(row, cols.lastAssigned))
		if !ok {
			r.log.WithFields(logrus.Fields{"row": sheetRow, "partner": name}).Warnf("unreadable last assignment %q, treating as never assigned", spreadsheet.Cell(row, cols.lastAssigned))
		}
		p.LastAssignedAt = ts

		partners = append(partners, p)
	}
	return partners, nil
}

func (r *PartnerRepository) columns() partnerColumns {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cols
}

func (r *PartnerRepository) UpdateBalance(ctx context.Context, row int, balance decimal.Decimal) error {
	return r.table.UpdateCell(ctx, row, r.columns().balance, balance.Round(2).InexactFloat64())
}

func (r *PartnerRepository) UpdateDeliveredCount(ctx context.Context, row int, count int) error {
	return r.table.UpdateCell(ctx, row, r.columns().delivered, count)
}

func (r *PartnerRepository) UpdateLastAssignedAt(ctx context.Context, row int, at time.Time) error {
	return r.table.UpdateCell(ctx, row, r.columns().lastAssigned, formatTimestamp(at))
}

func (r *PartnerRepository) UpdateStatus(ctx context.Context, row int, status entity.PartnerStatus) error {
	return r.table.UpdateCell(ctx, row, r.columns().status, string(status))
}

// Create appends a new ledger row. p.Row is not known afterwards; callers
// re-read the ledger when they need it.
func (r *PartnerRepository) Create(ctx context.Context, p *entity.Partner) error {
	cols := r.columns()
	row := make([]any, cols.width())
	for i := range row {
		row[i] = ""
	}
	row[cols.name] = p.Name
	row[cols.phone] = p.Phone
	row[cols.balance] = p.Balance.Round(2).InexactFloat64()
	row[cols.delivered] = p.DeliveredCount
	if p.LastAssignedAt != nil {
		row[cols.lastAssigned] = formatTimestamp(*p.LastAssignedAt)
	}
	row[cols.status] = string(p.Status)

	if err := r.table.AppendRow(ctx, row); err != nil {
		return fmt.Errorf("append partner %q: %w", p.Name, err)
	}
	return nil
}
