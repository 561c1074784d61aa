package sheetstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/spreadsheet"
)

// LeadColumns is the positional fallback of the queue tab: the ad platform
// export has the contact fields in M, N, O and the status in P, but the order
// of the three contact fields changes between exports.
type LeadColumns struct {
	Contact []int
	Status  int
}

var DefaultLeadColumns = LeadColumns{Contact: []int{12, 13, 14}, Status: 15}

var (
	leadStatusHeaders  = []string{"lead_status"}
	leadContactHeaders = []string{
		"e-mail-adresse", "email", "e-mail", "email_address",
		"vollständiger_name", "full_name", "name",
		"telefonnummer", "phone_number", "phone",
	}
)

const maxContactColumns = 3

// QueueHeader is the header written when the queue tab has to be created,
// laid out so that resolveLeadColumns maps it back to cols.
func QueueHeader(cols LeadColumns) []string {
	width := cols.Status + 1
	for _, c := range cols.Contact {
		width = max(width, c+1)
	}
	header := make([]string, width)
	names := []string{"email", "full_name", "phone_number"}
	for i, c := range cols.Contact {
		if i < len(names) {
			header[c] = names[i]
		}
	}
	header[cols.Status] = leadStatusHeaders[0]
	return header
}

// resolveLeadColumns looks the columns up by header name and falls back to
// the configured positions for whatever it cannot find.
func resolveLeadColumns(header []string, fallback LeadColumns) LeadColumns {
	out := LeadColumns{Status: fallback.Status, Contact: fallback.Contact}
	if i := spreadsheet.HeaderIndex(header, leadStatusHeaders...); i >= 0 {
		out.Status = i
	}

	var found []int
	for i := range header {
		if spreadsheet.HeaderIndex(header[i:i+1], leadContactHeaders...) == 0 {
			found = append(found, i)
		}
	}
	if len(found) > 0 {
		sort.Ints(found)
		if len(found) > maxContactColumns {
			found = found[:maxContactColumns]
		}
		out.Contact = found
	}
	return out
}

// LeadQueueRepository is the queue adapter over the tab the ad platform
// appends leads to.
type LeadQueueRepository struct {
	table    spreadsheet.Table
	fallback LeadColumns

	mu   sync.RWMutex
	cols LeadColumns
}

func NewLeadQueueRepository(table spreadsheet.Table, fallback LeadColumns) *LeadQueueRepository {
	if len(fallback.Contact) == 0 {
		fallback = DefaultLeadColumns
	}
	return &LeadQueueRepository{table: table, fallback: fallback, cols: fallback}
}

// FindAll returns every data row top to bottom with its raw contact cells.
// The column mapping is resolved from the header on each read.
func (r *LeadQueueRepository) FindAll(ctx context.Context) ([]entity.LeadRow, error) {
	rows, err := r.table.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read lead queue: %w", err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	cols := resolveLeadColumns(rows[0], r.fallback)
	r.mu.Lock()
	r.cols = cols
	r.mu.Unlock()

	out := make([]entity.LeadRow, 0, len(rows)-1)
	for i, row := range rows[1:] {
		raw := make([]string, len(cols.Contact))
		for j, c := range cols.Contact {
			raw[j] = spreadsheet.Cell(row, c)
		}
		out = append(out, entity.LeadRow{
			Row:    i + 2,
			Raw:    raw,
			Status: entity.ParseLeadStatus(spreadsheet.Cell(row, cols.Status)),
		})
	}
	return out, nil
}

func (r *LeadQueueRepository) UpdateStatus(ctx context.Context, row int, status entity.LeadStatus) error {
	r.mu.RLock()
	col := r.cols.Status
	r.mu.RUnlock()
	if err := r.table.UpdateCell(ctx, row, col, string(status)); err != nil {
		return fmt.Errorf("set lead row %d to %s: %w", row, status, err)
	}
	return nil
}
