// Package spreadsheet is the row-oriented table boundary the ledger, the lead
// queue and the audit log are stored in. A table has a header row (row 1) and
// data rows addressed by their 1-based sheet row number. Nothing here is
// transactional: every call is one independent request.
package spreadsheet

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrSheetNotFound = errors.New("sheet not found")

type Table interface {
	Name() string
	// ReadAll returns every row including the header. Rows may be ragged.
	ReadAll(ctx context.Context) ([][]string, error)
	// UpdateCell writes one cell. row is 1-based, col is 0-based.
	UpdateCell(ctx context.Context, row, col int, value any) error
	AppendRow(ctx context.Context, values []any) error
}

type Workbook interface {
	// Table opens an existing tab.
	Table(ctx context.Context, name string) (Table, error)
	// EnsureTable opens the tab, creating it with the given header when absent.
	EnsureTable(ctx context.Context, name string, header []string) (Table, error)
}

// ColumnLetter converts a 0-based column index to A1 letters (0 -> A, 26 -> AA).
func ColumnLetter(col int) string {
	if col < 0 {
		return ""
	}
	letters := ""
	for n := col + 1; n > 0; n = (n - 1) / 26 {
		letters = string(rune('A'+(n-1)%26)) + letters
	}
	return letters
}

// ColumnIndex is the inverse of ColumnLetter. It returns -1 for invalid input.
func ColumnIndex(letters string) int {
	letters = strings.ToUpper(strings.TrimSpace(letters))
	if letters == "" {
		return -1
	}
	n := 0
	for _, r := range letters {
		if r < 'A' || r > 'Z' {
			return -1
		}
		n = n*26 + int(r-'A'+1)
	}
	return n - 1
}

// CellRef builds an A1 reference such as 'Leads'!P12.
func CellRef(sheet string, row, col int) string {
	return fmt.Sprintf("%s!%s%d", quoteSheet(sheet), ColumnLetter(col), row)
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// Cell returns row[col] or "" when the row is shorter.
func Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// HeaderIndex finds the first header cell matching one of the names
// (case-insensitive, ignoring surrounding space). Returns -1 when none match.
func HeaderIndex(header []string, names ...string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		for _, n := range names {
			if h == strings.ToLower(n) {
				return i
			}
		}
	}
	return -1
}

// CellString renders an unformatted cell value. Numbers arrive as float64 and
// are written without exponent, so 1234.5 stays "1234.5".
func CellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
