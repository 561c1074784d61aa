package spreadsheet

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	valueInputOption = "USER_ENTERED"
	defaultNewRows   = 1000
)

type GoogleConfig struct {
	SpreadsheetID   string
	CredentialsJSON string
	CredentialsFile string
	Timeout         time.Duration
}

// GoogleWorkbook talks to one spreadsheet through the Sheets v4 API using a
// service account.
type GoogleWorkbook struct {
	svc           *sheets.Service
	spreadsheetID string
	timeout       time.Duration
}

func NewGoogleWorkbook(ctx context.Context, cfg GoogleConfig) (*GoogleWorkbook, error) {
	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GoogleWorkbook{svc: svc, spreadsheetID: cfg.SpreadsheetID, timeout: timeout}, nil
}

func (w *GoogleWorkbook) Table(ctx context.Context, name string) (Table, error) {
	ok, err := w.exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, name)
	}
	return &googleTable{wb: w, name: name}, nil
}

func (w *GoogleWorkbook) EnsureTable(ctx context.Context, name string, header []string) (Table, error) {
	ok, err := w.exists(ctx, name)
	if err != nil {
		return nil, err
	}
	t := &googleTable{wb: w, name: name}
	if ok {
		return t, nil
	}

	cctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{
					Title: name,
					GridProperties: &sheets.GridProperties{
						RowCount:    defaultNewRows,
						ColumnCount: int64(len(header)),
					},
				},
			},
		}},
	}
	if _, err := w.svc.Spreadsheets.BatchUpdate(w.spreadsheetID, req).Context(cctx).Do(); err != nil {
		return nil, fmt.Errorf("create sheet %q: %w", name, err)
	}

	values := make([]any, len(header))
	for i, h := range header {
		values[i] = h
	}
	if err := t.AppendRow(ctx, values); err != nil {
		return nil, fmt.Errorf("write header of %q: %w", name, err)
	}
	return t, nil
}

func (w *GoogleWorkbook) exists(ctx context.Context, name string) (bool, error) {
	cctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	ss, err := w.svc.Spreadsheets.Get(w.spreadsheetID).Fields("sheets.properties.title").Context(cctx).Do()
	if err != nil {
		return false, fmt.Errorf("open spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == name {
			return true, nil
		}
	}
	return false, nil
}

type googleTable struct {
	wb   *GoogleWorkbook
	name string
}

func (t *googleTable) Name() string { return t.name }

func (t *googleTable) ReadAll(ctx context.Context) ([][]string, error) {
	cctx, cancel := context.WithTimeout(ctx, t.wb.timeout)
	defer cancel()
	resp, err := t.wb.svc.Spreadsheets.Values.Get(t.wb.spreadsheetID, quoteSheet(t.name)).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(cctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", t.name, err)
	}
	rows := make([][]string, len(resp.Values))
	for i, r := range resp.Values {
		row := make([]string, len(r))
		for j, v := range r {
			row[j] = CellString(v)
		}
		rows[i] = row
	}
	return rows, nil
}

func (t *googleTable) UpdateCell(ctx context.Context, row, col int, value any) error {
	cctx, cancel := context.WithTimeout(ctx, t.wb.timeout)
	defer cancel()
	ref := CellRef(t.name, row, col)
	vr := &sheets.ValueRange{Values: [][]any{{value}}}
	_, err := t.wb.svc.Spreadsheets.Values.Update(t.wb.spreadsheetID, ref, vr).
		ValueInputOption(valueInputOption).Context(cctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", ref, err)
	}
	return nil
}

func (t *googleTable) AppendRow(ctx context.Context, values []any) error {
	cctx, cancel := context.WithTimeout(ctx, t.wb.timeout)
	defer cancel()
	vr := &sheets.ValueRange{Values: [][]any{values}}
	_, err := t.wb.svc.Spreadsheets.Values.Append(t.wb.spreadsheetID, quoteSheet(t.name)+"!A1", vr).
		ValueInputOption(valueInputOption).InsertDataOption("INSERT_ROWS").Context(cctx).Do()
	if err != nil {
		return fmt.Errorf("append to %q: %w", t.name, err)
	}
	return nil
}
