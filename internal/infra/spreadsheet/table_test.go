package spreadsheet_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/leadflow/internal/infra/spreadsheet"
)

func TestColumnLetterRoundTrip(t *testing.T) {
	cases := map[int]string{0: "A", 5: "F", 15: "P", 25: "Z", 26: "AA", 27: "AB", 701: "ZZ", 702: "AAA"}
	for idx, letters := range cases {
		assert.Equal(t, letters, spreadsheet.ColumnLetter(idx))
		assert.Equal(t, idx, spreadsheet.ColumnIndex(letters))
	}
	assert.Equal(t, -1, spreadsheet.ColumnIndex("A1"))
	assert.Equal(t, -1, spreadsheet.ColumnIndex(""))
}

func TestCellRefQuotesSheetName(t *testing.T) {
	assert.Equal(t, "'Tabellenblatt1'!P12", spreadsheet.CellRef("Tabellenblatt1", 12, 15))
	assert.Equal(t, "'Matze''s'!A2", spreadsheet.CellRef("Matze's", 2, 0))
}

func TestHeaderIndex(t *testing.T) {
	header := []string{" Name ", "Telefon", "", "lead_status"}
	assert.Equal(t, 0, spreadsheet.HeaderIndex(header, "name"))
	assert.Equal(t, 1, spreadsheet.HeaderIndex(header, "phone", "Telefon"))
	assert.Equal(t, 3, spreadsheet.HeaderIndex(header, "LEAD_STATUS"))
	assert.Equal(t, -1, spreadsheet.HeaderIndex(header, "email"))
}

func TestMemoryTableUpdateGrowsRaggedRows(t *testing.T) {
	ctx := context.Background()
	wb := spreadsheet.NewMemoryWorkbook()
	tab := wb.Put("Leads", [][]string{{"a", "b"}, {"x"}})

	require.NoError(t, tab.UpdateCell(ctx, 2, 4, "PROCESSING"))
	require.NoError(t, tab.UpdateCell(ctx, 4, 0, 7.5))

	rows, err := tab.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 4)
	assert.Equal(t, "PROCESSING", tab.Get(2, 4))
	assert.Equal(t, "7.5", tab.Get(4, 0))
	assert.Equal(t, 2, tab.Writes())
}

func TestMemoryWorkbookEnsureTable(t *testing.T) {
	ctx := context.Background()
	wb := spreadsheet.NewMemoryWorkbook()

	_, err := wb.Table(ctx, "Leads_Log")
	assert.True(t, errors.Is(err, spreadsheet.ErrSheetNotFound))

	tab, err := wb.EnsureTable(ctx, "Leads_Log", []string{"Timestamp", "Status"})
	require.NoError(t, err)
	require.NoError(t, tab.AppendRow(ctx, []any{"2024-01-01", "DISTRIBUTED"}))

	again, err := wb.EnsureTable(ctx, "Leads_Log", []string{"ignored"})
	require.NoError(t, err)
	rows, err := again.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Timestamp", "Status"}, {"2024-01-01", "DISTRIBUTED"}}, rows)
}

func TestMemoryTableInjectedFailure(t *testing.T) {
	ctx := context.Background()
	tab := spreadsheet.NewMemoryWorkbook().Put("Partner_Konto", [][]string{{"Name"}})
	tab.FailUpdate = func(row, col int) error {
		if col == 3 {
			return errors.New("quota exceeded")
		}
		return nil
	}

	assert.NoError(t, tab.UpdateCell(ctx, 2, 2, "1"))
	assert.EqualError(t, tab.UpdateCell(ctx, 2, 3, "1"), "quota exceeded")
	assert.Equal(t, 1, tab.Writes())
}

func TestCellStringKeepsNumbersPlain(t *testing.T) {
	assert.Equal(t, "1234.5", spreadsheet.CellString(1234.5))
	assert.Equal(t, "1234567", spreadsheet.CellString(float64(1234567)))
	assert.Equal(t, "491701234567", spreadsheet.CellString(float64(491701234567)))
	assert.Equal(t, "Anna", spreadsheet.CellString("Anna"))
	assert.Equal(t, "true", spreadsheet.CellString(true))
	assert.Equal(t, "", spreadsheet.CellString(nil))
}
