package sheetstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/logging"
	"github.com/xavierca1/leadflow/internal/infra/sheetstore"
	"github.com/xavierca1/leadflow/internal/infra/spreadsheet"
)

func TestPartnerRepositoryFindAll(t *testing.T) {
	wb := spreadsheet.NewMemoryWorkbook()
	tab := wb.Put("Partner", [][]string{
		sheetstore.PartnerHeader,
		{"Anna", "0170 1111111", "1.234,50 €", "3", "2024-01-02 03:04:05", "Aktiv"},
		{"", "orphan", "5", "0", "", "Aktiv"},
		{"Bernd", "491702222222", "kaputt", "x", "gestern", "Pausiert"},
		{"Carla"},
	})
	repo := sheetstore.NewPartnerRepository(tab, logging.Discard())

	partners, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, partners, 3)

	anna := partners[0]
	assert.Equal(t, 2, anna.Row)
	assert.Equal(t, "Anna", anna.Name)
	assert.Equal(t, "1234.50", anna.Balance.StringFixed(2))
	assert.Equal(t, 3, anna.DeliveredCount)
	require.NotNil(t, anna.LastAssignedAt)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), *anna.LastAssignedAt)
	assert.Equal(t, entity.PartnerActive, anna.Status)

	bernd := partners[1]
	assert.Equal(t, 4, bernd.Row)
	assert.True(t, bernd.Balance.IsZero())
	assert.True(t, bernd.BalanceUnreadable)
	assert.Zero(t, bernd.DeliveredCount)
	assert.Nil(t, bernd.LastAssignedAt)
	assert.Equal(t, entity.PartnerPaused, bernd.Status)

	carla := partners[2]
	assert.Equal(t, 5, carla.Row)
	assert.False(t, carla.Eligible(decimal.NewFromInt(5)))
}

func TestPartnerRepositoryReadsLocaleAmounts(t *testing.T) {
	cases := []struct {
		cell       string
		want       string
		unreadable bool
	}{
		{"20", "20.00", false},
		{"20.5", "20.50", false},
		{"20,50", "20.50", false},
		{"1.234,50 €", "1234.50", false},
		{"1,234.50", "1234.50", false},
		{"€1,234,567.89", "1234567.89", false},
		{"1.234.567", "1234567.00", false},
		{"1234.5", "1234.50", false},
		{"-3,75", "-3.75", false},
		{"1.234,567", "0.00", true},
		{"1,234.5678", "0.00", true},
		{"12,34.50", "0.00", true},
		{"1.2.3", "0.00", true},
	}

	for _, tc := range cases {
		t.Run(tc.cell, func(t *testing.T) {
			wb := spreadsheet.NewMemoryWorkbook()
			tab := wb.Put("Partner", [][]string{
				sheetstore.PartnerHeader,
				{"Anna", "491701111111", tc.cell, "0", "", "Active"},
			})
			partners, err := sheetstore.NewPartnerRepository(tab, logging.Discard()).FindAll(context.Background())
			require.NoError(t, err)
			require.Len(t, partners, 1)
			assert.Equal(t, tc.want, partners[0].Balance.StringFixed(2))
			assert.Equal(t, tc.unreadable, partners[0].BalanceUnreadable)
		})
	}
}

func TestPartnerRepositoryUsesHeaderNames(t *testing.T) {
	wb := spreadsheet.NewMemoryWorkbook()
	tab := wb.Put("Partner", [][]string{
		{"Status", "Balance", "Name", "Phone", "Last_Assigned_At", "Delivered"},
		{"Active", "20", "Anna", "491701111111", "", "2"},
	})
	repo := sheetstore.NewPartnerRepository(tab, logging.Discard())
	ctx := context.Background()

	partners, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, partners, 1)
	assert.Equal(t, "Anna", partners[0].Name)
	assert.Equal(t, 2, partners[0].DeliveredCount)

	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateBalance(ctx, 2, decimal.RequireFromString("15.004")))
	require.NoError(t, repo.UpdateDeliveredCount(ctx, 2, 3))
	require.NoError(t, repo.UpdateLastAssignedAt(ctx, 2, at))
	require.NoError(t, repo.UpdateStatus(ctx, 2, entity.PartnerPaused))

	assert.Equal(t, "15", tab.Get(2, 1))
	assert.Equal(t, "3", tab.Get(2, 5))
	assert.Equal(t, "2024-06-01 12:00:00", tab.Get(2, 4))
	assert.Equal(t, "Paused", tab.Get(2, 0))
	assert.Equal(t, 4, tab.Writes())
}

func TestPartnerRepositoryCreate(t *testing.T) {
	wb := spreadsheet.NewMemoryWorkbook()
	tab := wb.Put("Partner", [][]string{sheetstore.PartnerHeader})
	repo := sheetstore.NewPartnerRepository(tab, logging.Discard())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &entity.Partner{
		Name:    "Dora",
		Phone:   "491703333333",
		Balance: decimal.RequireFromString("99.50"),
		Status:  entity.PartnerActive,
	}))

	partners, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, partners, 1)
	assert.Equal(t, "Dora", partners[0].Name)
	assert.Equal(t, "99.50", partners[0].Balance.StringFixed(2))
	assert.Nil(t, partners[0].LastAssignedAt)
	assert.Equal(t, entity.PartnerActive, partners[0].Status)

	tab.FailAppend = errors.New("read only")
	assert.Error(t, repo.Create(ctx, &entity.Partner{Name: "Eva"}))
}

func TestPartnerRepositoryReadError(t *testing.T) {
	wb := spreadsheet.NewMemoryWorkbook()
	tab := wb.Put("Partner", nil)
	tab.FailRead = errors.New("403")

	_, err := sheetstore.NewPartnerRepository(tab, logging.Discard()).FindAll(context.Background())
	assert.ErrorContains(t, err, "read partner ledger")
}
