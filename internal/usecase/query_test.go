package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/sheetstore"
	"github.com/xavierca1/leadflow/internal/usecase"
)

func newQuery(f *fixture) *usecase.QueryUseCase {
	return usecase.NewQueryUseCase(f.partners, sheetstore.NewLeadQueueRepository(f.queueTab, sheetstore.DefaultLeadColumns), leadPrice)
}

func TestPreviewIsDryRun(t *testing.T) {
	f := newFixture(t, twoPartners(), [][]string{
		queueRow("Jane", "jane@example.com", "01701234567", entity.LeadCreated),
		queueRow("Max", "max@example.com", "01717654321", entity.LeadDistributed),
		queueRow("Eva", "eva@example.com", "01729876543", entity.LeadCreated),
	}, usecase.PipelineConfig{})

	out, err := newQuery(f).Preview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, out.PendingLeads)
	assert.Equal(t, 2, out.EligiblePartners)
	require.NotNil(t, out.NextPartner)
	assert.Equal(t, "A", out.NextPartner.Name)
	assert.Equal(t, 0, f.ledgerTab.Writes())
	assert.Equal(t, 0, f.queueTab.Writes())
}

func TestPreviewWithoutPartner(t *testing.T) {
	f := newFixture(t, [][]string{{"A", phoneA, "1", "0", "", "Active"}}, nil, usecase.PipelineConfig{})

	out, err := newQuery(f).Preview(context.Background())
	require.NoError(t, err)
	assert.Nil(t, out.NextPartner)
	assert.Zero(t, out.EligiblePartners)
}

func TestListPartners(t *testing.T) {
	f := newFixture(t, twoPartners(), nil, usecase.PipelineConfig{})

	list, err := newQuery(f).ListPartners(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "B", list[1].Name)
	assert.Equal(t, 3, list[1].DeliveredCount)
	assert.NotNil(t, list[1].LastAssignedAt)
	assert.True(t, list[0].Eligible)

	f.ledgerTab.FailRead = errors.New("down")
	_, err = newQuery(f).ListPartners(context.Background())
	assert.True(t, usecase.IsTechnicalError(err))
}
