package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/queue"
	"github.com/xavierca1/leadflow/internal/usecase"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishLead(ctx context.Context, payload queue.LeadPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) FetchLead(ctx context.Context, id string) (entity.ContactFields, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(entity.ContactFields), args.Error(1)
}

type MockLeadProcessor struct {
	mock.Mock
}

func (m *MockLeadProcessor) ProcessInbound(ctx context.Context, in usecase.InboundLeadInput) (usecase.AssignmentOutput, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(usecase.AssignmentOutput), args.Error(1)
}

type MockTopUp struct {
	mock.Mock
}

func (m *MockTopUp) Execute(ctx context.Context, in usecase.TopUpInput) (usecase.TopUpOutput, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(usecase.TopUpOutput), args.Error(1)
}

type MockScanner struct {
	mock.Mock
}

func (m *MockScanner) RunScan(ctx context.Context) (usecase.ScanResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(usecase.ScanResult), args.Error(1)
}

type MockLedgerQuery struct {
	mock.Mock
}

func (m *MockLedgerQuery) ListPartners(ctx context.Context) ([]usecase.PartnerView, error) {
	args := m.Called(ctx)
	return args.Get(0).([]usecase.PartnerView), args.Error(1)
}

func (m *MockLedgerQuery) Preview(ctx context.Context) (usecase.PreviewOutput, error) {
	args := m.Called(ctx)
	return args.Get(0).(usecase.PreviewOutput), args.Error(1)
}

type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) Adjust(ctx context.Context, in usecase.AdjustInput) (usecase.AdjustOutput, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(usecase.AdjustOutput), args.Error(1)
}

func (m *MockReconciler) DedupeAuditLog(ctx context.Context) (usecase.DedupeOutput, error) {
	args := m.Called(ctx)
	return args.Get(0).(usecase.DedupeOutput), args.Error(1)
}

type MockMessenger struct {
	mock.Mock
}

func (m *MockMessenger) SendTestMessage(ctx context.Context, in usecase.NotifyTestInput) (usecase.NotifyTestOutput, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(usecase.NotifyTestOutput), args.Error(1)
}
