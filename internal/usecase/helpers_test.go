package usecase_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/logging"
	"github.com/xavierca1/leadflow/internal/infra/sheetstore"
	"github.com/xavierca1/leadflow/internal/infra/spreadsheet"
	"github.com/xavierca1/leadflow/internal/usecase"
)

const adminPhone = "491709999999"

var leadPrice = decimal.NewFromInt(5)

type sentMessage struct {
	To   string
	Body string
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sentMessage
	fail map[string]error
}

func newRecordingSender() *recordingSender {
	return &recordingSender{fail: map[string]error{}}
}

func (s *recordingSender) Send(_ context.Context, to, body string) (entity.SendResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMessage{To: to, Body: body})
	if err := s.fail[to]; err != nil {
		return entity.SendResult{}, err
	}
	return entity.SendResult{OK: true, StatusCode: 200, Body: `{"sent":true}`}, nil
}

func (s *recordingSender) to(phone string) []sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []sentMessage
	for _, m := range s.sent {
		if m.To == phone {
			out = append(out, m)
		}
	}
	return out
}

func (s *recordingSender) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func queueHeader() []string {
	h := make([]string, 16)
	for i := range h {
		h[i] = fmt.Sprintf("col_%d", i)
	}
	h[12], h[13], h[14], h[15] = "email", "full_name", "phone_number", "lead_status"
	return h
}

func queueRow(a, b, c string, status entity.LeadStatus) []string {
	r := make([]string, 16)
	r[12], r[13], r[14], r[15] = a, b, c, string(status)
	return r
}

type fixture struct {
	ledgerTab *spreadsheet.MemoryTable
	queueTab  *spreadsheet.MemoryTable
	auditTab  *spreadsheet.MemoryTable

	sender   *recordingSender
	partners *sheetstore.PartnerRepository
	audit    *sheetstore.AuditLogRepository
	ledger   *usecase.Ledger
	admin    *usecase.AdminNotifier
	guard    *usecase.ScanGuard
	pipeline *usecase.IntakePipeline
}

func newFixture(t *testing.T, partners, leads [][]string, cfg usecase.PipelineConfig) *fixture {
	t.Helper()
	ctx := context.Background()
	log := logging.Discard()

	wb := spreadsheet.NewMemoryWorkbook()
	ledgerTab := wb.Put("Partner", append([][]string{sheetstore.PartnerHeader}, partners...))
	queueTab := wb.Put("Tabellenblatt1", append([][]string{queueHeader()}, leads...))
	auditTable, err := wb.EnsureTable(ctx, "Leads_Log", sheetstore.AuditHeader)
	require.NoError(t, err)

	sender := newRecordingSender()
	notifier := usecase.NewNotifier(sender, nil, log)
	admin := usecase.NewAdminNotifier(notifier, adminPhone, nil, log)
	partnerRepo := sheetstore.NewPartnerRepository(ledgerTab, log)
	auditRepo := sheetstore.NewAuditLogRepository(auditTable)
	ledger := usecase.NewLedger(partnerRepo, leadPrice, admin, log)
	guard := usecase.NewScanGuard()

	pipeline := usecase.NewIntakePipeline(
		sheetstore.NewLeadQueueRepository(queueTab, sheetstore.DefaultLeadColumns),
		partnerRepo,
		auditRepo,
		ledger,
		notifier,
		admin,
		guard,
		nil,
		log,
		cfg,
	)

	return &fixture{
		ledgerTab: ledgerTab,
		queueTab:  queueTab,
		auditTab:  wb.Tab("Leads_Log"),
		sender:    sender,
		partners:  partnerRepo,
		audit:     auditRepo,
		ledger:    ledger,
		admin:     admin,
		guard:     guard,
		pipeline:  pipeline,
	}
}

func (f *fixture) leadStatus(row int) string {
	return f.queueTab.Get(row, 15)
}

func (f *fixture) partner(t *testing.T, name string) entity.Partner {
	t.Helper()
	all, err := f.partners.FindAll(context.Background())
	require.NoError(t, err)
	for _, p := range all {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("partner %s not in ledger", name)
	return entity.Partner{}
}

func adminMessagesContaining(s *recordingSender, text string) int {
	n := 0
	for _, m := range s.to(adminPhone) {
		if strings.Contains(m.Body, text) {
			n++
		}
	}
	return n
}
