package router_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/leadflow/internal/infra/http/handlers"
	"github.com/xavierca1/leadflow/internal/infra/http/router"
	"github.com/xavierca1/leadflow/internal/infra/logging"
	"github.com/xavierca1/leadflow/internal/infra/metrics"
	"github.com/xavierca1/leadflow/internal/infra/queue"
	"github.com/xavierca1/leadflow/internal/usecase"
)

type stubScanner struct{ calls int }

func (s *stubScanner) RunScan(context.Context) (usecase.ScanResult, error) {
	s.calls++
	return usecase.ScanResult{Processed: 1}, nil
}

type stubQuery struct{}

func (stubQuery) ListPartners(context.Context) ([]usecase.PartnerView, error) { return nil, nil }
func (stubQuery) Preview(context.Context) (usecase.PreviewOutput, error) {
	return usecase.PreviewOutput{}, nil
}

type stubPublisher struct{ published []queue.LeadPayload }

func (p *stubPublisher) PublishLead(_ context.Context, payload queue.LeadPayload) error {
	p.published = append(p.published, payload)
	return nil
}

func newRouter(t *testing.T) (http.Handler, *stubScanner, *stubPublisher) {
	t.Helper()
	log := logging.Discard()
	scanner := &stubScanner{}
	pub := &stubPublisher{}
	h := router.New(router.Config{AdminToken: "tok", WebhookRatePerMinute: 100}, router.Handlers{
		Health:  handlers.NewHealthHandler(nil, nil, "memory", false),
		Webhook: handlers.NewWebhookHandler("verify", nil, pub, log),
		Manual:  handlers.NewManualLeadHandler(nil),
		Stripe:  handlers.NewStripeHandler("", nil, log),
		Scan:    handlers.NewScanHandler(scanner, stubQuery{}, log),
		Admin:   handlers.NewAdminHandler(nil, nil, log),
		Metrics: metrics.New(prometheus.NewRegistry()),
	})
	return h, scanner, pub
}

func TestRouter_AdminRoutesNeedToken(t *testing.T) {
	h, scanner, _ := newRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/poll", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, scanner.calls)

	req := httptest.NewRequest(http.MethodPost, "/poll", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, scanner.calls)
}

func TestRouter_PublicRoutes(t *testing.T) {
	h, _, pub := newRouter(t)

	for _, path := range []string{"/", "/health", "/preview", "/partners"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(`{"name":"Jane","phone":"01701234567"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, pub.published, 1)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `path="/webhook"`), "requests are labelled by route pattern")
}
