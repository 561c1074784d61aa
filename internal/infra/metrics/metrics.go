package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/usecase"
)

// Metrics owns every collector of the service. It implements
// usecase.Recorder.
type Metrics struct {
	gatherer prometheus.Gatherer

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	activeConnections   prometheus.Gauge

	leadsFinalized *prometheus.CounterVec
	notifications  *prometheus.CounterVec
	scansTotal     *prometheus.CounterVec
	scanDuration   prometheus.Histogram
	topUps         *prometheus.CounterVec
}

var _ usecase.Recorder = (*Metrics)(nil)

// New registers the collectors on reg. Pass prometheus.NewRegistry() in
// tests so that repeated construction does not collide.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		httpRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		activeConnections: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_active_connections",
				Help: "Number of active HTTP connections",
			},
		),
		leadsFinalized: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leads_finalized_total",
				Help: "Leads driven to a terminal state",
			},
			[]string{"source", "status"},
		),
		notifications: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notifications_total",
				Help: "Notification attempts by channel and outcome",
			},
			[]string{"channel", "result"},
		),
		scansTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lead_scans_total",
				Help: "Queue scans by outcome",
			},
			[]string{"outcome"},
		),
		scanDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "lead_scan_duration_seconds",
				Help:    "Duration of completed queue scans",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
		),
		topUps: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "partner_topups_total",
				Help: "Payments credited to the ledger",
			},
			[]string{"action"},
		),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, path string, status int, took time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(took.Seconds())
}

func (m *Metrics) ConnOpened() { m.activeConnections.Inc() }
func (m *Metrics) ConnClosed() { m.activeConnections.Dec() }

func (m *Metrics) LeadFinalized(source string, status entity.LeadStatus) {
	m.leadsFinalized.WithLabelValues(source, string(status)).Inc()
}

func (m *Metrics) NotificationSent(channel string, result entity.DeliveryResult) {
	m.notifications.WithLabelValues(channel, string(result.Status)).Inc()
}

func (m *Metrics) ScanFinished(result usecase.ScanResult, took time.Duration) {
	switch {
	case result.Skipped:
		m.scansTotal.WithLabelValues("skipped").Inc()
		return
	case result.Errors > 0:
		m.scansTotal.WithLabelValues("with_errors").Inc()
	default:
		m.scansTotal.WithLabelValues("ok").Inc()
	}
	m.scanDuration.Observe(took.Seconds())
}

func (m *Metrics) TopUp(action string) {
	m.topUps.WithLabelValues(action).Inc()
}
