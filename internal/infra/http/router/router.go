package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/xavierca1/leadflow/internal/infra/http/handlers"
	"github.com/xavierca1/leadflow/internal/infra/http/middleware"
	"github.com/xavierca1/leadflow/internal/infra/metrics"
)

type Config struct {
	AdminToken           string
	WebhookRatePerMinute int
	AllowedOrigins       []string
	// AccessLog enables chi's request logger.
	AccessLog bool
}

type Handlers struct {
	Health  *handlers.HealthHandler
	Webhook *handlers.WebhookHandler
	Manual  *handlers.ManualLeadHandler
	Stripe  *handlers.StripeHandler
	Scan    *handlers.ScanHandler
	Admin   *handlers.AdminHandler
	Metrics *metrics.Metrics
}

func New(cfg Config, h Handlers) http.Handler {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	if cfg.AccessLog {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)
	if h.Metrics != nil {
		r.Use(middleware.Metrics(h.Metrics))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Get("/", h.Health.Root)
	r.Get("/health", h.Health.Handle)
	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics.Handler())
	}

	limiter := middleware.NewRateLimiter(cfg.WebhookRatePerMinute)
	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware)
		r.Get("/webhook", h.Webhook.Verify)
		r.Post("/webhook", h.Webhook.Receive)
		r.Post("/webhook/manual", h.Manual.Handle)
		r.Post("/stripe-webhook", h.Stripe.Handle)
	})

	r.Get("/preview", h.Scan.Preview)
	r.Get("/partners", h.Scan.Partners)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AdminAuth(cfg.AdminToken))
		r.Post("/poll", h.Scan.Poll)
		r.Post("/admin/partners/adjust", h.Admin.AdjustPartner)
		r.Post("/admin/audit/dedupe", h.Admin.DedupeAudit)
		r.Post("/admin/notify/test", h.Admin.NotifyTest)
	})

	return r
}
