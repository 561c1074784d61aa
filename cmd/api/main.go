package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/xavierca1/leadflow/internal/config"
	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/database"
	"github.com/xavierca1/leadflow/internal/infra/http/handlers"
	"github.com/xavierca1/leadflow/internal/infra/http/router"
	"github.com/xavierca1/leadflow/internal/infra/integration/facebook"
	"github.com/xavierca1/leadflow/internal/infra/integration/whatsapp"
	"github.com/xavierca1/leadflow/internal/infra/logging"
	"github.com/xavierca1/leadflow/internal/infra/mail"
	"github.com/xavierca1/leadflow/internal/infra/metrics"
	"github.com/xavierca1/leadflow/internal/infra/queue"
	"github.com/xavierca1/leadflow/internal/infra/sheetstore"
	"github.com/xavierca1/leadflow/internal/infra/spreadsheet"
	"github.com/xavierca1/leadflow/internal/infra/worker"
	"github.com/xavierca1/leadflow/internal/usecase"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// 1. Stores
	workbook, err := openWorkbook(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("open spreadsheet")
	}
	partnerTab, queueTab, logTab, err := openTables(ctx, cfg, workbook)
	if err != nil {
		log.WithError(err).Fatal("open spreadsheet tabs")
	}
	partnerRepo := sheetstore.NewPartnerRepository(partnerTab, log)
	queueRepo := sheetstore.NewLeadQueueRepository(queueTab, cfg.LeadColumns)
	auditRepo := sheetstore.NewAuditLogRepository(logTab)

	trail := usecase.AuditTrail{auditRepo}
	var db *sql.DB
	if cfg.AuditDatabaseURL != "" {
		db, err = database.NewDBConnection(cfg.AuditDatabaseURL)
		if err != nil {
			log.WithError(err).Fatal("connect audit database")
		}
		defer db.Close()
		mirror := database.NewAuditRepository(db)
		if err := mirror.Migrate(ctx); err != nil {
			log.WithError(err).Fatal("migrate audit database")
		}
		trail = append(trail, mirror)
	}

	// 2. Messaging
	whapi := whatsapp.NewClient(whatsapp.Config{
		Token:         cfg.WhapiToken,
		URL:           cfg.WhapiURL,
		Timeout:       cfg.HTTPTimeout(),
		RatePerSecond: cfg.WhapiRatePerSecond,
	}, log)
	if !whapi.Configured() {
		log.Warn("WHAPI_TOKEN not set, notifications will fail")
	}

	var mailer usecase.MailSender
	if cfg.MailEnabled() {
		mailer = mail.NewEmailSender(cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPass, cfg.MailFrom, cfg.AdminEmail)
	}

	notifier := usecase.NewNotifier(whapi, m, log)
	admin := usecase.NewAdminNotifier(notifier, entity.NormalizePhoneRegion(cfg.AdminPhone, cfg.PhoneRegion), mailer, log)

	// 3. UseCases
	guard := usecase.NewScanGuard()
	ledger := usecase.NewLedger(partnerRepo, cfg.LeadPrice, admin, log)
	pipeline := usecase.NewIntakePipeline(queueRepo, partnerRepo, trail, ledger, notifier, admin, guard, m, log, usecase.PipelineConfig{
		LeadDelay:      cfg.LeadDelay(),
		NotifyCustomer: cfg.NotifyCustomer,
		PhoneRegion:    cfg.PhoneRegion,
	})
	query := usecase.NewQueryUseCase(partnerRepo, queueRepo, cfg.LeadPrice)
	topUp := usecase.NewTopUpUseCase(partnerRepo, ledger, usecase.ContainsNameMatcher{Region: cfg.PhoneRegion}, admin, m, log, cfg.PhoneRegion)
	reconcile := usecase.NewReconcileUseCase(partnerRepo, auditRepo, ledger, log, cfg.PhoneRegion)

	// 4. Push intake: broker when configured, goroutine otherwise
	leadHandler := queue.PipelineHandler{Processor: pipeline, Log: log}
	var (
		publisher queue.LeadPublisher = queue.NewInProcessPublisher(leadHandler, log)
		amqpConn  *amqp.Connection
	)
	if cfg.RabbitMQURL != "" {
		rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			log.WithError(err).Fatal("connect rabbitmq")
		}
		defer rabbitMQ.Close()
		amqpConn = rabbitMQ.Conn
		publisher = queue.NewProducer(rabbitMQ.Ch)

		w := queue.NewWorker(rabbitMQ.Ch, leadHandler, log)
		go func() {
			if err := w.Start(ctx, queue.QueueName); err != nil {
				log.WithError(err).Error("lead worker stopped")
				stop()
			}
		}()
	}

	// 5. Scheduler
	scheduler := worker.NewPollScheduler(pipeline, cfg.PollInterval(), log)
	if err := scheduler.Start(ctx); err != nil {
		log.WithError(err).Fatal("start poll scheduler")
	}

	// 6. HTTP
	var fetcher handlers.LeadFetcher
	if cfg.FBAccessToken != "" {
		fetcher = facebook.NewClient(cfg.FBAccessToken, cfg.FBGraphURL, cfg.HTTPTimeout())
	}
	if cfg.FBVerifyToken == "" {
		log.Warn("FB_VERIFY_TOKEN not set, webhook verification is disabled")
	}

	r := router.New(router.Config{
		AdminToken:           cfg.AdminToken,
		WebhookRatePerMinute: cfg.WebhookRatePerMinute,
		AccessLog:            true,
	}, router.Handlers{
		Health:  handlers.NewHealthHandler(db, amqpConn, cfg.StoreDriver, whapi.Configured()),
		Webhook: handlers.NewWebhookHandler(cfg.FBVerifyToken, fetcher, publisher, log),
		Manual:  handlers.NewManualLeadHandler(pipeline),
		Stripe:  handlers.NewStripeHandler(cfg.StripeWebhookSecret, topUp, log),
		Scan:    handlers.NewScanHandler(pipeline, query, log),
		Admin:   handlers.NewAdminHandler(reconcile, admin, log),
		Metrics: m,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Port, "store": cfg.StoreDriver, "lead_price": cfg.LeadPrice.StringFixed(2)}).Info("leadflow listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http server")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	scheduler.Stop()
}

func openWorkbook(ctx context.Context, cfg *config.Config) (spreadsheet.Workbook, error) {
	if cfg.StoreDriver == config.StoreMemory {
		return spreadsheet.NewMemoryWorkbook(), nil
	}
	return spreadsheet.NewGoogleWorkbook(ctx, spreadsheet.GoogleConfig{
		SpreadsheetID:   cfg.GoogleSheetID,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
		CredentialsFile: cfg.GoogleCredentialsFile,
		Timeout:         cfg.HTTPTimeout(),
	})
}

// openTables opens the ledger and queue tabs, which the business maintains,
// and creates the log tab when it is missing. The memory store starts empty
// so every tab is created there.
func openTables(ctx context.Context, cfg *config.Config, wb spreadsheet.Workbook) (partners, leads, auditLog spreadsheet.Table, err error) {
	if cfg.StoreDriver == config.StoreMemory {
		if partners, err = wb.EnsureTable(ctx, cfg.PartnerSheet, sheetstore.PartnerHeader); err != nil {
			return nil, nil, nil, err
		}
		if leads, err = wb.EnsureTable(ctx, cfg.LeadsSheet, sheetstore.QueueHeader(cfg.LeadColumns)); err != nil {
			return nil, nil, nil, err
		}
	} else {
		if partners, err = wb.Table(ctx, cfg.PartnerSheet); err != nil {
			return nil, nil, nil, err
		}
		if leads, err = wb.Table(ctx, cfg.LeadsSheet); err != nil {
			return nil, nil, nil, err
		}
	}
	if auditLog, err = wb.EnsureTable(ctx, cfg.LeadsLogSheet, sheetstore.AuditHeader); err != nil {
		return nil, nil, nil, err
	}
	return partners, leads, auditLog, nil
}
