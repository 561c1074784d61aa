package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const Version = "3.3.0"

type HealthHandler struct {
	DB        *sql.DB
	RabbitMQ  *amqp091.Connection
	Store     string
	Notifier  bool
	StartTime time.Time
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Timestamp    time.Time         `json:"timestamp"`
	Uptime       string            `json:"uptime"`
	Dependencies map[string]string `json:"dependencies"`
}

func NewHealthHandler(db *sql.DB, rabbitMQ *amqp091.Connection, store string, notifierConfigured bool) *HealthHandler {
	return &HealthHandler{
		DB:        db,
		RabbitMQ:  rabbitMQ,
		Store:     store,
		Notifier:  notifierConfigured,
		StartTime: time.Now(),
	}
}

func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	deps := map[string]string{"store": h.Store}

	if h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.PingContext(ctx); err != nil {
			deps["audit_database"] = fmt.Sprintf("unhealthy: %v", err)
		} else {
			deps["audit_database"] = "healthy"
		}
	} else {
		deps["audit_database"] = "not configured"
	}

	if h.RabbitMQ != nil {
		if h.RabbitMQ.IsClosed() {
			deps["rabbitmq"] = "unhealthy: connection closed"
		} else {
			deps["rabbitmq"] = "healthy"
		}
	} else {
		deps["rabbitmq"] = "not configured"
	}

	if h.Notifier {
		deps["whapi"] = "configured"
	} else {
		deps["whapi"] = "not configured"
	}

	status := "healthy"
	for k, v := range deps {
		if k == "store" {
			continue
		}
		if v != "healthy" && v != "configured" && v != "not configured" {
			status = "degraded"
			break
		}
	}

	code := http.StatusOK
	if status == "degraded" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, HealthResponse{
		Status:       status,
		Version:      Version,
		Timestamp:    time.Now().UTC(),
		Uptime:       time.Since(h.StartTime).Round(time.Second).String(),
		Dependencies: deps,
	})
}

// Root describes the service and its endpoints.
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "leadflow",
		"version": Version,
		"status":  "running",
		"features": []string{
			"sheet polling with scan guard",
			"PROCESSING claim before assignment",
			"fair rotation by last assignment",
			"stripe top-ups with automatic partner registration",
			"whatsapp notifications for partner, lead and admin",
			"audit log of every finalized lead",
		},
		"endpoints": map[string]string{
			"webhook":  "/webhook (Facebook Lead Ads)",
			"manual":   "/webhook/manual",
			"stripe":   "/stripe-webhook",
			"poll":     "/poll",
			"preview":  "/preview",
			"partners": "/partners",
			"health":   "/health",
			"metrics":  "/metrics",
		},
	})
}
