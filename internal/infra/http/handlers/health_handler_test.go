package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xavierca1/leadflow/internal/infra/http/handlers"
)

func TestHealth(t *testing.T) {
	h := handlers.NewHealthHandler(nil, nil, "memory", true)

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, handlers.Version, body["version"])
	deps := body["dependencies"].(map[string]any)
	assert.Equal(t, "memory", deps["store"])
	assert.Equal(t, "not configured", deps["rabbitmq"])
	assert.Equal(t, "configured", deps["whapi"])
}

func TestRoot(t *testing.T) {
	h := handlers.NewHealthHandler(nil, nil, "sheets", false)

	rec := httptest.NewRecorder()
	h.Root(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "running", body["status"])
	assert.Contains(t, body["endpoints"], "stripe")
}
