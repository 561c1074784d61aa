package handlers

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/xavierca1/leadflow/internal/usecase"
)

type Reconciler interface {
	Adjust(ctx context.Context, in usecase.AdjustInput) (usecase.AdjustOutput, error)
	DedupeAuditLog(ctx context.Context) (usecase.DedupeOutput, error)
}

type TestMessenger interface {
	SendTestMessage(ctx context.Context, in usecase.NotifyTestInput) (usecase.NotifyTestOutput, error)
}

// AdminHandler serves the manual correction endpoints.
type AdminHandler struct {
	Reconciler Reconciler
	Messenger  TestMessenger
	Log        logrus.FieldLogger
}

func NewAdminHandler(reconciler Reconciler, messenger TestMessenger, log logrus.FieldLogger) *AdminHandler {
	return &AdminHandler{Reconciler: reconciler, Messenger: messenger, Log: log}
}

func (h *AdminHandler) AdjustPartner(w http.ResponseWriter, r *http.Request) {
	var input usecase.AdjustInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON")
		return
	}

	out, err := h.Reconciler.Adjust(r.Context(), input)
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	h.Log.WithFields(logrus.Fields{"partner": out.Partner, "changed": out.Changed, "reason": input.Reason}).Info("partner adjusted")
	writeJSON(w, http.StatusOK, out)
}

func (h *AdminHandler) DedupeAudit(w http.ResponseWriter, r *http.Request) {
	out, err := h.Reconciler.DedupeAuditLog(r.Context())
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *AdminHandler) NotifyTest(w http.ResponseWriter, r *http.Request) {
	var input usecase.NotifyTestInput
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &input); err != nil {
			writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON")
			return
		}
	}

	out, err := h.Messenger.SendTestMessage(r.Context(), input)
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	status := http.StatusOK
	if !out.Result.OK() {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, out)
}
