package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/xavierca1/leadflow/internal/usecase"
)

type Scanner interface {
	RunScan(ctx context.Context) (usecase.ScanResult, error)
}

type LedgerQuery interface {
	ListPartners(ctx context.Context) ([]usecase.PartnerView, error)
	Preview(ctx context.Context) (usecase.PreviewOutput, error)
}

type ScanHandler struct {
	Scanner Scanner
	Query   LedgerQuery
	Log     logrus.FieldLogger
}

func NewScanHandler(scanner Scanner, query LedgerQuery, log logrus.FieldLogger) *ScanHandler {
	return &ScanHandler{Scanner: scanner, Query: query, Log: log}
}

// Poll triggers a scan. With ?async=true the scan runs in the background
// and the request returns 202 at once.
func (h *ScanHandler) Poll(w http.ResponseWriter, r *http.Request) {
	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		ctx := context.WithoutCancel(r.Context())
		go func() {
			res, err := h.Scanner.RunScan(ctx)
			if err != nil {
				h.Log.WithError(err).Error("background scan failed")
				return
			}
			h.Log.WithFields(logrus.Fields{"run_id": res.RunID, "processed": res.Processed, "skipped": res.Skipped}).Info("background scan finished")
		}()
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
		return
	}

	res, err := h.Scanner.RunScan(r.Context())
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	status := "ok"
	if res.Skipped {
		status = "skipped"
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": status, "result": res})
}

func (h *ScanHandler) Preview(w http.ResponseWriter, r *http.Request) {
	out, err := h.Query.Preview(r.Context())
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ScanHandler) Partners(w http.ResponseWriter, r *http.Request) {
	partners, err := h.Query.ListPartners(r.Context())
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"partners": partners, "total": len(partners)})
}
