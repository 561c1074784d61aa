package handlers

import (
	"net/http"

	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/queue"
	"github.com/xavierca1/leadflow/internal/usecase"
)

// ManualLeadHandler assigns one lead synchronously and returns the result.
type ManualLeadHandler struct {
	Processor queue.LeadProcessor
}

func NewManualLeadHandler(processor queue.LeadProcessor) *ManualLeadHandler {
	return &ManualLeadHandler{Processor: processor}
}

func (h *ManualLeadHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var input usecase.InboundLeadInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON")
		return
	}
	input.Source = entity.SourceManual

	output, err := h.Processor.ProcessInbound(r.Context(), input)
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, output)
}
