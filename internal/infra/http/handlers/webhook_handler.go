package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/integration/facebook"
	"github.com/xavierca1/leadflow/internal/infra/queue"
)

// LeadFetcher resolves a leadgen id to the submitted form fields.
type LeadFetcher interface {
	FetchLead(ctx context.Context, leadgenID string) (entity.ContactFields, error)
}

// WebhookHandler receives Facebook Lead Ads pushes.
type WebhookHandler struct {
	VerifyToken string
	Fetcher     LeadFetcher
	Publisher   queue.LeadPublisher
	Log         logrus.FieldLogger
}

func NewWebhookHandler(verifyToken string, fetcher LeadFetcher, publisher queue.LeadPublisher, log logrus.FieldLogger) *WebhookHandler {
	return &WebhookHandler{
		VerifyToken: verifyToken,
		Fetcher:     fetcher,
		Publisher:   publisher,
		Log:         log,
	}
}

type leadWebhookPayload struct {
	Name        string               `json:"name"`
	FullName    string               `json:"full_name"`
	Vorname     string               `json:"vorname"`
	Nachname    string               `json:"nachname"`
	Email       string               `json:"email"`
	EMail       string               `json:"e_mail"`
	Phone       string               `json:"phone"`
	PhoneNumber string               `json:"phone_number"`
	Telefon     string               `json:"telefon"`
	FieldData   []facebook.FieldData `json:"field_data"`
	Entry       []struct {
		Changes []struct {
			Value struct {
				LeadgenID string `json:"leadgen_id"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

func (p leadWebhookPayload) leadgenID() string {
	for _, e := range p.Entry {
		for _, c := range e.Changes {
			if c.Value.LeadgenID != "" {
				return c.Value.LeadgenID
			}
		}
	}
	return ""
}

func (p leadWebhookPayload) flat() entity.ContactFields {
	return entity.ContactFields{
		Name:  strings.TrimSpace(firstOf(p.Name, p.FullName, strings.TrimSpace(p.Vorname+" "+p.Nachname))),
		Email: strings.TrimSpace(firstOf(p.Email, p.EMail)),
		Phone: strings.TrimSpace(firstOf(p.Phone, p.PhoneNumber, p.Telefon)),
	}
}

// Verify answers the subscription handshake.
func (h *WebhookHandler) Verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if h.VerifyToken == "" || q.Get("hub.mode") != "subscribe" || q.Get("hub.verify_token") != h.VerifyToken {
		writeErrorResponse(w, http.StatusForbidden, "VERIFICATION_FAILED", "Verification failed")
		return
	}

	challenge, err := strconv.ParseInt(q.Get("hub.challenge"), 10, 64)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_CHALLENGE", "hub.challenge must be numeric")
		return
	}
	h.Log.Info("facebook webhook verified")
	writeJSON(w, http.StatusOK, challenge)
}

// Receive extracts the lead and hands it to the publisher. Assignment
// happens asynchronously.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var payload leadWebhookPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON")
		return
	}

	contact, ok := h.extract(r.Context(), payload)
	if !ok || (contact.Phone == "" && contact.Email == "") {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored", "message": "no lead data"})
		return
	}

	msg := queue.NewLeadPayload(contact.Name, contact.Email, contact.Phone, entity.SourceWebhook)
	if err := h.Publisher.PublishLead(r.Context(), msg); err != nil {
		h.Log.WithError(err).WithField("lead_id", msg.ID).Error("could not dispatch pushed lead")
		writeErrorResponse(w, http.StatusInternalServerError, "DISPATCH_FAILED", "lead could not be queued")
		return
	}

	h.Log.WithFields(logrus.Fields{"lead_id": msg.ID, "lead": contact.Name}).Info("lead received")
	writeJSON(w, http.StatusOK, map[string]string{"status": "received", "lead_id": msg.ID})
}

func (h *WebhookHandler) extract(ctx context.Context, p leadWebhookPayload) (entity.ContactFields, bool) {
	if len(p.FieldData) > 0 {
		return facebook.ContactFromFields(p.FieldData), true
	}

	if id := p.leadgenID(); id != "" {
		if h.Fetcher == nil {
			h.Log.WithField("leadgen_id", id).Warn("leadgen id received but no graph client configured")
			return entity.ContactFields{}, false
		}
		contact, err := h.Fetcher.FetchLead(ctx, id)
		if err != nil {
			h.Log.WithError(err).WithField("leadgen_id", id).Error("fetch lead from graph api")
			return entity.ContactFields{}, false
		}
		return contact, true
	}

	contact := p.flat()
	return contact, contact != entity.ContactFields{}
}

func firstOf(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
