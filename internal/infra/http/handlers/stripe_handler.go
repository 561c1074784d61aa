package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
	"github.com/xavierca1/leadflow/internal/usecase"
)

const checkoutSessionCompleted = "checkout.session.completed"

type TopUpExecutor interface {
	Execute(ctx context.Context, in usecase.TopUpInput) (usecase.TopUpOutput, error)
}

// StripeHandler credits partners for completed checkout sessions.
type StripeHandler struct {
	Secret string
	TopUp  TopUpExecutor
	Log    logrus.FieldLogger
}

func NewStripeHandler(secret string, topUp TopUpExecutor, log logrus.FieldLogger) *StripeHandler {
	if secret == "" {
		log.Warn("STRIPE_WEBHOOK_SECRET not set, stripe events are accepted unsigned")
	}
	return &StripeHandler{Secret: secret, TopUp: topUp, Log: log}
}

func (h *StripeHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<16))
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_BODY", "could not read body")
		return
	}

	event, err := h.parseEvent(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.Log.WithError(err).Warn("stripe event rejected")
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_EVENT", err.Error())
		return
	}

	log := h.Log.WithFields(logrus.Fields{"event_id": event.ID, "event_type": event.Type})
	if event.Type != checkoutSessionCompleted {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored", "event_type": string(event.Type)})
		return
	}
	if event.Data == nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_EVENT", "event has no data")
		return
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_EVENT", "checkout session could not be decoded")
		return
	}

	output, err := h.TopUp.Execute(r.Context(), topUpFromSession(&session))
	var lwe *usecase.LedgerWriteError
	switch {
	case err == nil && output.Action == usecase.TopUpAlreadyApplied:
		log.WithField("partner", output.Partner).Info("duplicate checkout session")
		writeJSON(w, http.StatusOK, map[string]any{"status": "duplicate", "result": output})
		return
	case err == nil:
	case usecase.IsDomainError(err):
		log.WithError(err).Warn("payment not credited")
		writeJSON(w, http.StatusOK, map[string]string{"status": "rejected", "message": err.Error()})
		return
	case errors.As(err, &lwe) && lwe.Torn():
		// a retry would credit the balance twice, the admin repairs the rest
		log.WithError(err).Error("payment partially credited")
		writeJSON(w, http.StatusOK, map[string]any{"status": "partial", "result": output, "message": err.Error()})
		return
	default:
		log.WithError(err).Error("payment top-up failed")
		writeUseCaseError(w, err)
		return
	}

	log.WithFields(logrus.Fields{"partner": output.Partner, "action": output.Action}).Info("payment credited")
	writeJSON(w, http.StatusOK, map[string]any{"status": "received", "result": output})
}

func (h *StripeHandler) parseEvent(body []byte, signature string) (stripe.Event, error) {
	if h.Secret != "" {
		if signature == "" {
			return stripe.Event{}, errors.New("missing Stripe-Signature header")
		}
		return webhook.ConstructEventWithOptions(body, signature, h.Secret, webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		})
	}

	var event stripe.Event
	if err := json.Unmarshal(body, &event); err != nil {
		return stripe.Event{}, errors.New("invalid JSON")
	}
	return event, nil
}

// topUpFromSession reads the payer from customer details. The partner_name
// and partner_phone metadata keys override it.
func topUpFromSession(s *stripe.CheckoutSession) usecase.TopUpInput {
	in := usecase.TopUpInput{
		Email:     s.CustomerEmail,
		Amount:    usecase.CentsToAmount(s.AmountTotal),
		Reference: s.ID,
	}
	if cd := s.CustomerDetails; cd != nil {
		in.Name = cd.Name
		in.Phone = cd.Phone
		if cd.Email != "" {
			in.Email = cd.Email
		}
	}
	if v := s.Metadata["partner_name"]; v != "" {
		in.Name = v
	}
	if v := s.Metadata["partner_phone"]; v != "" {
		in.Phone = v
	}
	return in
}
