package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"github.com/xavierca1/leadflow/internal/usecase"
)

// LeadHandler assigns one pushed lead.
type LeadHandler interface {
	HandleLead(ctx context.Context, payload LeadPayload) error
}

type LeadProcessor interface {
	ProcessInbound(ctx context.Context, in usecase.InboundLeadInput) (usecase.AssignmentOutput, error)
}

// PipelineHandler adapts the intake pipeline to LeadHandler.
type PipelineHandler struct {
	Processor LeadProcessor
	Log       logrus.FieldLogger
}

func (h PipelineHandler) HandleLead(ctx context.Context, payload LeadPayload) error {
	out, err := h.Processor.ProcessInbound(ctx, usecase.InboundLeadInput{
		Name:   payload.Name,
		Email:  payload.Email,
		Phone:  payload.Phone,
		Source: payload.Source,
	})
	if err != nil {
		return err
	}
	h.Log.WithFields(logrus.Fields{
		"lead_id": payload.ID,
		"status":  out.Status,
		"partner": out.Partner,
	}).Info("pushed lead processed")
	return nil
}

type Worker struct {
	Channel *amqp.Channel
	Handler LeadHandler
	Log     logrus.FieldLogger
}

func NewWorker(ch *amqp.Channel, handler LeadHandler, log logrus.FieldLogger) *Worker {
	return &Worker{Channel: ch, Handler: handler, Log: log}
}

// Start consumes until ctx is done or the channel closes.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.ConsumeWithContext(ctx, queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("register rabbitmq consumer: %w", err)
	}
	w.Log.WithField("queue", queueName).Info("lead worker waiting for messages")

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("rabbitmq delivery channel closed")
			}
			w.HandleDelivery(ctx, d)
		}
	}
}

// HandleDelivery acks assigned leads. Malformed and invalid leads go
// straight to the dead letter queue; a store outage is retried once.
// Ledger write failures are never retried since the partner may already
// have been charged.
func (w *Worker) HandleDelivery(ctx context.Context, d amqp.Delivery) {
	var payload LeadPayload
	if err := json.Unmarshal(d.Body, &payload); err != nil {
		w.Log.WithError(err).Error("malformed lead message")
		_ = d.Nack(false, false)
		return
	}

	log := w.Log.WithFields(logrus.Fields{"lead_id": payload.ID, "redelivered": d.Redelivered})
	err := w.Handler.HandleLead(ctx, payload)
	if err == nil {
		_ = d.Ack(false)
		return
	}

	requeue := retryable(err) && !d.Redelivered
	log.WithError(err).WithField("requeue", requeue).Error("lead message failed")
	_ = d.Nack(false, requeue)
}

func retryable(err error) bool {
	var te *usecase.TechnicalError
	return errors.As(err, &te) && te.Code == usecase.CodeStoreUnavailable
}
