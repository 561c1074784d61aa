package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// LeadPayload is a pushed lead waiting to be assigned.
type LeadPayload struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Source     string    `json:"source"`
	ReceivedAt time.Time `json:"received_at"`
}

// NewLeadPayload stamps a payload with an id and the receive time.
func NewLeadPayload(name, email, phone, source string) LeadPayload {
	return LeadPayload{
		ID:         uuid.NewString(),
		Name:       name,
		Email:      email,
		Phone:      phone,
		Source:     source,
		ReceivedAt: time.Now().UTC(),
	}
}

type LeadPublisher interface {
	PublishLead(ctx context.Context, payload LeadPayload) error
}

type RabbitMQProducer struct {
	Ch *amqp.Channel
}

func NewProducer(ch *amqp.Channel) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch}
}

func (p *RabbitMQProducer) PublishLead(ctx context.Context, payload LeadPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode lead payload: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    payload.ID,
			Timestamp:    payload.ReceivedAt,
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("publish lead to rabbitmq: %w", err)
	}
	return nil
}

// InProcessPublisher hands leads to a goroutine instead of a broker. It is
// used when no RABBITMQ_URL is configured; a lead is lost if the process
// dies before it was assigned.
type InProcessPublisher struct {
	handler LeadHandler
	log     logrus.FieldLogger
}

func NewInProcessPublisher(handler LeadHandler, log logrus.FieldLogger) *InProcessPublisher {
	return &InProcessPublisher{handler: handler, log: log}
}

func (p *InProcessPublisher) PublishLead(ctx context.Context, payload LeadPayload) error {
	go func() {
		if err := p.handler.HandleLead(context.WithoutCancel(ctx), payload); err != nil {
			p.log.WithError(err).WithField("lead_id", payload.ID).Error("pushed lead not assigned")
		}
	}()
	return nil
}
