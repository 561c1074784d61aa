package queue_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/logging"
	"github.com/xavierca1/leadflow/internal/infra/queue"
	"github.com/xavierca1/leadflow/internal/usecase"
)

type ackRecorder struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (a *ackRecorder) Ack(uint64, bool) error { a.acked = true; return nil }
func (a *ackRecorder) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked, a.requeue = true, requeue
	return nil
}
func (a *ackRecorder) Reject(_ uint64, requeue bool) error {
	a.nacked, a.requeue = true, requeue
	return nil
}

type MockLeadProcessor struct {
	mock.Mock
}

func (m *MockLeadProcessor) ProcessInbound(ctx context.Context, in usecase.InboundLeadInput) (usecase.AssignmentOutput, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(usecase.AssignmentOutput), args.Error(1)
}

func delivery(t *testing.T, ack amqp.Acknowledger, payload any, redelivered bool) amqp.Delivery {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return amqp.Delivery{Acknowledger: ack, Body: body, Redelivered: redelivered}
}

func TestWorkerHandleDelivery(t *testing.T) {
	payload := queue.NewLeadPayload("Jane", "jane@example.com", "01701234567", entity.SourceWebhook)
	input := usecase.InboundLeadInput{Name: "Jane", Email: "jane@example.com", Phone: "01701234567", Source: entity.SourceWebhook}

	cases := []struct {
		name        string
		err         error
		redelivered bool
		wantAck     bool
		wantRequeue bool
	}{
		{name: "assigned", wantAck: true},
		{name: "store outage is retried once", err: &usecase.TechnicalError{Code: usecase.CodeStoreUnavailable, Message: "read"}, wantRequeue: true},
		{name: "store outage after retry goes to dlq", err: &usecase.TechnicalError{Code: usecase.CodeStoreUnavailable, Message: "read"}, redelivered: true},
		{name: "ledger write is not retried", err: &usecase.TechnicalError{Code: usecase.CodeLedgerWrite, Message: "assign"}},
		{name: "invalid lead goes to dlq", err: usecase.NewDomainError(usecase.CodeValidation, "phone: is required")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			proc := new(MockLeadProcessor)
			proc.On("ProcessInbound", mock.Anything, input).Return(usecase.AssignmentOutput{Status: entity.LeadDistributed}, tc.err)

			w := queue.NewWorker(nil, queue.PipelineHandler{Processor: proc, Log: logging.Discard()}, logging.Discard())
			ack := &ackRecorder{}
			w.HandleDelivery(context.Background(), delivery(t, ack, payload, tc.redelivered))

			assert.Equal(t, tc.wantAck, ack.acked)
			assert.Equal(t, !tc.wantAck, ack.nacked)
			assert.Equal(t, tc.wantRequeue, ack.requeue)
			proc.AssertExpectations(t)
		})
	}
}

func TestWorkerRejectsMalformedMessage(t *testing.T) {
	proc := new(MockLeadProcessor)
	w := queue.NewWorker(nil, queue.PipelineHandler{Processor: proc, Log: logging.Discard()}, logging.Discard())

	ack := &ackRecorder{}
	w.HandleDelivery(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte("{nope")})

	assert.True(t, ack.nacked)
	assert.False(t, ack.requeue)
	proc.AssertNotCalled(t, "ProcessInbound", mock.Anything, mock.Anything)
}

type handlerFunc func(ctx context.Context, p queue.LeadPayload) error

func (f handlerFunc) HandleLead(ctx context.Context, p queue.LeadPayload) error { return f(ctx, p) }

func TestInProcessPublisher(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	var got queue.LeadPayload
	pub := queue.NewInProcessPublisher(handlerFunc(func(ctx context.Context, p queue.LeadPayload) error {
		defer wg.Done()
		got = p
		return errors.New("logged only")
	}), logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	payload := queue.NewLeadPayload("Jane", "", "0170", entity.SourceWebhook)
	require.NoError(t, pub.PublishLead(ctx, payload))
	cancel()

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler not called")
	}
	assert.Equal(t, payload.ID, got.ID)
	assert.NotEmpty(t, payload.ID)
}
