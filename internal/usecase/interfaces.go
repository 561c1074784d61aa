package usecase

import (
	"context"
	"time"

	"github.com/xavierca1/leadflow/internal/entity"
)

// MessageSender delivers one text message. A non-nil error means the request
// never got an answer; an answer that is not OK is reported in SendResult.
type MessageSender interface {
	Send(ctx context.Context, to, body string) (entity.SendResult, error)
}

type MailSender interface {
	SendAlert(subject, body string) error
}

// AdminAlerter is the admin channel. Alerts never fail the caller.
type AdminAlerter interface {
	Alert(ctx context.Context, subject, body string) entity.DeliveryResult
}

type PartnerMatcher interface {
	Match(partners []entity.Partner, name, phone string) MatchResult
}

type MatchResult struct {
	Partner *entity.Partner
	By      string
	// Candidates counts the rows the winning rule matched; more than one is ambiguous.
	Candidates int
}

type Recorder interface {
	LeadFinalized(source string, status entity.LeadStatus)
	NotificationSent(channel string, result entity.DeliveryResult)
	ScanFinished(result ScanResult, took time.Duration)
	TopUp(action string)
}

type NopRecorder struct{}

func (NopRecorder) LeadFinalized(string, entity.LeadStatus)        {}
func (NopRecorder) NotificationSent(string, entity.DeliveryResult) {}
func (NopRecorder) ScanFinished(ScanResult, time.Duration)         {}
func (NopRecorder) TopUp(string)                                   {}
