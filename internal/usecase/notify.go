package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xavierca1/leadflow/internal/entity"
)

const (
	ChannelPartner = "partner"
	ChannelLead    = "lead"
	ChannelAdmin   = "admin"
)

// Notifier never retries.
type Notifier struct {
	sender  MessageSender
	metrics Recorder
	log     logrus.FieldLogger
}

func NewNotifier(sender MessageSender, metrics Recorder, log logrus.FieldLogger) *Notifier {
	if metrics == nil {
		metrics = NopRecorder{}
	}
	return &Notifier{sender: sender, metrics: metrics, log: log}
}

func (n *Notifier) Deliver(ctx context.Context, channel, to, body string) entity.DeliveryResult {
	res := n.deliver(ctx, to, body)
	n.metrics.NotificationSent(channel, res)

	entry := n.log.WithFields(logrus.Fields{"channel": channel, "to": to})
	switch res.Status {
	case entity.DeliveryDelivered:
		entry.Info("message delivered")
	case entity.DeliveryFailed:
		entry.WithField("reason", res.Reason).Warn("message not delivered")
	default:
		entry.WithField("reason", res.Reason).Debug("message skipped")
	}
	return res
}

func (n *Notifier) deliver(ctx context.Context, to, body string) entity.DeliveryResult {
	if strings.TrimSpace(to) == "" {
		return entity.Skipped("no phone")
	}
	sr, err := n.sender.Send(ctx, to, body)
	if err != nil {
		return entity.Failed(err.Error())
	}
	if !sr.OK {
		return entity.Failed(fmt.Sprintf("status %d", sr.StatusCode))
	}
	return entity.Delivered()
}

// AdminNotifier is the admin channel: a message to the admin phone, mirrored
// to email when a mail sender is configured.
type AdminNotifier struct {
	notifier *Notifier
	phone    string
	mail     MailSender
	log      logrus.FieldLogger
}

func NewAdminNotifier(notifier *Notifier, phone string, mail MailSender, log logrus.FieldLogger) *AdminNotifier {
	return &AdminNotifier{notifier: notifier, phone: phone, mail: mail, log: log}
}

func (a *AdminNotifier) Alert(ctx context.Context, subject, body string) entity.DeliveryResult {
	if a.mail != nil {
		if err := a.mail.SendAlert(subject, body); err != nil {
			a.log.WithError(err).WithField("subject", subject).Warn("admin email not sent")
		}
	}
	if a.phone == "" {
		return entity.Skipped("admin phone not configured")
	}
	return a.notifier.Deliver(ctx, ChannelAdmin, a.phone, body)
}

func (a *AdminNotifier) Phone() string { return a.phone }
