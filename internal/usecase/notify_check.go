package usecase

import (
	"context"

	"github.com/xavierca1/leadflow/internal/entity"
)

// SendTestMessage checks the messaging setup by sending a fixed text to the
// given phone, or to the admin phone when none is given.
func (a *AdminNotifier) SendTestMessage(ctx context.Context, in NotifyTestInput) (NotifyTestOutput, error) {
	to := entity.NormalizePhone(in.Phone)
	if in.Phone == "" {
		to = a.phone
	}
	if to == "" {
		return NotifyTestOutput{}, NewDomainError(CodeValidation, "phone: is required when no admin phone is configured")
	}
	return NotifyTestOutput{To: to, Result: a.notifier.Deliver(ctx, ChannelAdmin, to, testMessage)}, nil
}
