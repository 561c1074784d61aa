package usecase

import (
	"context"
	"errors"

	"github.com/xavierca1/leadflow/internal/entity"
)

// AuditTrail writes to every log; the first is the primary.
type AuditTrail []entity.AuditLogRepository

func (t AuditTrail) Append(ctx context.Context, e entity.AuditEntry) error {
	var errs []error
	for _, log := range t {
		if log == nil {
			continue
		}
		if err := log.Append(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
