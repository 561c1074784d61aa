package usecase

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xavierca1/leadflow/internal/entity"
)

const DuplicateStatus = "DUPLICATE_CORRECTED"

// ReconcileUseCase is the manual repair path for ledger rows left torn by a
// failed write and for leads that were logged twice.
type ReconcileUseCase struct {
	partners entity.PartnerRepository
	audit    entity.AuditLogReader
	ledger   *Ledger
	log      logrus.FieldLogger
	region   string
}

func NewReconcileUseCase(partners entity.PartnerRepository, audit entity.AuditLogReader, ledger *Ledger, log logrus.FieldLogger, region string) *ReconcileUseCase {
	if region == "" {
		region = entity.DefaultPhoneRegion
	}
	return &ReconcileUseCase{partners: partners, audit: audit, ledger: ledger, log: log, region: region}
}

// Adjust finds exactly one partner, by phone or exact name, and rewrites the
// fields given in the input.
func (uc *ReconcileUseCase) Adjust(ctx context.Context, in AdjustInput) (AdjustOutput, error) {
	if err := validateInput(in); err != nil {
		return AdjustOutput{}, err
	}

	var out AdjustOutput
	err := uc.ledger.Exclusive(func() error {
		partners, err := uc.partners.FindAll(ctx)
		if err != nil {
			return &TechnicalError{Code: CodeStoreUnavailable, Message: "read partner ledger", Err: err}
		}
		p, err := uc.find(partners, in)
		if err != nil {
			return err
		}

		price := uc.ledger.Price()
		after := p
		if in.SetBalance != nil {
			after.Balance = in.SetBalance.Round(2)
			after.BalanceUnreadable = false
		} else if in.BalanceDelta != nil {
			if p.BalanceUnreadable {
				return NewDomainError(CodeValidation, "balance of %s is unreadable, use set_balance", p.Name)
			}
			after.Balance = p.Balance.Add(*in.BalanceDelta).Round(2)
		}
		if in.SetDelivered != nil {
			after.DeliveredCount = *in.SetDelivered
		} else if in.DeliveredDelta != 0 {
			after.DeliveredCount = max(p.DeliveredCount+in.DeliveredDelta, 0)
		}
		if in.Status != "" {
			after.Status = entity.ParsePartnerStatus(in.Status)
		}

		out = AdjustOutput{Partner: p.Name, Before: newPartnerView(p, price)}
		if !after.Balance.Equal(p.Balance) || p.BalanceUnreadable && in.SetBalance != nil {
			if err := uc.partners.UpdateBalance(ctx, p.Row, after.Balance); err != nil {
				return &TechnicalError{Code: CodeLedgerWrite, Message: "write balance", Err: err}
			}
			out.Changed = append(out.Changed, "balance")
		}
		if after.DeliveredCount != p.DeliveredCount {
			if err := uc.partners.UpdateDeliveredCount(ctx, p.Row, after.DeliveredCount); err != nil {
				return &TechnicalError{Code: CodeLedgerWrite, Message: "write delivered count", Err: err}
			}
			out.Changed = append(out.Changed, "delivered_count")
		}
		if after.Status != p.Status {
			if err := uc.partners.UpdateStatus(ctx, p.Row, after.Status); err != nil {
				return &TechnicalError{Code: CodeLedgerWrite, Message: "write status", Err: err}
			}
			out.Changed = append(out.Changed, "status")
		}
		out.After = newPartnerView(after, price)
		return nil
	})
	if err != nil {
		return AdjustOutput{}, err
	}

	uc.log.WithFields(logrus.Fields{
		"partner": out.Partner,
		"changed": strings.Join(out.Changed, ","),
		"reason":  in.Reason,
	}).Info("ledger adjusted")
	return out, nil
}

func (uc *ReconcileUseCase) find(partners []entity.Partner, in AdjustInput) (entity.Partner, error) {
	var matches []entity.Partner
	if phone := entity.NormalizePhoneRegion(in.Phone, uc.region); phone != "" {
		for _, p := range partners {
			if entity.NormalizePhoneRegion(p.Phone, uc.region) == phone {
				matches = append(matches, p)
			}
		}
	} else {
		for _, p := range partners {
			if strings.EqualFold(strings.TrimSpace(p.Name), strings.TrimSpace(in.Name)) {
				matches = append(matches, p)
			}
		}
	}

	switch len(matches) {
	case 0:
		return entity.Partner{}, NewDomainError(CodeNotFound, "no partner matches %q", firstNonEmpty(in.Phone, in.Name))
	case 1:
		return matches[0], nil
	default:
		return entity.Partner{}, NewDomainError(CodeAmbiguous, "%d partners match %q", len(matches), firstNonEmpty(in.Phone, in.Name))
	}
}

// DedupeAuditLog marks every audit row whose lead name and phone already
// appeared in an earlier row. Rows marked before are left alone but still
// count as seen.
func (uc *ReconcileUseCase) DedupeAuditLog(ctx context.Context) (DedupeOutput, error) {
	records, err := uc.audit.FindAll(ctx)
	if err != nil {
		return DedupeOutput{}, &TechnicalError{Code: CodeStoreUnavailable, Message: "read audit log", Err: err}
	}

	out := DedupeOutput{Checked: len(records), Rows: []int{}}
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		key := strings.ToLower(r.LeadName) + "|" + r.LeadPhone
		if _, dup := seen[key]; !dup {
			seen[key] = struct{}{}
			continue
		}
		if r.Status == DuplicateStatus {
			continue
		}
		if err := uc.audit.UpdateStatus(ctx, r.Row, DuplicateStatus); err != nil {
			return out, &TechnicalError{Code: CodeStoreUnavailable, Message: "mark duplicate", Err: err}
		}
		out.Marked++
		out.Rows = append(out.Rows, r.Row)
	}
	uc.log.WithFields(logrus.Fields{"checked": out.Checked, "marked": out.Marked}).Info("audit log deduplicated")
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
