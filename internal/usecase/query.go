package usecase

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/xavierca1/leadflow/internal/entity"
)

type QueryUseCase struct {
	partners entity.PartnerRepository
	queue    entity.LeadQueueRepository
	price    decimal.Decimal
}

func NewQueryUseCase(partners entity.PartnerRepository, queue entity.LeadQueueRepository, price decimal.Decimal) *QueryUseCase {
	return &QueryUseCase{partners: partners, queue: queue, price: price}
}

func (q *QueryUseCase) ListPartners(ctx context.Context) ([]PartnerView, error) {
	partners, err := q.partners.FindAll(ctx)
	if err != nil {
		return nil, &TechnicalError{Code: CodeStoreUnavailable, Message: "read partner ledger", Err: err}
	}
	out := make([]PartnerView, 0, len(partners))
	for _, p := range partners {
		out = append(out, newPartnerView(p, q.price))
	}
	return out, nil
}

// Preview is a dry run of the allocator: which partner the next lead would
// go to and how many leads are waiting.
func (q *QueryUseCase) Preview(ctx context.Context) (PreviewOutput, error) {
	partners, err := q.partners.FindAll(ctx)
	if err != nil {
		return PreviewOutput{}, &TechnicalError{Code: CodeStoreUnavailable, Message: "read partner ledger", Err: err}
	}
	rows, err := q.queue.FindAll(ctx)
	if err != nil {
		return PreviewOutput{}, &TechnicalError{Code: CodeStoreUnavailable, Message: "read lead queue", Err: err}
	}

	out := PreviewOutput{LeadPrice: q.price, EligiblePartners: EligibleCount(partners, q.price)}
	for _, r := range rows {
		if r.Status == entity.LeadCreated {
			out.PendingLeads++
		}
	}
	if next, ok := SelectPartner(partners, q.price); ok {
		v := newPartnerView(*next, q.price)
		out.NextPartner = &v
	}
	return out, nil
}
