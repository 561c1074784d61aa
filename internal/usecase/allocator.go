package usecase

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xavierca1/leadflow/internal/entity"
)

// SelectPartner picks the eligible partner that waited longest for a lead.
// Partners that never got one come first; equal timestamps go to the one
// with fewer deliveries, then to the upper ledger row. Returns false when no
// partner can pay the price.
func SelectPartner(partners []entity.Partner, price decimal.Decimal) (*entity.Partner, bool) {
	eligible := make([]entity.Partner, 0, len(partners))
	for _, p := range partners {
		if p.Eligible(price) {
			eligible = append(eligible, p)
		}
	}
	if len(eligible) == 0 {
		return nil, false
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		ti, tj := lastAssigned(eligible[i]), lastAssigned(eligible[j])
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return eligible[i].DeliveredCount < eligible[j].DeliveredCount
	})

	best := eligible[0]
	return &best, true
}

func lastAssigned(p entity.Partner) time.Time {
	if p.LastAssignedAt == nil {
		return time.Time{}
	}
	return *p.LastAssignedAt
}

func EligibleCount(partners []entity.Partner, price decimal.Decimal) int {
	n := 0
	for _, p := range partners {
		if p.Eligible(price) {
			n++
		}
	}
	return n
}
