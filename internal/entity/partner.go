package entity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TimestampLayout is how assignment timestamps are written to the ledger (UTC).
const TimestampLayout = "2006-01-02 15:04:05"

type PartnerStatus string

const (
	PartnerActive PartnerStatus = "Active"
	PartnerPaused PartnerStatus = "Paused"
)

// ParsePartnerStatus accepts the English labels and the German ones the
// partner sheet was started with. Anything else is returned trimmed and is
// never considered active.
func ParsePartnerStatus(raw string) PartnerStatus {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "active", "aktiv":
		return PartnerActive
	case "paused", "pausiert":
		return PartnerPaused
	default:
		return PartnerStatus(s)
	}
}

// ErrUnreadableBalance is returned when a balance would be computed from a
// cell that could not be parsed.
var ErrUnreadableBalance = errors.New("balance cell unreadable")

// Partner is one row of the ledger sheet.
type Partner struct {
	Row            int             `json:"-"`
	Name           string          `json:"name"`
	Phone          string          `json:"phone"`
	Balance        decimal.Decimal `json:"balance"`
	DeliveredCount int             `json:"delivered_count"`
	LastAssignedAt *time.Time      `json:"last_assigned_at,omitempty"`
	Status         PartnerStatus   `json:"status"`

	BalanceUnreadable bool `json:"balance_unreadable,omitempty"` // Balance is 0, not the cell value
}

// Eligible reports whether the partner can pay for one more lead.
func (p Partner) Eligible(price decimal.Decimal) bool {
	return p.Status == PartnerActive && !p.BalanceUnreadable && p.Balance.GreaterThanOrEqual(price)
}

func (p Partner) NeverAssigned() bool {
	return p.LastAssignedAt == nil
}

// PartnerRepository is the ledger store. Writes are single cells; there is no
// atomicity across them.
type PartnerRepository interface {
	FindAll(ctx context.Context) ([]Partner, error)
	UpdateBalance(ctx context.Context, row int, balance decimal.Decimal) error
	UpdateDeliveredCount(ctx context.Context, row int, count int) error
	UpdateLastAssignedAt(ctx context.Context, row int, at time.Time) error
	UpdateStatus(ctx context.Context, row int, status PartnerStatus) error
	Create(ctx context.Context, p *Partner) error
}
