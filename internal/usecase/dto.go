package usecase

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/xavierca1/leadflow/internal/entity"
)

type ScanResult struct {
	RunID       string `json:"run_id,omitempty"`
	Total       int    `json:"total"`
	Processed   int    `json:"processed"`
	Unassigned  int    `json:"unassigned"`
	Errors      int    `json:"errors"`
	SkippedRows int    `json:"skipped_rows"`
	Skipped     bool   `json:"skipped"`
	Message     string `json:"message"`
}

type InboundLeadInput struct {
	Name   string `json:"name" validate:"max=200"`
	Email  string `json:"email" validate:"omitempty,email"`
	Phone  string `json:"phone" validate:"required_without=Email"`
	Source string `json:"source" validate:"omitempty,oneof=sheet webhook manual"`
}

type AssignmentOutput struct {
	RunID         string                           `json:"run_id"`
	Status        entity.LeadStatus                `json:"status"`
	Lead          entity.ContactFields             `json:"lead"`
	Partner       string                           `json:"partner,omitempty"`
	BalanceAfter  *decimal.Decimal                 `json:"balance_after,omitempty"`
	PartnerPaused bool                             `json:"partner_paused,omitempty"`
	Notifications map[string]entity.DeliveryResult `json:"notifications,omitempty"`
}

type PreviewOutput struct {
	PendingLeads     int             `json:"pending_leads"`
	EligiblePartners int             `json:"eligible_partners"`
	NextPartner      *PartnerView    `json:"next_partner,omitempty"`
	LeadPrice        decimal.Decimal `json:"lead_price"`
}

type PartnerView struct {
	Name           string          `json:"name"`
	Phone          string          `json:"phone"`
	Status         string          `json:"status"`
	Balance        decimal.Decimal `json:"balance"`
	DeliveredCount int             `json:"delivered_count"`
	LastAssignedAt *time.Time      `json:"last_assigned_at"`
	Eligible       bool            `json:"eligible"`
}

func newPartnerView(p entity.Partner, price decimal.Decimal) PartnerView {
	return PartnerView{
		Name:           p.Name,
		Phone:          p.Phone,
		Status:         string(p.Status),
		Balance:        p.Balance,
		DeliveredCount: p.DeliveredCount,
		LastAssignedAt: p.LastAssignedAt,
		Eligible:       p.Eligible(price),
	}
}

type TopUpInput struct {
	Name      string          `json:"name"`
	Phone     string          `json:"phone"`
	Email     string          `json:"email" validate:"omitempty,email"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
}

const (
	TopUpBalanceIncreased = "BALANCE_INCREASED"
	TopUpPartnerCreated   = "PARTNER_CREATED"
	TopUpPartial          = "PARTIAL"         // balance written, status write failed
	TopUpAlreadyApplied   = "ALREADY_APPLIED" // reference credited before
)

type TopUpOutput struct {
	Action       string          `json:"action"`
	Partner      string          `json:"partner"`
	MatchedBy    string          `json:"matched_by,omitempty"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	Ambiguous    bool            `json:"ambiguous,omitempty"`
}

// AdjustInput corrects one ledger row. Set* fields replace the value, the
// deltas are added to it; Set wins when both are given.
type AdjustInput struct {
	Phone          string           `json:"phone" validate:"required_without=Name"`
	Name           string           `json:"name"`
	BalanceDelta   *decimal.Decimal `json:"balance_delta"`
	SetBalance     *decimal.Decimal `json:"set_balance"`
	DeliveredDelta int              `json:"delivered_delta"`
	SetDelivered   *int             `json:"set_delivered" validate:"omitempty,min=0"`
	Status         string           `json:"status" validate:"omitempty,oneof=Active Paused"`
	Reason         string           `json:"reason" validate:"max=500"`
}

type AdjustOutput struct {
	Partner string      `json:"partner"`
	Before  PartnerView `json:"before"`
	After   PartnerView `json:"after"`
	Changed []string    `json:"changed"`
}

type DedupeOutput struct {
	Checked int   `json:"checked"`
	Marked  int   `json:"marked"`
	Rows    []int `json:"rows"`
}

type NotifyTestInput struct {
	Phone string `json:"phone"`
}

type NotifyTestOutput struct {
	To     string                `json:"to"`
	Result entity.DeliveryResult `json:"result"`
}
