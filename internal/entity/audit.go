package entity

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type DeliveryStatus string

const (
	DeliveryDelivered DeliveryStatus = "DELIVERED"
	DeliveryFailed    DeliveryStatus = "FAILED"
	DeliverySkipped   DeliveryStatus = "SKIPPED"
)

// DeliveryResult is the outcome of one at-most-once notification.
type DeliveryResult struct {
	Status DeliveryStatus `json:"status"`
	Reason string         `json:"reason,omitempty"`
}

func Delivered() DeliveryResult { return DeliveryResult{Status: DeliveryDelivered} }

func Failed(reason string) DeliveryResult {
	return DeliveryResult{Status: DeliveryFailed, Reason: reason}
}

func Skipped(reason string) DeliveryResult {
	return DeliveryResult{Status: DeliverySkipped, Reason: reason}
}

func (d DeliveryResult) OK() bool { return d.Status == DeliveryDelivered }

// Label is the cell text written to the audit log.
func (d DeliveryResult) Label() string {
	switch d.Status {
	case DeliveryDelivered:
		return "OK"
	case DeliveryFailed:
		if d.Reason == "" {
			return "FAILED"
		}
		return "FAILED: " + d.Reason
	case DeliverySkipped:
		return "SKIPPED"
	default:
		return string(d.Status)
	}
}

// AuditEntry is one append-only row of the lead log.
type AuditEntry struct {
	Timestamp     time.Time
	Lead          ContactFields
	PartnerName   string
	PartnerPhone  string
	BalanceAfter  decimal.Decimal
	PartnerNotify DeliveryResult
	LeadNotify    DeliveryResult
	Status        LeadStatus
	RunID         string
}

// AuditRecord is an audit row as read back for reconciliation.
type AuditRecord struct {
	Row       int
	LeadName  string
	LeadPhone string
	Status    string
}

type AuditLogRepository interface {
	Append(ctx context.Context, entry AuditEntry) error
}

// AuditLogReader is implemented by audit stores that can be corrected in place.
type AuditLogReader interface {
	FindAll(ctx context.Context) ([]AuditRecord, error)
	UpdateStatus(ctx context.Context, row int, status string) error
}
