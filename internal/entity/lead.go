package entity

import (
	"context"
	"strings"
)

type LeadStatus string

const (
	LeadCreated     LeadStatus = "CREATED"
	LeadProcessing  LeadStatus = "PROCESSING"
	LeadDistributed LeadStatus = "DISTRIBUTED"
	LeadNoPartner   LeadStatus = "NO_PARTNER"
	LeadError       LeadStatus = "ERROR"
)

func ParseLeadStatus(raw string) LeadStatus {
	return LeadStatus(strings.ToUpper(strings.TrimSpace(raw)))
}

// Terminal reports whether no pipeline pass will pick the lead up again.
func (s LeadStatus) Terminal() bool {
	return s == LeadDistributed || s == LeadNoPartner || s == LeadError
}

const UnknownName = "Unknown"

// ContactFields are the lead's contact details after classification.
type ContactFields struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// LeadRow is a queue row with its contact cells still unclassified.
type LeadRow struct {
	Row    int        `json:"row"`
	Raw    []string   `json:"raw"`
	Status LeadStatus `json:"status"`
}

// Blank reports whether every contact cell is empty.
func (r LeadRow) Blank() bool {
	for _, v := range r.Raw {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Lead is a lead ready to be assigned, either from a queue row or a push event.
type Lead struct {
	Row     int    `json:"row,omitempty"` // 0 for pushed leads
	Source  string `json:"source"`
	Contact ContactFields
}

const (
	SourceSheet   = "sheet"
	SourceWebhook = "webhook"
	SourceManual  = "manual"
)

// LeadQueueRepository is the queue store.
type LeadQueueRepository interface {
	FindAll(ctx context.Context) ([]LeadRow, error)
	UpdateStatus(ctx context.Context, row int, status LeadStatus) error
}
