package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/xavierca1/leadflow/internal/entity"
)

type PipelineConfig struct {
	// LeadDelay is the pause between two leads of one scan, for the
	// messaging API rate limit.
	LeadDelay      time.Duration
	NotifyCustomer bool
	PhoneRegion    string
}

type leadOutcome int

const (
	outcomeDistributed leadOutcome = iota
	outcomeUnassigned
	outcomeFailed
	outcomeSkipped
)

const (
	opClaimLead     = "claim_lead"
	opSelectPartner = "select_partner"
	opChargePartner = "charge_partner"
)

// IntakePipeline moves leads from CREATED to a terminal status:
// claim (PROCESSING), classify, select a partner, charge the ledger, notify,
// then write DISTRIBUTED or NO_PARTNER and an audit row. A failure while
// selecting or charging puts the row back to CREATED for the next scan.
type IntakePipeline struct {
	queue    entity.LeadQueueRepository
	partners entity.PartnerRepository
	audit    entity.AuditLogRepository
	ledger   *Ledger
	notifier *Notifier
	admin    AdminAlerter
	guard    *ScanGuard
	metrics  Recorder
	log      logrus.FieldLogger
	cfg      PipelineConfig

	now   func() time.Time
	sleep func(time.Duration)
}

func NewIntakePipeline(
	queue entity.LeadQueueRepository,
	partners entity.PartnerRepository,
	audit entity.AuditLogRepository,
	ledger *Ledger,
	notifier *Notifier,
	admin AdminAlerter,
	guard *ScanGuard,
	metrics Recorder,
	log logrus.FieldLogger,
	cfg PipelineConfig,
) *IntakePipeline {
	if guard == nil {
		guard = NewScanGuard()
	}
	if metrics == nil {
		metrics = NopRecorder{}
	}
	if cfg.PhoneRegion == "" {
		cfg.PhoneRegion = entity.DefaultPhoneRegion
	}
	return &IntakePipeline{
		queue:    queue,
		partners: partners,
		audit:    audit,
		ledger:   ledger,
		notifier: notifier,
		admin:    admin,
		guard:    guard,
		metrics:  metrics,
		log:      log,
		cfg:      cfg,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// RunScan processes every CREATED row of the queue, top to bottom. Only one
// scan runs at a time; a call that finds another scan in progress returns a
// skipped result immediately. Once rows are being claimed the scan no longer
// follows ctx cancellation.
func (p *IntakePipeline) RunScan(ctx context.Context) (ScanResult, error) {
	release, ok := p.guard.TryAcquire()
	if !ok {
		p.log.Info("scan already running, skipping")
		return ScanResult{Skipped: true, Message: "scan already running"}, nil
	}
	defer release()

	started := p.now()
	res := ScanResult{RunID: uuid.NewString()}
	log := p.log.WithField("run_id", res.RunID)

	rows, err := p.queue.FindAll(ctx)
	if err != nil {
		res.Message = "lead queue unavailable"
		log.WithError(err).Error("scan aborted")
		p.metrics.ScanFinished(res, p.now().Sub(started))
		return res, &TechnicalError{Code: CodeStoreUnavailable, Message: "read lead queue", Err: err}
	}

	var pending []entity.LeadRow
	for _, r := range rows {
		if r.Status == entity.LeadCreated {
			pending = append(pending, r)
		}
	}
	res.Total = len(pending)
	if len(pending) == 0 {
		res.Message = "no new leads"
		p.metrics.ScanFinished(res, p.now().Sub(started))
		return res, nil
	}
	log.Infof("%d new leads in queue", len(pending))

	work := context.WithoutCancel(ctx)
	for i, row := range pending {
		if i > 0 && p.cfg.LeadDelay > 0 {
			p.sleep(p.cfg.LeadDelay)
		}
		switch p.processRow(work, res.RunID, row) {
		case outcomeDistributed:
			res.Processed++
		case outcomeUnassigned:
			res.Unassigned++
		case outcomeFailed:
			res.Errors++
		case outcomeSkipped:
			res.SkippedRows++
		}
	}

	res.Message = fmt.Sprintf("%d distributed, %d without partner, %d errors", res.Processed, res.Unassigned, res.Errors)
	log.WithField("took", p.now().Sub(started).String()).Info("scan finished: " + res.Message)
	p.metrics.ScanFinished(res, p.now().Sub(started))
	return res, nil
}

func (p *IntakePipeline) processRow(ctx context.Context, runID string, row entity.LeadRow) leadOutcome {
	log := p.log.WithFields(logrus.Fields{"run_id": runID, "row": row.Row})

	if row.Blank() {
		if err := p.queue.UpdateStatus(ctx, row.Row, entity.LeadProcessing); err != nil {
			log.WithError(err).Error("claim failed, row skipped")
			return outcomeSkipped
		}
		log.Warn("row has no contact data")
		if err := p.queue.UpdateStatus(ctx, row.Row, entity.LeadError); err != nil {
			log.WithError(err).Error("could not mark row as ERROR")
		}
		p.appendAudit(ctx, log, entity.AuditEntry{
			Timestamp:     p.now().UTC(),
			Lead:          entity.ContactFields{Name: entity.UnknownName},
			PartnerNotify: entity.Skipped("no contact data"),
			LeadNotify:    entity.Skipped("no contact data"),
			Status:        entity.LeadError,
			RunID:         runID,
		})
		p.metrics.LeadFinalized(entity.SourceSheet, entity.LeadError)
		return outcomeFailed
	}

	lead := entity.Lead{
		Row:     row.Row,
		Source:  entity.SourceSheet,
		Contact: Classify(row.Raw, p.cfg.PhoneRegion),
	}
	_, outcome, _ := p.assign(ctx, runID, lead)
	return outcome
}

// ProcessInbound assigns a pushed lead that has no queue row.
func (p *IntakePipeline) ProcessInbound(ctx context.Context, in InboundLeadInput) (AssignmentOutput, error) {
	if err := validateInput(in); err != nil {
		return AssignmentOutput{}, err
	}

	lead := entity.Lead{
		Source: in.Source,
		Contact: entity.ContactFields{
			Name:  strings.TrimSpace(in.Name),
			Email: strings.TrimSpace(in.Email),
			Phone: entity.NormalizePhoneRegion(in.Phone, p.cfg.PhoneRegion),
		},
	}
	if lead.Source == "" {
		lead.Source = entity.SourceWebhook
	}
	if lead.Contact.Name == "" {
		lead.Contact.Name = entity.UnknownName
	}

	out, _, err := p.assign(context.WithoutCancel(ctx), uuid.NewString(), lead)
	return out, err
}

// assign runs the claim (queue leads only), the partner selection and the
// ledger charge as one compensated transaction under the ledger lock, then
// notifies and finalizes outside of it.
func (p *IntakePipeline) assign(ctx context.Context, runID string, lead entity.Lead) (AssignmentOutput, leadOutcome, error) {
	log := p.log.WithFields(logrus.Fields{"run_id": runID, "lead": lead.Contact.Name, "source": lead.Source})
	if lead.Row > 0 {
		log = log.WithField("row", lead.Row)
	}

	var (
		partner    *entity.Partner
		assignment Assignment
	)
	tx := NewTransaction(log)
	if lead.Row > 0 {
		tx.AddOperation(opClaimLead, func(ctx context.Context) error {
			return p.queue.UpdateStatus(ctx, lead.Row, entity.LeadProcessing)
		})
		tx.AddCompensation("release_claim", func(ctx context.Context) error {
			return p.queue.UpdateStatus(ctx, lead.Row, entity.LeadCreated)
		})
	}
	tx.AddOperation(opSelectPartner, func(ctx context.Context) error {
		snapshot, err := p.partners.FindAll(ctx)
		if err != nil {
			return err
		}
		partner, _ = SelectPartner(snapshot, p.ledger.Price())
		return nil
	})
	tx.AddOperation(opChargePartner, func(ctx context.Context) error {
		if partner == nil {
			return nil
		}
		var err error
		assignment, err = p.ledger.ApplyAssignment(ctx, *partner)
		return err
	})

	out := AssignmentOutput{RunID: runID, Lead: lead.Contact}
	if err := p.ledger.Exclusive(func() error { return tx.Execute(ctx) }); err != nil {
		var step *StepError
		if errors.As(err, &step) && step.Operation == opClaimLead {
			log.WithError(err).Error("claim failed, row skipped")
			return out, outcomeSkipped, &TechnicalError{Code: CodeStoreUnavailable, Message: "claim lead", Err: err}
		}

		log.WithError(err).Error("lead not assigned")
		out.Status = entity.LeadError
		if lead.Row > 0 {
			out.Status = entity.LeadCreated
		}
		code := CodeStoreUnavailable
		var lwe *LedgerWriteError
		if errors.As(err, &lwe) {
			code = CodeLedgerWrite
			p.admin.Alert(ctx, "Ledger write failed", adminLedgerErrorMessage(lead.Contact, lwe))
		}
		p.metrics.LeadFinalized(lead.Source, entity.LeadError)
		return out, outcomeFailed, &TechnicalError{Code: code, Message: "assign lead", Err: err}
	}

	if partner == nil {
		return p.finishUnassigned(ctx, log, runID, lead, out), outcomeUnassigned, nil
	}
	return p.finishAssigned(ctx, log, runID, lead, assignment, out), outcomeDistributed, nil
}

func (p *IntakePipeline) finishUnassigned(ctx context.Context, log logrus.FieldLogger, runID string, lead entity.Lead, out AssignmentOutput) AssignmentOutput {
	log.Warn("no eligible partner for lead")
	if lead.Row > 0 {
		if err := p.queue.UpdateStatus(ctx, lead.Row, entity.LeadNoPartner); err != nil {
			log.WithError(err).Error("could not mark row as NO_PARTNER")
		}
	}

	adminRes := p.admin.Alert(ctx, "Lead without partner", adminNoPartnerMessage(lead.Contact))
	p.appendAudit(ctx, log, entity.AuditEntry{
		Timestamp:     p.now().UTC(),
		Lead:          lead.Contact,
		PartnerNotify: entity.Skipped("no partner"),
		LeadNotify:    entity.Skipped("no partner"),
		Status:        entity.LeadNoPartner,
		RunID:         runID,
	})
	p.metrics.LeadFinalized(lead.Source, entity.LeadNoPartner)

	out.Status = entity.LeadNoPartner
	out.Notifications = map[string]entity.DeliveryResult{ChannelAdmin: adminRes}
	return out
}

func (p *IntakePipeline) finishAssigned(ctx context.Context, log logrus.FieldLogger, runID string, lead entity.Lead, a Assignment, out AssignmentOutput) AssignmentOutput {
	partnerPhone := entity.NormalizePhoneRegion(a.Partner.Phone, p.cfg.PhoneRegion)
	partnerRes := p.notifier.Deliver(ctx, ChannelPartner, partnerPhone, partnerLeadMessage(lead.Contact, a))

	leadRes := entity.Skipped("customer notifications disabled")
	if p.cfg.NotifyCustomer {
		leadRes = p.notifier.Deliver(ctx, ChannelLead, lead.Contact.Phone, leadWelcomeMessage(lead.Contact, a.Partner.Name))
	}
	adminRes := p.admin.Alert(ctx, "Lead distributed", adminAssignedMessage(lead, a))

	if lead.Row > 0 {
		if err := p.queue.UpdateStatus(ctx, lead.Row, entity.LeadDistributed); err != nil {
			log.WithError(err).Error("lead assigned but row could not be marked DISTRIBUTED")
		}
	}
	p.appendAudit(ctx, log, entity.AuditEntry{
		Timestamp:     a.AssignedAt,
		Lead:          lead.Contact,
		PartnerName:   a.Partner.Name,
		PartnerPhone:  partnerPhone,
		BalanceAfter:  a.BalanceAfter,
		PartnerNotify: partnerRes,
		LeadNotify:    leadRes,
		Status:        entity.LeadDistributed,
		RunID:         runID,
	})
	p.metrics.LeadFinalized(lead.Source, entity.LeadDistributed)
	log.WithField("partner", a.Partner.Name).Info("lead distributed")

	balance := a.BalanceAfter
	out.Status = entity.LeadDistributed
	out.Partner = a.Partner.Name
	out.BalanceAfter = &balance
	out.PartnerPaused = a.Paused
	out.Notifications = map[string]entity.DeliveryResult{
		ChannelPartner: partnerRes,
		ChannelLead:    leadRes,
		ChannelAdmin:   adminRes,
	}
	return out
}

func (p *IntakePipeline) appendAudit(ctx context.Context, log logrus.FieldLogger, e entity.AuditEntry) {
	if p.audit == nil {
		return
	}
	if err := p.audit.Append(ctx, e); err != nil {
		log.WithError(err).Error("audit row not written")
	}
}
