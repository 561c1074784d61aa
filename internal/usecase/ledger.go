package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xavierca1/leadflow/internal/entity"
)

type Assignment struct {
	Partner        entity.Partner  `json:"partner"`
	BalanceAfter   decimal.Decimal `json:"balance_after"`
	DeliveredCount int             `json:"delivered_count"`
	AssignedAt     time.Time       `json:"assigned_at"`
	Paused         bool            `json:"paused"`
}

// Every read-modify-write of the ledger in this process goes through
// Exclusive. Across processes nothing protects the rows.
type Ledger struct {
	repo  entity.PartnerRepository
	price decimal.Decimal
	admin AdminAlerter
	log   logrus.FieldLogger
	now   func() time.Time

	mu sync.Mutex
}

func NewLedger(repo entity.PartnerRepository, price decimal.Decimal, admin AdminAlerter, log logrus.FieldLogger) *Ledger {
	return &Ledger{
		repo:  repo,
		price: price,
		admin: admin,
		log:   log,
		now:   time.Now,
	}
}

func (l *Ledger) Price() decimal.Decimal { return l.price }

func (l *Ledger) Exclusive(fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn()
}

// ApplyAssignment charges one lead to p. The balance, the delivered count
// and the timestamp are written one cell at a time, then the status when the
// partner can no longer afford a lead. A failing write stops the sequence
// and returns a *LedgerWriteError; earlier writes stay in place.
func (l *Ledger) ApplyAssignment(ctx context.Context, p entity.Partner) (Assignment, error) {
	a := Assignment{
		Partner:        p,
		BalanceAfter:   p.Balance.Sub(l.price).Round(2),
		DeliveredCount: p.DeliveredCount + 1,
		AssignedAt:     l.now().UTC().Truncate(time.Second),
	}
	a.Paused = a.BalanceAfter.LessThan(l.price)

	steps := []ledgerWrite{
		{"balance", func() error { return l.repo.UpdateBalance(ctx, p.Row, a.BalanceAfter) }},
		{"delivered_count", func() error { return l.repo.UpdateDeliveredCount(ctx, p.Row, a.DeliveredCount) }},
		{"last_assigned_at", func() error { return l.repo.UpdateLastAssignedAt(ctx, p.Row, a.AssignedAt) }},
	}
	if a.Paused {
		steps = append(steps, ledgerWrite{"status", func() error { return l.repo.UpdateStatus(ctx, p.Row, entity.PartnerPaused) }})
	}

	var written []string
	for _, s := range steps {
		if err := s.write(); err != nil {
			return a, &LedgerWriteError{Partner: p.Name, Row: p.Row, Field: s.field, Written: written, Err: err}
		}
		written = append(written, s.field)
	}

	l.log.WithFields(logrus.Fields{
		"partner":   p.Name,
		"row":       p.Row,
		"balance":   a.BalanceAfter.StringFixed(2),
		"delivered": a.DeliveredCount,
	}).Infof("partner charged %s", l.price.StringFixed(2))

	if a.Paused {
		l.log.WithField("partner", p.Name).Warn("partner paused, balance below lead price")
		l.admin.Alert(ctx, "Partner paused", partnerPausedMessage(p.Name, a.BalanceAfter))
	}
	return a, nil
}

type ledgerWrite struct {
	field string
	write func() error
}

// Credit adds a top-up to p and reactivates it. Balance first, then status.
func (l *Ledger) Credit(ctx context.Context, p entity.Partner, amount decimal.Decimal) (decimal.Decimal, error) {
	if p.BalanceUnreadable {
		return p.Balance, &LedgerWriteError{Partner: p.Name, Row: p.Row, Field: "balance", Err: entity.ErrUnreadableBalance}
	}
	balance := p.Balance.Add(amount).Round(2)
	if err := l.repo.UpdateBalance(ctx, p.Row, balance); err != nil {
		return p.Balance, &LedgerWriteError{Partner: p.Name, Row: p.Row, Field: "balance", Err: err}
	}
	if err := l.repo.UpdateStatus(ctx, p.Row, entity.PartnerActive); err != nil {
		return balance, &LedgerWriteError{Partner: p.Name, Row: p.Row, Field: "status", Written: []string{"balance"}, Err: err}
	}
	return balance, nil
}
