package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xavierca1/leadflow/internal/entity"
)

const (
	MatchByPhone = "phone"
	MatchByName  = "name"
)

// ContainsNameMatcher matches a payer to a partner by normalized phone first,
// then by name where either name contains the other (case-insensitive).
// The name rule is loose: "Max" matches "Maximilian". When it matches more
// than one row the first row wins and Candidates reports the ambiguity.
type ContainsNameMatcher struct {
	Region string
}

func (m ContainsNameMatcher) Match(partners []entity.Partner, name, phone string) MatchResult {
	if phone = entity.NormalizePhoneRegion(phone, m.Region); phone != "" {
		var res MatchResult
		for i := range partners {
			if entity.NormalizePhoneRegion(partners[i].Phone, m.Region) != phone {
				continue
			}
			if res.Partner == nil {
				res = MatchResult{Partner: &partners[i], By: MatchByPhone}
			}
			res.Candidates++
		}
		if res.Partner != nil {
			return res
		}
	}

	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == strings.ToLower(entity.UnknownName) {
		return MatchResult{}
	}
	var res MatchResult
	for i := range partners {
		pn := strings.ToLower(strings.TrimSpace(partners[i].Name))
		if pn == "" || !(strings.Contains(name, pn) || strings.Contains(pn, name)) {
			continue
		}
		if res.Partner == nil {
			res = MatchResult{Partner: &partners[i], By: MatchByName}
		}
		res.Candidates++
	}
	return res
}

type TopUpUseCase struct {
	partners entity.PartnerRepository
	ledger   *Ledger
	matcher  PartnerMatcher
	admin    AdminAlerter
	metrics  Recorder
	log      logrus.FieldLogger
	region   string

	// payment references already credited, guarded by the ledger lock
	credited map[string]string
	order    []string
}

const creditedReferencesKept = 4096

func NewTopUpUseCase(
	partners entity.PartnerRepository,
	ledger *Ledger,
	matcher PartnerMatcher,
	admin AdminAlerter,
	metrics Recorder,
	log logrus.FieldLogger,
	region string,
) *TopUpUseCase {
	if region == "" {
		region = entity.DefaultPhoneRegion
	}
	if matcher == nil {
		matcher = ContainsNameMatcher{Region: region}
	}
	if metrics == nil {
		metrics = NopRecorder{}
	}
	return &TopUpUseCase{
		partners: partners,
		ledger:   ledger,
		matcher:  matcher,
		admin:    admin,
		metrics:  metrics,
		log:      log,
		region:   region,
		credited: make(map[string]string),
	}
}

func (uc *TopUpUseCase) Execute(ctx context.Context, in TopUpInput) (TopUpOutput, error) {
	if err := validateInput(in); err != nil {
		return TopUpOutput{}, err
	}
	if !in.Amount.IsPositive() {
		return TopUpOutput{}, NewDomainError(CodeValidation, "amount: must be positive")
	}
	in.Amount = in.Amount.Round(2)
	in.Name = PayerName(in.Name, in.Email)
	phone := entity.NormalizePhoneRegion(in.Phone, uc.region)

	log := uc.log.WithFields(logrus.Fields{"payer": in.Name, "amount": in.Amount.StringFixed(2), "reference": in.Reference})

	var (
		out   TopUpOutput
		match MatchResult
	)
	err := uc.ledger.Exclusive(func() error {
		if partner, ok := uc.credited[in.Reference]; ok && in.Reference != "" {
			out = TopUpOutput{Action: TopUpAlreadyApplied, Partner: partner}
			return nil
		}

		partners, err := uc.partners.FindAll(ctx)
		if err != nil {
			return &TechnicalError{Code: CodeStoreUnavailable, Message: "read partner ledger", Err: err}
		}

		match = uc.matcher.Match(partners, in.Name, phone)
		if match.Partner != nil {
			balance, err := uc.ledger.Credit(ctx, *match.Partner, in.Amount)
			if err != nil {
				var lwe *LedgerWriteError
				if errors.As(err, &lwe) && lwe.Torn() {
					// the money is on the row; a redelivery must not add it again
					uc.remember(in.Reference, match.Partner.Name)
					out = TopUpOutput{Action: TopUpPartial, Partner: match.Partner.Name, MatchedBy: match.By, BalanceAfter: balance}
				}
				return &TechnicalError{Code: CodeLedgerWrite, Message: "credit partner", Err: err}
			}
			uc.remember(in.Reference, match.Partner.Name)
			out = TopUpOutput{
				Action:       TopUpBalanceIncreased,
				Partner:      match.Partner.Name,
				MatchedBy:    match.By,
				BalanceAfter: balance,
				Ambiguous:    match.Candidates > 1,
			}
			return nil
		}

		p := &entity.Partner{
			Name:    in.Name,
			Phone:   phone,
			Balance: in.Amount,
			Status:  entity.PartnerActive,
		}
		if err := uc.partners.Create(ctx, p); err != nil {
			return &TechnicalError{Code: CodeStoreUnavailable, Message: "create partner", Err: err}
		}
		uc.remember(in.Reference, p.Name)
		out = TopUpOutput{Action: TopUpPartnerCreated, Partner: p.Name, BalanceAfter: p.Balance}
		return nil
	})
	if err != nil {
		log.WithError(err).Error("top-up failed")
		if out.Action == TopUpPartial {
			uc.metrics.TopUp(out.Action)
			uc.admin.Alert(ctx, "Payment partially credited", adminTopUpPartialMessage(in, out.Partner, err))
			return out, err
		}
		if errors.Is(err, entity.ErrUnreadableBalance) {
			uc.admin.Alert(ctx, "Payment not credited", adminTopUpUnreadableMessage(in, match.Partner.Name))
		}
		return TopUpOutput{}, err
	}
	if out.Action == TopUpAlreadyApplied {
		log.WithField("partner", out.Partner).Info("payment reference already credited, skipping")
		return out, nil
	}

	log.WithFields(logrus.Fields{"action": out.Action, "partner": out.Partner, "balance": out.BalanceAfter.StringFixed(2)}).Info("top-up applied")
	uc.metrics.TopUp(out.Action)
	uc.admin.Alert(ctx, "Payment received", adminTopUpMessage(in, out))
	if out.Ambiguous {
		log.WithField("candidates", match.Candidates).Warn("payer matched more than one partner by name")
		uc.admin.Alert(ctx, "Ambiguous payment", adminAmbiguousMatchMessage(in.Name, match.Candidates, out.Partner))
	}
	return out, nil
}

func (uc *TopUpUseCase) remember(reference, partner string) {
	if reference == "" {
		return
	}
	if _, ok := uc.credited[reference]; ok {
		return
	}
	if len(uc.order) >= creditedReferencesKept {
		delete(uc.credited, uc.order[0])
		uc.order = uc.order[1:]
	}
	uc.credited[reference] = partner
	uc.order = append(uc.order, reference)
}

// PayerName falls back to the local part of the email, then to Unknown.
func PayerName(name, email string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(strings.TrimSpace(email), "@"); ok && local != "" {
		return local
	}
	return entity.UnknownName
}

func CentsToAmount(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
