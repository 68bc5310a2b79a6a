package services

import (
	"context"
	"log"
	"strings"

	"github.com/anjiri1684/mentor_marketplace/domain"
	"github.com/anjiri1684/mentor_marketplace/models"
	"github.com/anjiri1684/mentor_marketplace/payments"
	"github.com/google/uuid"
)

type PayoutManager struct {
	accounts payoutAccountStore
	gateway  payments.Gateway
}

func NewPayoutManager(accounts payoutAccountStore, gateway payments.Gateway) *PayoutManager {
	return &PayoutManager{accounts: accounts, gateway: gateway}
}

type ConnectAccountInput struct {
	MentorID uuid.UUID
	Email    string
	Country  string
}

type ConnectAccountResult struct {
	Account       models.MentorPayoutAccount `json:"account"`
	OnboardingURL string                     `json:"onboarding_url,omitempty"`
	Created       bool                       `json:"created"`
}

type PayoutInput struct {
	MentorID   uuid.UUID
	Amount     int64
	Currency   string
	RequestKey string
}

// EnsureConnectedAccount returns the mentor's connected account, creating it
// on first use. Email and country fall back to the mentor's profile.
func (p *PayoutManager) EnsureConnectedAccount(ctx context.Context, actor Actor, input ConnectAccountInput) (*ConnectAccountResult, error) {
	if err := requireSelf(actor, input.MentorID, "manage this mentor's payout account"); err != nil {
		return nil, err
	}

	existing, err := p.accounts.Account(ctx, input.MentorID)
	switch {
	case err == nil:
		result := &ConnectAccountResult{Account: *existing}
		if existing.OnboardingStatus != models.OnboardingComplete {
			link, err := p.gateway.CreateOnboardingLink(ctx, existing.ExternalAccountID)
			if err != nil {
				return nil, err
			}
			result.OnboardingURL = link
		}
		return result, nil
	case !domain.IsNotFound(err):
		return nil, err
	}

	email, country := strings.TrimSpace(input.Email), strings.ToUpper(strings.TrimSpace(input.Country))
	if email == "" || country == "" {
		profile, err := p.accounts.Profile(ctx, input.MentorID)
		if err != nil {
			return nil, err
		}
		if email == "" {
			email = profile.Email
		}
		if country == "" {
			country = strings.ToUpper(profile.Country)
		}
	}
	if email == "" {
		return nil, domain.ValidationError{Field: "email", Msg: "is required"}
	}
	if len(country) != 2 {
		return nil, domain.ValidationError{Field: "country", Msg: "must be a two-letter country code"}
	}

	created, err := p.gateway.CreateConnectedAccount(ctx, payments.ConnectedAccountRequest{
		MentorID:       input.MentorID,
		Email:          email,
		Country:        country,
		IdempotencyKey: payments.ConnectedAccountKey(input.MentorID),
	})
	if err != nil && (created == nil || created.AccountID == "") {
		return nil, err
	}
	// The account may exist even when its onboarding link failed; keep it.

	account := models.MentorPayoutAccount{
		MentorID:          input.MentorID,
		ExternalAccountID: created.AccountID,
		OnboardingStatus:  models.OnboardingPending,
	}
	if saveErr := p.accounts.SaveAccount(ctx, &account); saveErr != nil {
		return nil, saveErr
	}
	if err != nil {
		return nil, err
	}

	log.Printf("[PAYOUTS] connected account %s created for mentor %s", created.AccountID, input.MentorID)
	return &ConnectAccountResult{Account: account, OnboardingURL: created.OnboardingURL, Created: true}, nil
}

// OnboardingLink issues a fresh onboarding URL for an existing connected
// account. Links expire quickly, so one is never stored.
func (p *PayoutManager) OnboardingLink(ctx context.Context, actor Actor, mentorID uuid.UUID) (string, error) {
	if err := requireSelf(actor, mentorID, "manage this mentor's payout account"); err != nil {
		return "", err
	}
	account, err := p.accounts.Account(ctx, mentorID)
	if err != nil {
		return "", err
	}
	return p.gateway.CreateOnboardingLink(ctx, account.ExternalAccountID)
}

func (p *PayoutManager) GetBalance(ctx context.Context, actor Actor, mentorID uuid.UUID) (*payments.Balance, error) {
	if err := requireSelf(actor, mentorID, "view this mentor's balance"); err != nil {
		return nil, err
	}
	account, err := p.accounts.Account(ctx, mentorID)
	if err != nil {
		return nil, err
	}
	return p.gateway.RetrieveBalance(ctx, account.ExternalAccountID)
}

// RequestPayout pays out from the connected account when the available balance
// in the requested currency covers the amount.
func (p *PayoutManager) RequestPayout(ctx context.Context, actor Actor, input PayoutInput) (*payments.Payout, error) {
	if err := requireSelf(actor, input.MentorID, "request a payout for this mentor"); err != nil {
		return nil, err
	}
	input.Currency = strings.ToLower(strings.TrimSpace(input.Currency))
	if input.Amount <= 0 {
		return nil, domain.ValidationError{Field: "amount", Msg: "must be a positive amount in minor units"}
	}
	if !currencyPattern.MatchString(input.Currency) {
		return nil, domain.ValidationError{Field: "currency", Msg: "must be a three-letter ISO code"}
	}
	if input.RequestKey == "" {
		input.RequestKey = uuid.NewString()
	}

	account, err := p.accounts.Account(ctx, input.MentorID)
	if err != nil {
		return nil, err
	}
	balance, err := p.gateway.RetrieveBalance(ctx, account.ExternalAccountID)
	if err != nil {
		return nil, err
	}
	if available := balance.AvailableIn(input.Currency); input.Amount > available {
		return nil, domain.InsufficientBalanceError{
			Currency:  input.Currency,
			Requested: input.Amount,
			Available: available,
		}
	}

	payout, err := p.gateway.CreatePayout(ctx, account.ExternalAccountID, input.Amount, input.Currency,
		payments.PayoutKey(input.MentorID, input.RequestKey))
	if err != nil {
		return nil, err
	}
	log.Printf("[PAYOUTS] payout %s of %d %s requested for mentor %s", payout.ID, payout.Amount, payout.Currency, input.MentorID)
	return payout, nil
}

// AccountUpdate carries the processor's view of a connected account.
type AccountUpdate struct {
	ExternalAccountID string
	DetailsSubmitted  bool
	ChargesEnabled    bool
	PayoutsEnabled    bool
}

func onboardingStatus(u AccountUpdate) string {
	switch {
	case u.ChargesEnabled && u.PayoutsEnabled:
		return models.OnboardingComplete
	case u.DetailsSubmitted:
		return models.OnboardingSubmitted
	default:
		return models.OnboardingPending
	}
}

// ApplyAccountUpdate stores the onboarding status implied by update and
// returns the account before and after. An unchanged status writes nothing.
func (p *PayoutManager) ApplyAccountUpdate(ctx context.Context, update AccountUpdate) (before, after string, err error) {
	account, err := p.accounts.FindByExternalAccount(ctx, update.ExternalAccountID)
	if err != nil {
		return "", "", err
	}
	before = account.OnboardingStatus
	after = onboardingStatus(update)
	if before == after {
		return before, after, nil
	}
	account.OnboardingStatus = after
	if err := p.accounts.SaveAccount(ctx, account); err != nil {
		return before, before, err
	}
	return before, after, nil
}
