package payments

import (
	"context"
	"errors"

	"github.com/anjiri1684/mentor_marketplace/domain"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

type StripeGateway struct {
	sc         *client.API
	refreshURL string
	returnURL  string
}

func NewStripeGateway(secretKey, refreshURL, returnURL string) *StripeGateway {
	return &StripeGateway{
		sc:         client.New(secretKey, nil),
		refreshURL: refreshURL,
		returnURL:  returnURL,
	}
}

// externalError keeps the Stripe error code and the original error as cause.
func externalError(op string, err error) error {
	if err == nil {
		return nil
	}
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		code := string(stripeErr.Code)
		if code == "" {
			code = string(stripeErr.Type)
		}
		return &domain.ExternalServiceError{Op: op, Code: code, Err: stripeErr}
	}
	return &domain.ExternalServiceError{Op: op, Err: err}
}

func toIntent(pi *stripe.PaymentIntent) *PaymentIntent {
	intent := &PaymentIntent{
		ID:           pi.ID,
		Status:       string(pi.Status),
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}
	if pi.LatestCharge != nil {
		intent.ChargeID = pi.LatestCharge.ID
	}
	return intent
}

func (g *StripeGateway) Authorize(ctx context.Context, req AuthorizeRequest) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.Amount),
		Currency:      stripe.String(req.Currency),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.SetIdempotencyKey(req.IdempotencyKey)

	pi, err := g.sc.PaymentIntents.New(params)
	if err != nil {
		return nil, externalError("authorize", err)
	}
	return toIntent(pi), nil
}

func (g *StripeGateway) Capture(ctx context.Context, intentID, idempotencyKey string) (*CapturedPayment, error) {
	params := &stripe.PaymentIntentCaptureParams{}
	params.Context = ctx
	params.SetIdempotencyKey(idempotencyKey)

	pi, err := g.sc.PaymentIntents.Capture(intentID, params)
	if err != nil {
		return nil, externalError("capture", err)
	}
	captured := &CapturedPayment{IntentID: pi.ID, Amount: pi.AmountReceived}
	if pi.LatestCharge != nil {
		captured.ChargeID = pi.LatestCharge.ID
	}
	return captured, nil
}

func (g *StripeGateway) Void(ctx context.Context, intentID, idempotencyKey string) error {
	params := &stripe.PaymentIntentCancelParams{
		CancellationReason: stripe.String(string(stripe.PaymentIntentCancellationReasonAbandoned)),
	}
	params.Context = ctx
	params.SetIdempotencyKey(idempotencyKey)

	if _, err := g.sc.PaymentIntents.Cancel(intentID, params); err != nil {
		if intent, getErr := g.GetIntent(ctx, intentID); getErr == nil &&
			intent.Status == string(stripe.PaymentIntentStatusCanceled) {
			return nil
		}
		return externalError("void", err)
	}
	return nil
}

func (g *StripeGateway) Refund(ctx context.Context, intentID string, amount int64, reason, idempotencyKey string) (*Refund, error) {
	intent, err := g.GetIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}

	switch stripe.PaymentIntentStatus(intent.Status) {
	case stripe.PaymentIntentStatusSucceeded:
	case stripe.PaymentIntentStatusCanceled:
		return &Refund{ID: intent.ID, IntentID: intent.ID, Amount: intent.Amount, Status: intent.Status}, nil
	default:
		// Nothing was charged yet; releasing the hold is the refund.
		if err := g.Void(ctx, intentID, idempotencyKey); err != nil {
			return nil, err
		}
		return &Refund{
			ID:       intent.ID,
			IntentID: intent.ID,
			Amount:   intent.Amount,
			Status:   string(stripe.PaymentIntentStatusCanceled),
		}, nil
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(intentID),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	if amount > 0 {
		params.Amount = stripe.Int64(amount)
	}
	params.Context = ctx
	if reason != "" {
		params.AddMetadata("reason", reason)
	}
	params.SetIdempotencyKey(idempotencyKey)

	r, err := g.sc.Refunds.New(params)
	if err != nil {
		return nil, externalError("refund", err)
	}
	return &Refund{ID: r.ID, IntentID: intentID, Amount: r.Amount, Status: string(r.Status)}, nil
}

func (g *StripeGateway) Transfer(ctx context.Context, req TransferRequest) (*Transfer, error) {
	params := &stripe.TransferParams{
		Amount:      stripe.Int64(req.Amount),
		Currency:    stripe.String(req.Currency),
		Destination: stripe.String(req.DestinationAccountID),
	}
	if req.SourceChargeID != "" {
		params.SourceTransaction = stripe.String(req.SourceChargeID)
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.SetIdempotencyKey(req.IdempotencyKey)

	t, err := g.sc.Transfers.New(params)
	if err != nil {
		return nil, externalError("transfer", err)
	}
	return &Transfer{ID: t.ID, Amount: t.Amount, Currency: string(t.Currency), Destination: req.DestinationAccountID}, nil
}

func (g *StripeGateway) CreateConnectedAccount(ctx context.Context, req ConnectedAccountRequest) (*ConnectedAccount, error) {
	params := &stripe.AccountParams{
		Type:    stripe.String(string(stripe.AccountTypeExpress)),
		Country: stripe.String(req.Country),
		Email:   stripe.String(req.Email),
		Capabilities: &stripe.AccountCapabilitiesParams{
			Transfers: &stripe.AccountCapabilitiesTransfersParams{Requested: stripe.Bool(true)},
		},
	}
	params.Context = ctx
	params.AddMetadata("mentor_id", req.MentorID.String())
	params.SetIdempotencyKey(req.IdempotencyKey)

	acct, err := g.sc.Accounts.New(params)
	if err != nil {
		return nil, externalError("create connected account", err)
	}

	link, err := g.CreateOnboardingLink(ctx, acct.ID)
	if err != nil {
		return &ConnectedAccount{AccountID: acct.ID}, err
	}
	return &ConnectedAccount{AccountID: acct.ID, OnboardingURL: link}, nil
}

func (g *StripeGateway) CreateOnboardingLink(ctx context.Context, accountID string) (string, error) {
	params := &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(g.refreshURL),
		ReturnURL:  stripe.String(g.returnURL),
		Type:       stripe.String("account_onboarding"),
	}
	params.Context = ctx

	link, err := g.sc.AccountLinks.New(params)
	if err != nil {
		return "", externalError("create onboarding link", err)
	}
	return link.URL, nil
}

func (g *StripeGateway) RetrieveBalance(ctx context.Context, accountID string) (*Balance, error) {
	b, err := retryRead(ctx, readAttempts, readBaseDelay, func() (*stripe.Balance, error) {
		params := &stripe.BalanceParams{}
		params.Context = ctx
		params.SetStripeAccount(accountID)
		return g.sc.Balance.Get(params)
	})
	if err != nil {
		return nil, externalError("retrieve balance", err)
	}

	balance := &Balance{
		Available: make([]BalanceAmount, 0, len(b.Available)),
		Pending:   make([]BalanceAmount, 0, len(b.Pending)),
	}
	for _, a := range b.Available {
		balance.Available = append(balance.Available, BalanceAmount{Amount: a.Amount, Currency: string(a.Currency)})
	}
	for _, a := range b.Pending {
		balance.Pending = append(balance.Pending, BalanceAmount{Amount: a.Amount, Currency: string(a.Currency)})
	}
	return balance, nil
}

func (g *StripeGateway) CreatePayout(ctx context.Context, accountID string, amount int64, currency, idempotencyKey string) (*Payout, error) {
	params := &stripe.PayoutParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
	}
	params.Context = ctx
	params.SetStripeAccount(accountID)
	params.SetIdempotencyKey(idempotencyKey)

	p, err := g.sc.Payouts.New(params)
	if err != nil {
		return nil, externalError("create payout", err)
	}
	return &Payout{
		ID:          p.ID,
		Amount:      p.Amount,
		Currency:    string(p.Currency),
		Status:      string(p.Status),
		ArrivalDate: p.ArrivalDate,
	}, nil
}

func (g *StripeGateway) GetIntent(ctx context.Context, intentID string) (*PaymentIntent, error) {
	pi, err := retryRead(ctx, readAttempts, readBaseDelay, func() (*stripe.PaymentIntent, error) {
		params := &stripe.PaymentIntentParams{}
		params.Context = ctx
		return g.sc.PaymentIntents.Get(intentID, params)
	})
	if err != nil {
		return nil, externalError("get payment intent", err)
	}
	return toIntent(pi), nil
}
