package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// IntentStatusSucceeded is the status of an intent whose funds were captured.
const IntentStatusSucceeded = "succeeded"

// PaymentIntent is an authorization hold on the mentee's payment method.
type PaymentIntent struct {
	ID           string
	Status       string
	ClientSecret string
	Amount       int64
	Currency     string
	ChargeID     string
}

// CapturedPayment is the settled charge created by capturing an intent.
type CapturedPayment struct {
	IntentID string
	ChargeID string
	Amount   int64
}

type Refund struct {
	ID       string
	IntentID string
	Amount   int64
	Status   string
}

type Transfer struct {
	ID          string
	Amount      int64
	Currency    string
	Destination string
}

type ConnectedAccount struct {
	AccountID     string
	OnboardingURL string
}

type BalanceAmount struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type Balance struct {
	Available []BalanceAmount `json:"available"`
	Pending   []BalanceAmount `json:"pending"`
}

// AvailableIn sums the available funds in currency.
func (b Balance) AvailableIn(currency string) int64 {
	var total int64
	for _, a := range b.Available {
		if a.Currency == currency {
			total += a.Amount
		}
	}
	return total
}

type Payout struct {
	ID          string `json:"id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
	ArrivalDate int64  `json:"arrival_date"`
}

type AuthorizeRequest struct {
	Amount         int64
	Currency       string
	Metadata       map[string]string
	IdempotencyKey string
}

type TransferRequest struct {
	Amount               int64
	Currency             string
	DestinationAccountID string
	SourceChargeID       string
	Metadata             map[string]string
	IdempotencyKey       string
}

type ConnectedAccountRequest struct {
	MentorID       uuid.UUID
	Email          string
	Country        string
	IdempotencyKey string
}

// Gateway is the payment processor as seen by the rest of the service. All
// failures are *domain.ExternalServiceError.
type Gateway interface {
	Authorize(ctx context.Context, req AuthorizeRequest) (*PaymentIntent, error)
	Capture(ctx context.Context, intentID, idempotencyKey string) (*CapturedPayment, error)
	// Void cancels an uncaptured authorization. Voiding an already cancelled
	// intent succeeds.
	Void(ctx context.Context, intentID, idempotencyKey string) error
	// Refund returns money to the payer. An uncaptured intent is cancelled
	// instead. amount 0 means the full amount.
	Refund(ctx context.Context, intentID string, amount int64, reason, idempotencyKey string) (*Refund, error)
	Transfer(ctx context.Context, req TransferRequest) (*Transfer, error)
	CreateConnectedAccount(ctx context.Context, req ConnectedAccountRequest) (*ConnectedAccount, error)
	CreateOnboardingLink(ctx context.Context, accountID string) (string, error)
	RetrieveBalance(ctx context.Context, accountID string) (*Balance, error)
	CreatePayout(ctx context.Context, accountID string, amount int64, currency, idempotencyKey string) (*Payout, error)
	GetIntent(ctx context.Context, intentID string) (*PaymentIntent, error)
}

const (
	ActionAuthorize = "authorize"
	ActionCapture   = "capture"
	ActionTransfer  = "transfer"
	ActionRefund    = "refund"
	ActionVoid      = "void"
)

// IdempotencyKey derives the processor idempotency key for one action on a
// session. Retries of the same action reuse the same key.
func IdempotencyKey(sessionID uuid.UUID, action string) string {
	return fmt.Sprintf("session-%s-%s", sessionID, action)
}

func PayoutKey(mentorID uuid.UUID, requestKey string) string {
	return fmt.Sprintf("mentor-%s-payout-%s", mentorID, requestKey)
}

func ConnectedAccountKey(mentorID uuid.UUID) string {
	return fmt.Sprintf("mentor-%s-connect", mentorID)
}

// SplitFee computes the platform fee with floor division on minor units.
// feeBps is in basis points.
func SplitFee(amount, feeBps int64) (fee, transfer int64) {
	fee = amount * feeBps / 10000
	return fee, amount - fee
}
