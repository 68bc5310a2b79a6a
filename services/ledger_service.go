package services

import (
	"context"
	"fmt"

	"github.com/anjiri1684/mentor_marketplace/domain"
	"github.com/anjiri1684/mentor_marketplace/models"
	"github.com/google/uuid"
)

type paymentStore interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	HasActive(ctx context.Context, sessionID uuid.UUID) (bool, error)
	GetBySession(ctx context.Context, sessionID uuid.UUID) (*models.Payment, error)
	GetByIntentID(ctx context.Context, intentID string) (*models.Payment, error)
	UpdateIfStatus(ctx context.Context, id uuid.UUID, fromStatus string, updates map[string]any) (bool, error)
}

// PaymentLedger records payments. A payment only ever leaves the authorized
// state, and it does so once.
type PaymentLedger struct {
	payments paymentStore
}

func NewPaymentLedger(payments paymentStore) *PaymentLedger {
	return &PaymentLedger{payments: payments}
}

type CreatePaymentInput struct {
	SessionID        uuid.UUID
	MentorID         uuid.UUID
	MenteeID         uuid.UUID
	Amount           int64
	Currency         string
	ExternalIntentID string
}

func (l *PaymentLedger) Create(ctx context.Context, input CreatePaymentInput) (*models.Payment, error) {
	active, err := l.payments.HasActive(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, domain.ErrDuplicatePayment
	}

	payment := &models.Payment{
		ID:               uuid.New(),
		SessionID:        input.SessionID,
		MentorID:         input.MentorID,
		MenteeID:         input.MenteeID,
		Amount:           input.Amount,
		Currency:         input.Currency,
		Status:           models.PaymentStatusAuthorized,
		ExternalIntentID: input.ExternalIntentID,
	}
	if err := l.payments.Create(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

func (l *PaymentLedger) MarkCompleted(ctx context.Context, paymentID uuid.UUID, transferID, transactionID string, platformFee int64) error {
	return l.transition(ctx, paymentID, models.PaymentStatusCompleted, map[string]any{
		"status":         models.PaymentStatusCompleted,
		"transfer_id":    transferID,
		"transaction_id": transactionID,
		"platform_fee":   platformFee,
	})
}

func (l *PaymentLedger) MarkRefunded(ctx context.Context, paymentID uuid.UUID, refundID string) error {
	return l.transition(ctx, paymentID, models.PaymentStatusRefunded, map[string]any{
		"status":    models.PaymentStatusRefunded,
		"refund_id": refundID,
	})
}

func (l *PaymentLedger) MarkVoided(ctx context.Context, paymentID uuid.UUID) error {
	return l.transition(ctx, paymentID, models.PaymentStatusVoided, map[string]any{
		"status": models.PaymentStatusVoided,
	})
}

func (l *PaymentLedger) transition(ctx context.Context, paymentID uuid.UUID, to string, updates map[string]any) error {
	ok, err := l.payments.UpdateIfStatus(ctx, paymentID, models.PaymentStatusAuthorized, updates)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	current, err := l.payments.GetByID(ctx, paymentID)
	if err != nil {
		return err
	}
	return domain.TransitionError{
		Kind: domain.KindInvalidTransition,
		Msg:  fmt.Sprintf("payment %s cannot move from %s to %s", paymentID, current.Status, to),
	}
}

func (l *PaymentLedger) GetBySession(ctx context.Context, sessionID uuid.UUID) (*models.Payment, error) {
	return l.payments.GetBySession(ctx, sessionID)
}

func (l *PaymentLedger) GetByIntent(ctx context.Context, intentID string) (*models.Payment, error) {
	return l.payments.GetByIntentID(ctx, intentID)
}
