package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/anjiri1684/mentor_marketplace/domain"
	"github.com/anjiri1684/mentor_marketplace/models"
	"github.com/anjiri1684/mentor_marketplace/payments"
	"github.com/google/uuid"
)

type eventDeduper interface {
	Claim(ctx context.Context, eventID string) (bool, error)
	Confirm(ctx context.Context, eventID string)
	Forget(ctx context.Context, eventID string)
}

const (
	OutcomeApplied   = "applied"
	OutcomeNoop      = "noop"
	OutcomeDuplicate = "duplicate"
	OutcomeIgnored   = "ignored"
)

type WebhookOutcome struct {
	EventID string `json:"event_id"`
	Type    string `json:"type"`
	Outcome string `json:"outcome"`
}

// WebhookReconciler brings local payment and session state in line with
// processor events.
type WebhookReconciler struct {
	parser    payments.EventParser
	deduper   eventDeduper
	ledger    *PaymentLedger
	lifecycle *SessionLifecycleManager
	payouts   *PayoutManager
	records   reconciliationStore
}

func NewWebhookReconciler(
	parser payments.EventParser,
	deduper eventDeduper,
	ledger *PaymentLedger,
	lifecycle *SessionLifecycleManager,
	payouts *PayoutManager,
	records reconciliationStore,
) *WebhookReconciler {
	return &WebhookReconciler{
		parser:    parser,
		deduper:   deduper,
		ledger:    ledger,
		lifecycle: lifecycle,
		payouts:   payouts,
		records:   records,
	}
}

// HandleEvent verifies and applies one delivery. Unknown event types and
// events about payments this service does not know are acknowledged.
func (w *WebhookReconciler) HandleEvent(ctx context.Context, payload []byte, signatureHeader string) (*WebhookOutcome, error) {
	event, err := w.parser.Parse(payload, signatureHeader)
	if err != nil {
		return nil, err
	}
	out := &WebhookOutcome{EventID: event.ID, Type: event.Type}

	first, err := w.deduper.Claim(ctx, event.ID)
	if err != nil {
		log.Printf("[WEBHOOK] dedupe unavailable for %s, processing anyway: %v", event.ID, err)
		first = true
	}
	if !first {
		out.Outcome = OutcomeDuplicate
		return out, nil
	}

	outcome, err := w.dispatch(ctx, event)
	if err != nil {
		w.deduper.Forget(ctx, event.ID)
		return nil, err
	}
	w.deduper.Confirm(ctx, event.ID)
	out.Outcome = outcome
	return out, nil
}

func (w *WebhookReconciler) dispatch(ctx context.Context, event *payments.Event) (string, error) {
	switch event.Type {
	case payments.EventIntentSucceeded:
		return w.reconcileIntent(ctx, event, models.PaymentStatusCompleted)
	case payments.EventIntentFailed:
		return w.reconcileIntent(ctx, event, models.PaymentStatusVoided)
	case payments.EventIntentCanceled:
		return w.reconcileIntent(ctx, event, models.PaymentStatusVoided)
	case payments.EventAccountUpdated:
		return w.reconcileAccount(ctx, event)
	default:
		log.Printf("[WEBHOOK] ignoring unhandled event type %s (%s)", event.Type, event.ID)
		return OutcomeIgnored, nil
	}
}

// impliedSatisfied reports whether the local payment already reflects what the
// event implies. A cancelled intent is satisfied by either refund or void.
func impliedSatisfied(eventType, local, implied string) bool {
	if local == implied {
		return true
	}
	return eventType == payments.EventIntentCanceled && local == models.PaymentStatusRefunded
}

func (w *WebhookReconciler) reconcileIntent(ctx context.Context, event *payments.Event, implied string) (string, error) {
	payment, err := w.ledger.GetByIntent(ctx, event.IntentID)
	if err != nil {
		if domain.IsNotFound(err) {
			log.Printf("[WEBHOOK] %s for unknown intent %s, ignoring", event.Type, event.IntentID)
			return OutcomeIgnored, nil
		}
		return "", err
	}
	if impliedSatisfied(event.Type, payment.Status, implied) {
		return OutcomeNoop, nil
	}

	if payment.Status != models.PaymentStatusAuthorized {
		log.Printf("[WEBHOOK] %s reports %s for payment %s but it is already %s",
			event.ID, implied, payment.ID, payment.Status)
		w.record(ctx, event, payment, implied,
			fmt.Sprintf("processor implies %s but local payment is final (%s); needs review", implied, payment.Status))
		return OutcomeNoop, nil
	}

	switch event.Type {
	case payments.EventIntentSucceeded:
		_, err = w.lifecycle.ConfirmCaptured(ctx, payment.SessionID)
	case payments.EventIntentFailed:
		_, err = w.lifecycle.Void(ctx, payment.SessionID, "payment failed", false)
	case payments.EventIntentCanceled:
		_, err = w.lifecycle.Void(ctx, payment.SessionID, "payment intent cancelled by processor", true)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotCaptured) || errors.Is(err, domain.ErrNoPayoutAccount) {
			log.Printf("[WEBHOOK] %s: cannot settle session %s: %v", event.ID, payment.SessionID, err)
			w.record(ctx, event, payment, implied, fmt.Sprintf("%s not applied (%v); needs review", event.Type, err))
			return OutcomeNoop, nil
		}
		if domain.IsTransition(err) {
			log.Printf("[WEBHOOK] %s: session %s already settled: %v", event.ID, payment.SessionID, err)
			return OutcomeNoop, nil
		}
		return "", err
	}

	w.record(ctx, event, payment, implied, "applied from "+event.Type)
	log.Printf("[WEBHOOK] %s: payment %s %s -> %s", event.ID, payment.ID, payment.Status, implied)
	return OutcomeApplied, nil
}

func (w *WebhookReconciler) reconcileAccount(ctx context.Context, event *payments.Event) (string, error) {
	before, after, err := w.payouts.ApplyAccountUpdate(ctx, AccountUpdate{
		ExternalAccountID: event.AccountID,
		DetailsSubmitted:  event.DetailsSubmitted,
		ChargesEnabled:    event.ChargesEnabled,
		PayoutsEnabled:    event.PayoutsEnabled,
	})
	if err != nil {
		if domain.IsNotFound(err) {
			log.Printf("[WEBHOOK] account.updated for unknown account %s, ignoring", event.AccountID)
			return OutcomeIgnored, nil
		}
		return "", err
	}
	if before == after {
		return OutcomeNoop, nil
	}

	w.persist(ctx, &models.ReconciliationRecord{
		ID:         uuid.New(),
		Kind:       models.ReconcileKindWebhook,
		EventID:    strPtr(event.ID),
		EventType:  strPtr(event.Type),
		FromStatus: before,
		ToStatus:   after,
		Note:       "onboarding status of " + event.AccountID,
		Payload:    event.Raw,
	})
	return OutcomeApplied, nil
}

func (w *WebhookReconciler) record(ctx context.Context, event *payments.Event, payment *models.Payment, to, note string) {
	sessionID, paymentID := payment.SessionID, payment.ID
	w.persist(ctx, &models.ReconciliationRecord{
		ID:               uuid.New(),
		Kind:             models.ReconcileKindWebhook,
		EventID:          strPtr(event.ID),
		EventType:        strPtr(event.Type),
		SessionID:        &sessionID,
		PaymentID:        &paymentID,
		ExternalIntentID: payment.ExternalIntentID,
		FromStatus:       payment.Status,
		ToStatus:         to,
		Note:             note,
		Payload:          event.Raw,
	})
}

func (w *WebhookReconciler) persist(ctx context.Context, record *models.ReconciliationRecord) {
	if err := w.records.Create(ctx, record); err != nil {
		log.Printf("[WEBHOOK] failed to write %s reconciliation record: %v", record.Kind, err)
	}
}
