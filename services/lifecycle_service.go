package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/anjiri1684/mentor_marketplace/domain"
	"github.com/anjiri1684/mentor_marketplace/models"
	"github.com/anjiri1684/mentor_marketplace/payments"
	"github.com/google/uuid"
)

const sweepBatchSize = 100

type sessionLocker interface {
	Lock(ctx context.Context, sessionID uuid.UUID) (func(), error)
}

type payoutAccountStore interface {
	Profile(ctx context.Context, mentorID uuid.UUID) (*models.MentorProfile, error)
	Account(ctx context.Context, mentorID uuid.UUID) (*models.MentorPayoutAccount, error)
	FindByExternalAccount(ctx context.Context, externalAccountID string) (*models.MentorPayoutAccount, error)
	SaveAccount(ctx context.Context, account *models.MentorPayoutAccount) error
}

// SessionLifecycleManager drives sessions out of scheduled/pending. Transitions
// on one session are serialized by a lock and committed by a conditional
// status update.
type SessionLifecycleManager struct {
	sessions       sessionStore
	ledger         *PaymentLedger
	slots          *SlotAllocator
	gateway        payments.Gateway
	accounts       payoutAccountStore
	locker         sessionLocker
	reconciliation reconciliationStore
	events         eventPublisher
	feeBps         int64
	now            func() time.Time
}

func NewSessionLifecycleManager(
	sessions sessionStore,
	ledger *PaymentLedger,
	slots *SlotAllocator,
	gateway payments.Gateway,
	accounts payoutAccountStore,
	locker sessionLocker,
	reconciliation reconciliationStore,
	events eventPublisher,
	feeBps int64,
) *SessionLifecycleManager {
	if events == nil {
		events = noopPublisher{}
	}
	return &SessionLifecycleManager{
		sessions:       sessions,
		ledger:         ledger,
		slots:          slots,
		gateway:        gateway,
		accounts:       accounts,
		locker:         locker,
		reconciliation: reconciliation,
		events:         events,
		feeBps:         feeBps,
		now:            time.Now,
	}
}

func alreadyFinalized(s *models.Session) error {
	return domain.TransitionError{
		Kind: domain.KindAlreadyFinalized,
		Msg:  fmt.Sprintf("session %s is already %s", s.ID, s.Status),
	}
}

func slotOf(s *models.Session) *models.AvailabilitySlot {
	return &models.AvailabilitySlot{ID: s.SlotID, MentorID: s.MentorID, Date: s.Date}
}

func (m *SessionLifecycleManager) GetSession(ctx context.Context, actor Actor, sessionID uuid.UUID) (*models.Session, error) {
	session, err := m.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !actor.privileged() && !session.IsParty(actor.ID) {
		return nil, domain.AuthorizationError{Msg: "not a party to this session"}
	}
	return session, nil
}

// lockScheduled takes the session lock and reloads the session. A session that
// became terminal while we waited means another transition won.
func (m *SessionLifecycleManager) lockScheduled(ctx context.Context, sessionID uuid.UUID) (*models.Session, func(), error) {
	unlock, err := m.locker.Lock(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	session, err := m.sessions.GetByID(ctx, sessionID)
	if err != nil {
		unlock()
		return nil, nil, err
	}
	if session.IsTerminal() {
		unlock()
		return nil, nil, alreadyFinalized(session)
	}
	return session, unlock, nil
}

// Complete captures the payment, keeps the platform fee and transfers the rest
// to the mentor's connected account.
func (m *SessionLifecycleManager) Complete(ctx context.Context, actor Actor, sessionID uuid.UUID) (*models.Session, error) {
	session, err := m.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if actor.Role != RoleSystem && actor.ID != session.MentorID {
		return nil, domain.AuthorizationError{Msg: "only the mentor can complete this session"}
	}
	if session.IsTerminal() {
		return nil, alreadyFinalized(session)
	}

	session, unlock, err := m.lockScheduled(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return m.finishCompletion(ctx, session, false)
}

// ConfirmCaptured finishes completion for a session whose payment the processor
// reports as already captured.
func (m *SessionLifecycleManager) ConfirmCaptured(ctx context.Context, sessionID uuid.UUID) (*models.Session, error) {
	session, unlock, err := m.lockScheduled(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return m.finishCompletion(ctx, session, true)
}

func (m *SessionLifecycleManager) finishCompletion(ctx context.Context, session *models.Session, captured bool) (*models.Session, error) {
	account, err := m.accounts.Account(ctx, session.MentorID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.ErrNoPayoutAccount
		}
		return nil, err
	}

	payment, err := m.ledger.GetBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if payment.Status != models.PaymentStatusAuthorized {
		return nil, domain.TransitionError{
			Kind: domain.KindInvalidTransition,
			Msg:  fmt.Sprintf("payment %s is %s and cannot be captured", payment.ID, payment.Status),
		}
	}

	var chargeID string
	if captured {
		intent, err := m.gateway.GetIntent(ctx, payment.ExternalIntentID)
		if err != nil {
			return nil, err
		}
		if intent.Status != payments.IntentStatusSucceeded {
			return nil, fmt.Errorf("intent %s is %s: %w", intent.ID, intent.Status, domain.ErrNotCaptured)
		}
		chargeID = intent.ChargeID
	} else {
		capture, err := m.gateway.Capture(ctx, payment.ExternalIntentID, payments.IdempotencyKey(session.ID, payments.ActionCapture))
		if err != nil {
			return nil, err
		}
		chargeID = capture.ChargeID
	}

	fee, transferAmount := payments.SplitFee(payment.Amount, m.feeBps)
	transfer, err := m.gateway.Transfer(ctx, payments.TransferRequest{
		Amount:               transferAmount,
		Currency:             payment.Currency,
		DestinationAccountID: account.ExternalAccountID,
		SourceChargeID:       chargeID,
		Metadata:             map[string]string{"session_id": session.ID.String()},
		IdempotencyKey:       payments.IdempotencyKey(session.ID, payments.ActionTransfer),
	})
	if err != nil {
		return nil, err
	}

	moved, err := m.sessions.TransitionIfCurrent(ctx, session.ID,
		models.SessionStatusScheduled, models.SessionStatusCompleted, models.SessionPaymentCompleted)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, m.reloadFinalized(ctx, session.ID)
	}
	if err := m.ledger.MarkCompleted(ctx, payment.ID, transfer.ID, chargeID, fee); err != nil {
		return nil, err
	}

	session.Status = models.SessionStatusCompleted
	session.PaymentStatus = models.SessionPaymentCompleted
	log.Printf("[LIFECYCLE] session %s completed: captured %d, fee %d, transferred %d (%s)",
		session.ID, payment.Amount, fee, transferAmount, transfer.ID)
	m.events.Publish(models.NewSessionEvent(models.SessionEventCompleted, session))
	return session, nil
}

// Cancel refunds the full amount and frees the slot. A completed session can
// not be cancelled here.
func (m *SessionLifecycleManager) Cancel(ctx context.Context, actor Actor, sessionID uuid.UUID, reason string) (*models.Session, error) {
	session, err := m.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !actor.privileged() && !session.IsParty(actor.ID) {
		return nil, domain.AuthorizationError{Msg: "not a party to this session"}
	}
	switch session.Status {
	case models.SessionStatusCompleted:
		return nil, domain.TransitionError{
			Kind: domain.KindInvalidTransition,
			Msg:  fmt.Sprintf("session %s is completed and cannot be cancelled", session.ID),
		}
	case models.SessionStatusCancelled:
		return nil, alreadyFinalized(session)
	}

	session, unlock, err := m.lockScheduled(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	payment, err := m.ledger.GetBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if payment.Status != models.PaymentStatusAuthorized {
		return nil, domain.TransitionError{
			Kind: domain.KindInvalidTransition,
			Msg:  fmt.Sprintf("payment %s is %s and cannot be refunded", payment.ID, payment.Status),
		}
	}

	refund, err := m.gateway.Refund(ctx, payment.ExternalIntentID, session.PaymentAmount, reason,
		payments.IdempotencyKey(session.ID, payments.ActionRefund))
	if err != nil {
		return nil, err
	}
	if err := m.slots.ReleaseSlot(ctx, slotOf(session)); err != nil {
		return nil, err
	}

	moved, err := m.sessions.TransitionIfCurrent(ctx, session.ID,
		models.SessionStatusScheduled, models.SessionStatusCancelled, models.SessionPaymentRefunded)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, m.reloadFinalized(ctx, session.ID)
	}
	if err := m.ledger.MarkRefunded(ctx, payment.ID, refund.ID); err != nil {
		return nil, err
	}

	session.Status = models.SessionStatusCancelled
	session.PaymentStatus = models.SessionPaymentRefunded
	log.Printf("[LIFECYCLE] session %s cancelled, refunded %d (%s)", session.ID, refund.Amount, refund.ID)
	m.events.Publish(models.NewSessionEvent(models.SessionEventCancelled, session))
	return session, nil
}

// Void drops an authorization that will never be captured and frees the slot.
// processorCancelled skips the processor call when the intent is already gone.
func (m *SessionLifecycleManager) Void(ctx context.Context, sessionID uuid.UUID, reason string, processorCancelled bool) (*models.Session, error) {
	session, unlock, err := m.lockScheduled(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	payment, err := m.ledger.GetBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if !processorCancelled {
		if err := m.gateway.Void(ctx, payment.ExternalIntentID, payments.IdempotencyKey(session.ID, payments.ActionVoid)); err != nil {
			return nil, err
		}
	}
	if err := m.slots.ReleaseSlot(ctx, slotOf(session)); err != nil {
		return nil, err
	}

	moved, err := m.sessions.TransitionIfCurrent(ctx, session.ID,
		models.SessionStatusScheduled, models.SessionStatusCancelled, models.SessionPaymentVoided)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, m.reloadFinalized(ctx, session.ID)
	}
	if err := m.ledger.MarkVoided(ctx, payment.ID); err != nil {
		return nil, err
	}

	session.Status = models.SessionStatusCancelled
	session.PaymentStatus = models.SessionPaymentVoided
	log.Printf("[LIFECYCLE] session %s voided: %s", session.ID, reason)
	m.events.Publish(models.NewSessionEvent(models.SessionEventVoided, session))
	return session, nil
}

// SweepExpiredAuthorizations voids sessions whose authorization has been held
// longer than ttl without capture.
func (m *SessionLifecycleManager) SweepExpiredAuthorizations(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := m.now().Add(-ttl)
	expired, err := m.sessions.ListPendingCreatedBefore(ctx, cutoff, sweepBatchSize)
	if err != nil {
		return 0, err
	}

	voided := 0
	for i := range expired {
		session := &expired[i]
		if _, err := m.Void(ctx, session.ID, "authorization expired", false); err != nil {
			if !domain.IsTransition(err) {
				log.Printf("[SWEEP] failed to void session %s: %v", session.ID, err)
			}
			continue
		}
		voided++

		sessionID := session.ID
		record := &models.ReconciliationRecord{
			ID:         uuid.New(),
			Kind:       models.ReconcileKindExpiredAuthorization,
			SessionID:  &sessionID,
			FromStatus: models.PaymentStatusAuthorized,
			ToStatus:   models.PaymentStatusVoided,
			Note:       fmt.Sprintf("authorization older than %s voided", ttl),
		}
		if err := m.reconciliation.Create(ctx, record); err != nil {
			log.Printf("[SWEEP] failed to record expiry of session %s: %v", session.ID, err)
		}
	}
	return voided, nil
}

func (m *SessionLifecycleManager) reloadFinalized(ctx context.Context, sessionID uuid.UUID) error {
	current, err := m.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	return alreadyFinalized(current)
}
