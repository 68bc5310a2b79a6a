package services

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/anjiri1684/mentor_marketplace/domain"
	"github.com/anjiri1684/mentor_marketplace/models"
	"github.com/anjiri1684/mentor_marketplace/payments"
	"github.com/anjiri1684/mentor_marketplace/utils"
	"github.com/google/uuid"
)

var currencyPattern = regexp.MustCompile(`^[a-z]{3}$`)

type sessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
	TransitionIfCurrent(ctx context.Context, id uuid.UUID, fromStatus, toStatus, toPaymentStatus string) (bool, error)
	ListPendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Session, error)
}

type BookingOrchestrator struct {
	slots          *SlotAllocator
	gateway        payments.Gateway
	sessions       sessionStore
	ledger         *PaymentLedger
	reconciliation reconciliationStore
	events         eventPublisher
	meetingBaseURL string
}

func NewBookingOrchestrator(
	slots *SlotAllocator,
	gateway payments.Gateway,
	sessions sessionStore,
	ledger *PaymentLedger,
	reconciliation reconciliationStore,
	events eventPublisher,
	meetingBaseURL string,
) *BookingOrchestrator {
	if events == nil {
		events = noopPublisher{}
	}
	return &BookingOrchestrator{
		slots:          slots,
		gateway:        gateway,
		sessions:       sessions,
		ledger:         ledger,
		reconciliation: reconciliation,
		events:         events,
		meetingBaseURL: meetingBaseURL,
	}
}

type BookSessionInput struct {
	MentorID uuid.UUID
	MenteeID uuid.UUID
	SlotID   uuid.UUID
	Amount   int64
	Currency string
	Notes    *string
}

type BookingResult struct {
	Session      *models.Session `json:"session"`
	Payment      *models.Payment `json:"payment"`
	ClientSecret string          `json:"client_secret"`
}

// compensations undoes completed booking steps in reverse order.
type compensations []func(ctx context.Context)

func (c compensations) run(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	for i := len(c) - 1; i >= 0; i-- {
		c[i](ctx)
	}
}

// BookSession reserves the slot, authorizes the payment and records the session
// and its payment. When a step fails the earlier steps are undone before the
// error is returned.
func (o *BookingOrchestrator) BookSession(ctx context.Context, actor Actor, input BookSessionInput) (*BookingResult, error) {
	if err := requireSelf(actor, input.MenteeID, "book on behalf of another mentee"); err != nil {
		return nil, err
	}
	input.Currency = strings.ToLower(strings.TrimSpace(input.Currency))
	if input.Amount <= 0 {
		return nil, domain.ValidationError{Field: "amount", Msg: "must be a positive amount in minor units"}
	}
	if !currencyPattern.MatchString(input.Currency) {
		return nil, domain.ValidationError{Field: "currency", Msg: "must be a three-letter ISO code"}
	}
	if input.MenteeID == input.MentorID {
		return nil, domain.ValidationError{Field: "mentor_id", Msg: "cannot book a session with yourself"}
	}

	slot, err := o.slots.GetSlot(ctx, input.SlotID)
	if err != nil {
		return nil, err
	}
	if slot.MentorID != input.MentorID {
		return nil, domain.ValidationError{Field: "slot_id", Msg: "slot does not belong to this mentor"}
	}

	sessionID := uuid.New()
	var undo compensations

	releaseSlot := func(ctx context.Context) {
		if err := o.slots.ReleaseSlot(ctx, slot); err != nil {
			log.Printf("[BOOKING] failed to release slot %s for session %s: %v", slot.ID, sessionID, err)
		}
	}
	if err := o.slots.ReserveSlot(ctx, slot); err != nil {
		return nil, err
	}
	undo = append(undo, releaseSlot)

	var intent *payments.PaymentIntent
	voidAuthorization := func(ctx context.Context) {
		err := o.gateway.Void(ctx, intent.ID, payments.IdempotencyKey(sessionID, payments.ActionVoid))
		if err == nil {
			return
		}
		log.Printf("[BOOKING] ORPHANED AUTHORIZATION intent=%s session=%s: %v", intent.ID, sessionID, err)
		record := &models.ReconciliationRecord{
			ID:               uuid.New(),
			Kind:             models.ReconcileKindOrphanedAuthorization,
			SessionID:        &sessionID,
			ExternalIntentID: intent.ID,
			FromStatus:       models.PaymentStatusAuthorized,
			Note:             fmt.Sprintf("booking rolled back but authorization could not be voided: %v", err),
		}
		if recErr := o.reconciliation.Create(ctx, record); recErr != nil {
			log.Printf("[BOOKING] failed to persist orphaned authorization %s: %v", intent.ID, recErr)
		}
	}
	intent, err = o.gateway.Authorize(ctx, payments.AuthorizeRequest{
		Amount:   input.Amount,
		Currency: input.Currency,
		Metadata: map[string]string{
			"session_id": sessionID.String(),
			"mentor_id":  input.MentorID.String(),
			"mentee_id":  input.MenteeID.String(),
			"slot_id":    slot.ID.String(),
		},
		IdempotencyKey: payments.IdempotencyKey(sessionID, payments.ActionAuthorize),
	})
	if err != nil {
		undo.run(ctx)
		return nil, err
	}
	undo = append(undo, voidAuthorization)

	meetingLink := utils.MeetingLink(o.meetingBaseURL)
	session := &models.Session{
		ID:            sessionID,
		MentorID:      input.MentorID,
		MenteeID:      input.MenteeID,
		SlotID:        slot.ID,
		Date:          slot.Date,
		StartTime:     slot.StartTime,
		EndTime:       slot.EndTime,
		Status:        models.SessionStatusScheduled,
		PaymentStatus: models.SessionPaymentPending,
		PaymentAmount: input.Amount,
		Currency:      input.Currency,
		Notes:         input.Notes,
		MeetingLink:   &meetingLink,
	}
	deleteSession := func(ctx context.Context) {
		if err := o.sessions.Delete(ctx, sessionID); err != nil {
			log.Printf("[BOOKING] failed to delete session %s during rollback: %v", sessionID, err)
		}
	}
	if err := o.sessions.Create(ctx, session); err != nil {
		undo.run(ctx)
		return nil, err
	}
	undo = append(undo, deleteSession)

	payment, err := o.ledger.Create(ctx, CreatePaymentInput{
		SessionID:        sessionID,
		MentorID:         input.MentorID,
		MenteeID:         input.MenteeID,
		Amount:           input.Amount,
		Currency:         input.Currency,
		ExternalIntentID: intent.ID,
	})
	if err != nil {
		undo.run(ctx)
		return nil, err
	}

	log.Printf("[BOOKING] session %s booked on slot %s (intent %s)", sessionID, slot.ID, intent.ID)
	o.events.Publish(models.NewSessionEvent(models.SessionEventBooked, session))

	return &BookingResult{Session: session, Payment: payment, ClientSecret: intent.ClientSecret}, nil
}
