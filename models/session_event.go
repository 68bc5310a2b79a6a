package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	SessionEventBooked    = "session.booked"
	SessionEventCompleted = "session.completed"
	SessionEventCancelled = "session.cancelled"
	SessionEventVoided    = "session.voided"
)

// SessionEvent is pushed to the mentor and mentee of a session after each
// committed transition.
type SessionEvent struct {
	Type          string    `json:"type"`
	SessionID     uuid.UUID `json:"session_id"`
	MentorID      uuid.UUID `json:"mentor_id"`
	MenteeID      uuid.UUID `json:"mentee_id"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func NewSessionEvent(eventType string, s *Session) SessionEvent {
	return SessionEvent{
		Type:          eventType,
		SessionID:     s.ID,
		MentorID:      s.MentorID,
		MenteeID:      s.MenteeID,
		Status:        s.Status,
		PaymentStatus: s.PaymentStatus,
		OccurredAt:    time.Now().UTC(),
	}
}
