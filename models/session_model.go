package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	SessionStatusScheduled = "scheduled"
	SessionStatusCompleted = "completed"
	SessionStatusCancelled = "cancelled"
)

const (
	SessionPaymentPending   = "pending"
	SessionPaymentCompleted = "completed"
	SessionPaymentRefunded  = "refunded"
	SessionPaymentVoided    = "voided"
)

type Session struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	MentorID      uuid.UUID `gorm:"type:uuid;not null;index" json:"mentor_id"`
	MenteeID      uuid.UUID `gorm:"type:uuid;not null;index" json:"mentee_id"`
	SlotID        uuid.UUID `gorm:"type:uuid;not null;index" json:"slot_id"`
	Date          string    `gorm:"size:10;not null" json:"date"`
	StartTime     string    `gorm:"size:5;not null" json:"start_time"`
	EndTime       string    `gorm:"size:5;not null" json:"end_time"`
	Status        string    `gorm:"size:20;not null" json:"status"`
	PaymentStatus string    `gorm:"size:20;not null" json:"payment_status"`
	PaymentAmount int64     `gorm:"not null" json:"payment_amount"`
	Currency      string    `gorm:"size:3;not null" json:"currency"`
	Notes         *string   `gorm:"type:text" json:"notes,omitempty"`
	MeetingLink   *string   `gorm:"size:255" json:"meeting_link,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Session) IsTerminal() bool {
	return s.Status == SessionStatusCompleted || s.Status == SessionStatusCancelled
}

// IsParty reports whether userID is the mentor or the mentee of the session.
func (s *Session) IsParty(userID uuid.UUID) bool {
	return s.MentorID == userID || s.MenteeID == userID
}
