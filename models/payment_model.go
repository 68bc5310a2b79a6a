package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	PaymentStatusAuthorized = "authorized"
	PaymentStatusCompleted  = "completed"
	PaymentStatusRefunded   = "refunded"
	PaymentStatusVoided     = "voided"
)

// Payment is created at authorization time and never deleted. At most one
// non-voided payment exists per session (partial unique index).
type Payment struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SessionID        uuid.UUID `gorm:"type:uuid;not null;index" json:"session_id"`
	MentorID         uuid.UUID `gorm:"type:uuid;not null" json:"mentor_id"`
	MenteeID         uuid.UUID `gorm:"type:uuid;not null" json:"mentee_id"`
	Amount           int64     `gorm:"not null" json:"amount"`
	Currency         string    `gorm:"size:3;not null" json:"currency"`
	Status           string    `gorm:"size:20;not null" json:"status"`
	ExternalIntentID string    `gorm:"size:255;not null;index" json:"external_intent_id"`
	TransferID       *string   `gorm:"size:255" json:"transfer_id,omitempty"`
	PlatformFee      int64     `gorm:"not null" json:"platform_fee"`
	TransactionID    *string   `gorm:"size:255" json:"transaction_id,omitempty"`
	RefundID         *string   `gorm:"size:255" json:"refund_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
