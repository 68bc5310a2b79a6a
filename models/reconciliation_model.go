package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	ReconcileKindWebhook               = "webhook"
	ReconcileKindOrphanedAuthorization = "orphaned_authorization"
	ReconcileKindExpiredAuthorization  = "expired_authorization"
)

// ReconciliationRecord is an append-only log of corrections applied to local
// payment state, and of authorizations that need manual follow-up.
type ReconciliationRecord struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Kind             string          `gorm:"size:40;not null;index" json:"kind"`
	EventID          *string         `gorm:"size:255" json:"event_id,omitempty"`
	EventType        *string         `gorm:"size:100" json:"event_type,omitempty"`
	SessionID        *uuid.UUID      `gorm:"type:uuid" json:"session_id,omitempty"`
	PaymentID        *uuid.UUID      `gorm:"type:uuid" json:"payment_id,omitempty"`
	ExternalIntentID string          `gorm:"size:255" json:"external_intent_id"`
	FromStatus       string          `gorm:"size:20" json:"from_status"`
	ToStatus         string          `gorm:"size:20" json:"to_status"`
	Note             string          `gorm:"type:text" json:"note"`
	Payload          json.RawMessage `gorm:"type:jsonb" json:"payload,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
