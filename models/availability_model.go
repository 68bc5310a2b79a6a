package models

import (
	"time"

	"github.com/google/uuid"
)

// AvailabilitySlot is a bookable interval published by a mentor. Date is a civil
// date (2006-01-02), StartTime and EndTime are wall-clock times (15:04).
// IsBooked is written only by the reserve/release queries.
type AvailabilitySlot struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	MentorID  uuid.UUID `gorm:"type:uuid;not null;index:idx_slots_mentor_date" json:"mentor_id"`
	Date      string    `gorm:"size:10;not null;index:idx_slots_mentor_date" json:"date"`
	StartTime string    `gorm:"size:5;not null" json:"start_time"`
	EndTime   string    `gorm:"size:5;not null" json:"end_time"`
	IsBooked  bool      `gorm:"not null" json:"is_booked"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
