package models

import "github.com/google/uuid"

const (
	OnboardingPending   = "pending"
	OnboardingSubmitted = "submitted"
	OnboardingComplete  = "complete"
)

// MentorPayoutAccount lives in the mentor's document in the remote document
// store, not in Postgres.
type MentorPayoutAccount struct {
	MentorID          uuid.UUID `json:"mentor_id"`
	ExternalAccountID string    `json:"external_account_id"`
	OnboardingStatus  string    `json:"onboarding_status"`
}

// MentorProfile is the subset of the mentor document needed to open a
// connected account.
type MentorProfile struct {
	MentorID uuid.UUID `json:"mentor_id"`
	Email    string    `json:"email"`
	Country  string    `json:"country"`
}
