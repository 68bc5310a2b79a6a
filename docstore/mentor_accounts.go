package docstore

import (
	"context"
	"time"

	"github.com/anjiri1684/mentor_marketplace/domain"
	"github.com/anjiri1684/mentor_marketplace/models"
	"github.com/google/uuid"
)

const mentorsCollection = "mentors"

type mentorDocument struct {
	Email            string `firestore:"email" json:"email"`
	Country          string `firestore:"country" json:"country"`
	StripeAccountID  string `firestore:"stripe_account_id" json:"stripe_account_id"`
	OnboardingStatus string `firestore:"onboarding_status" json:"onboarding_status"`
}

// MentorAccounts reads mentor profiles and stores their connected payout
// account in the mentor's document.
type MentorAccounts struct {
	store Store
}

func NewMentorAccounts(store Store) *MentorAccounts {
	return &MentorAccounts{store: store}
}

func (m *MentorAccounts) load(ctx context.Context, mentorID uuid.UUID) (*mentorDocument, error) {
	var doc mentorDocument
	if err := m.store.GetDocument(ctx, mentorsCollection, mentorID.String(), &doc); err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.NotFoundError{Resource: "mentor"}
		}
		return nil, err
	}
	return &doc, nil
}

func (m *MentorAccounts) Profile(ctx context.Context, mentorID uuid.UUID) (*models.MentorProfile, error) {
	doc, err := m.load(ctx, mentorID)
	if err != nil {
		return nil, err
	}
	return &models.MentorProfile{MentorID: mentorID, Email: doc.Email, Country: doc.Country}, nil
}

// Account returns the mentor's connected account, or NotFoundError when the
// mentor has none yet.
func (m *MentorAccounts) Account(ctx context.Context, mentorID uuid.UUID) (*models.MentorPayoutAccount, error) {
	doc, err := m.load(ctx, mentorID)
	if err != nil {
		return nil, err
	}
	if doc.StripeAccountID == "" {
		return nil, domain.NotFoundError{Resource: "mentor payout account"}
	}
	return &models.MentorPayoutAccount{
		MentorID:          mentorID,
		ExternalAccountID: doc.StripeAccountID,
		OnboardingStatus:  doc.OnboardingStatus,
	}, nil
}

func (m *MentorAccounts) FindByExternalAccount(ctx context.Context, externalAccountID string) (*models.MentorPayoutAccount, error) {
	var doc mentorDocument
	id, err := m.store.FindOne(ctx, mentorsCollection, "stripe_account_id", externalAccountID, &doc)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.NotFoundError{Resource: "mentor payout account"}
		}
		return nil, err
	}
	mentorID, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ValidationError{Field: "mentor_id", Msg: "mentor document id is not a uuid"}
	}
	return &models.MentorPayoutAccount{
		MentorID:          mentorID,
		ExternalAccountID: doc.StripeAccountID,
		OnboardingStatus:  doc.OnboardingStatus,
	}, nil
}

func (m *MentorAccounts) SaveAccount(ctx context.Context, account *models.MentorPayoutAccount) error {
	return m.store.MergeDocument(ctx, mentorsCollection, account.MentorID.String(), map[string]any{
		"stripe_account_id": account.ExternalAccountID,
		"onboarding_status": account.OnboardingStatus,
		"updated_at":        time.Now().UTC(),
	})
}
