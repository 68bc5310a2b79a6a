package docstore

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/anjiri1684/mentor_marketplace/domain"
	"github.com/anjiri1684/mentor_marketplace/models"
	"github.com/google/uuid"
)

type memoryStore struct {
	docs map[string]map[string]any
}

func newMemoryStore() *memoryStore {
	return &memoryStore{docs: map[string]map[string]any{}}
}

func (s *memoryStore) GetDocument(_ context.Context, collection, id string, dest any) error {
	doc, ok := s.docs[collection+"/"+id]
	if !ok {
		return domain.NotFoundError{Resource: collection}
	}
	return decode(doc, dest)
}

func (s *memoryStore) FindOne(_ context.Context, collection, field string, value any, dest any) (string, error) {
	prefix := collection + "/"
	for key, doc := range s.docs {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix && doc[field] == value {
			return key[len(prefix):], decode(doc, dest)
		}
	}
	return "", domain.NotFoundError{Resource: collection}
}

func (s *memoryStore) MergeDocument(_ context.Context, collection, id string, data map[string]any) error {
	key := collection + "/" + id
	doc, ok := s.docs[key]
	if !ok {
		doc = map[string]any{}
		s.docs[key] = doc
	}
	for k, v := range data {
		doc[k] = v
	}
	return nil
}

func (s *memoryStore) DeleteDocument(_ context.Context, collection, id string) error {
	delete(s.docs, collection+"/"+id)
	return nil
}

func decode(doc map[string]any, dest any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func TestAccountMissingUntilSaved(t *testing.T) {
	store := newMemoryStore()
	mentorID := uuid.New()
	store.docs["mentors/"+mentorID.String()] = map[string]any{"email": "m@example.com", "country": "KE"}
	accounts := NewMentorAccounts(store)
	ctx := context.Background()

	if _, err := accounts.Account(ctx, mentorID); !domain.IsNotFound(err) {
		t.Fatalf("expected not found before onboarding, got %v", err)
	}

	err := accounts.SaveAccount(ctx, &models.MentorPayoutAccount{
		MentorID:          mentorID,
		ExternalAccountID: "acct_123",
		OnboardingStatus:  models.OnboardingPending,
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	account, err := accounts.Account(ctx, mentorID)
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	if account.ExternalAccountID != "acct_123" || account.OnboardingStatus != models.OnboardingPending {
		t.Fatalf("unexpected account %+v", account)
	}

	profile, err := accounts.Profile(ctx, mentorID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.Email != "m@example.com" || profile.Country != "KE" {
		t.Fatalf("merge dropped profile fields: %+v", profile)
	}
}

func TestFindByExternalAccount(t *testing.T) {
	store := newMemoryStore()
	mentorID := uuid.New()
	store.docs["mentors/"+mentorID.String()] = map[string]any{
		"stripe_account_id": "acct_987",
		"onboarding_status": models.OnboardingSubmitted,
	}
	accounts := NewMentorAccounts(store)

	account, err := accounts.FindByExternalAccount(context.Background(), "acct_987")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if account.MentorID != mentorID {
		t.Fatalf("mentor id = %s, want %s", account.MentorID, mentorID)
	}

	if _, err := accounts.FindByExternalAccount(context.Background(), "acct_missing"); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestProfileUnknownMentor(t *testing.T) {
	accounts := NewMentorAccounts(newMemoryStore())
	_, err := accounts.Profile(context.Background(), uuid.New())
	if !domain.IsNotFound(err) || err.Error() != "mentor not found" {
		t.Fatalf("expected mentor not found, got %v", err)
	}
}
