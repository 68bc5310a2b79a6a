package services

import (
	"context"
	"sync"
	"time"

	"github.com/anjiri1684/mentor_marketplace/domain"
	"github.com/anjiri1684/mentor_marketplace/models"
	"github.com/anjiri1684/mentor_marketplace/payments"
	"github.com/google/uuid"
)

type memSlotStore struct {
	mu    sync.Mutex
	slots map[uuid.UUID]models.AvailabilitySlot
}

func newMemSlotStore() *memSlotStore {
	return &memSlotStore{slots: map[uuid.UUID]models.AvailabilitySlot{}}
}

func (s *memSlotStore) CreateChecked(_ context.Context, slot *models.AvailabilitySlot, check func([]models.AvailabilitySlot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var existing []models.AvailabilitySlot
	for _, other := range s.slots {
		if other.MentorID == slot.MentorID && other.Date == slot.Date {
			existing = append(existing, other)
		}
	}
	if err := check(existing); err != nil {
		return err
	}
	s.slots[slot.ID] = *slot
	return nil
}

func (s *memSlotStore) GetByID(_ context.Context, id uuid.UUID) (*models.AvailabilitySlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[id]
	if !ok {
		return nil, domain.NotFoundError{Resource: "slot"}
	}
	return &slot, nil
}

func (s *memSlotStore) ListByMentorDate(_ context.Context, mentorID uuid.UUID, date string) ([]models.AvailabilitySlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AvailabilitySlot, 0)
	for _, slot := range s.slots {
		if slot.MentorID == mentorID && slot.Date == date {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (s *memSlotStore) DeleteIfUnbooked(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[id]
	if !ok || slot.IsBooked {
		return false, nil
	}
	delete(s.slots, id)
	return true, nil
}

func (s *memSlotStore) Reserve(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[id]
	if !ok || slot.IsBooked {
		return false, nil
	}
	slot.IsBooked = true
	s.slots[id] = slot
	return true, nil
}

func (s *memSlotStore) Release(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slot, ok := s.slots[id]; ok {
		slot.IsBooked = false
		s.slots[id] = slot
	}
	return nil
}

type noopSlotCache struct{}

func (noopSlotCache) Get(context.Context, uuid.UUID, string) ([]models.AvailabilitySlot, bool) {
	return nil, false
}
func (noopSlotCache) Set(context.Context, uuid.UUID, string, []models.AvailabilitySlot) {}
func (noopSlotCache) Invalidate(context.Context, uuid.UUID, string)                     {}

type memSessionStore struct {
	mu        sync.Mutex
	sessions  map[uuid.UUID]models.Session
	createErr error
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: map[uuid.UUID]models.Session{}}
}

func (s *memSessionStore) Create(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	s.sessions[session.ID] = *session
	return nil
}

func (s *memSessionStore) GetByID(_ context.Context, id uuid.UUID) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.NotFoundError{Resource: "session"}
	}
	return &session, nil
}

func (s *memSessionStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *memSessionStore) TransitionIfCurrent(_ context.Context, id uuid.UUID, from, to, toPayment string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok || session.Status != from {
		return false, nil
	}
	session.Status = to
	session.PaymentStatus = toPayment
	s.sessions[id] = session
	return true, nil
}

func (s *memSessionStore) ListPendingCreatedBefore(_ context.Context, cutoff time.Time, limit int) ([]models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Session, 0)
	for _, session := range s.sessions {
		if session.Status == models.SessionStatusScheduled &&
			session.PaymentStatus == models.SessionPaymentPending &&
			session.CreatedAt.Before(cutoff) && len(out) < limit {
			out = append(out, session)
		}
	}
	return out, nil
}

type memPaymentStore struct {
	mu        sync.Mutex
	payments  []models.Payment
	createErr error
}

func (s *memPaymentStore) Create(_ context.Context, payment *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	for _, p := range s.payments {
		if p.SessionID == payment.SessionID && p.Status != models.PaymentStatusVoided {
			return domain.ErrDuplicatePayment
		}
	}
	s.payments = append(s.payments, *payment)
	return nil
}

func (s *memPaymentStore) find(match func(models.Payment) bool) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.payments) - 1; i >= 0; i-- {
		if match(s.payments[i]) {
			p := s.payments[i]
			return &p, nil
		}
	}
	return nil, domain.NotFoundError{Resource: "payment"}
}

func (s *memPaymentStore) GetByID(_ context.Context, id uuid.UUID) (*models.Payment, error) {
	return s.find(func(p models.Payment) bool { return p.ID == id })
}

func (s *memPaymentStore) HasActive(_ context.Context, sessionID uuid.UUID) (bool, error) {
	_, err := s.find(func(p models.Payment) bool {
		return p.SessionID == sessionID && p.Status != models.PaymentStatusVoided
	})
	return err == nil, nil
}

func (s *memPaymentStore) GetBySession(_ context.Context, sessionID uuid.UUID) (*models.Payment, error) {
	return s.find(func(p models.Payment) bool { return p.SessionID == sessionID })
}

func (s *memPaymentStore) GetByIntentID(_ context.Context, intentID string) (*models.Payment, error) {
	return s.find(func(p models.Payment) bool { return p.ExternalIntentID == intentID })
}

func (s *memPaymentStore) UpdateIfStatus(_ context.Context, id uuid.UUID, from string, updates map[string]any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.payments {
		p := &s.payments[i]
		if p.ID != id || p.Status != from {
			continue
		}
		for k, v := range updates {
			switch k {
			case "status":
				p.Status = v.(string)
			case "transfer_id":
				p.TransferID = strPtr(v.(string))
			case "transaction_id":
				p.TransactionID = strPtr(v.(string))
			case "refund_id":
				p.RefundID = strPtr(v.(string))
			case "platform_fee":
				p.PlatformFee = v.(int64)
			}
		}
		return true, nil
	}
	return false, nil
}

type fakeGateway struct {
	mu sync.Mutex

	authorizeErr error
	captureErr   error
	voidErr      error
	balance      payments.Balance
	intentStatus string

	authorizations []payments.AuthorizeRequest
	captures       []string
	voids          []string
	refunds        []int64
	transfers      []payments.TransferRequest
	payouts        []int64
	accounts       int
	keys           map[string]int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{keys: map[string]int{}}
}

func (g *fakeGateway) Authorize(_ context.Context, req payments.AuthorizeRequest) (*payments.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.authorizeErr != nil {
		return nil, g.authorizeErr
	}
	g.authorizations = append(g.authorizations, req)
	g.keys[req.IdempotencyKey]++
	id := "pi_" + req.Metadata["session_id"]
	return &payments.PaymentIntent{
		ID:           id,
		Status:       "requires_capture",
		ClientSecret: id + "_secret",
		Amount:       req.Amount,
		Currency:     req.Currency,
	}, nil
}

func (g *fakeGateway) Capture(_ context.Context, intentID, key string) (*payments.CapturedPayment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.captureErr != nil {
		return nil, g.captureErr
	}
	g.captures = append(g.captures, intentID)
	g.keys[key]++
	return &payments.CapturedPayment{IntentID: intentID, ChargeID: "ch_" + intentID}, nil
}

func (g *fakeGateway) Void(_ context.Context, intentID, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.voidErr != nil {
		return g.voidErr
	}
	g.voids = append(g.voids, intentID)
	g.keys[key]++
	return nil
}

func (g *fakeGateway) Refund(_ context.Context, intentID string, amount int64, _ string, key string) (*payments.Refund, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refunds = append(g.refunds, amount)
	g.keys[key]++
	return &payments.Refund{ID: "re_" + intentID, IntentID: intentID, Amount: amount, Status: "succeeded"}, nil
}

func (g *fakeGateway) Transfer(_ context.Context, req payments.TransferRequest) (*payments.Transfer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.transfers = append(g.transfers, req)
	g.keys[req.IdempotencyKey]++
	return &payments.Transfer{ID: "tr_1", Amount: req.Amount, Currency: req.Currency, Destination: req.DestinationAccountID}, nil
}

func (g *fakeGateway) CreateConnectedAccount(_ context.Context, req payments.ConnectedAccountRequest) (*payments.ConnectedAccount, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.accounts++
	return &payments.ConnectedAccount{AccountID: "acct_" + req.MentorID.String()[:8], OnboardingURL: "https://connect.example/onboard"}, nil
}

func (g *fakeGateway) CreateOnboardingLink(_ context.Context, accountID string) (string, error) {
	return "https://connect.example/" + accountID, nil
}

func (g *fakeGateway) RetrieveBalance(context.Context, string) (*payments.Balance, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	b := g.balance
	return &b, nil
}

func (g *fakeGateway) CreatePayout(_ context.Context, _ string, amount int64, currency, key string) (*payments.Payout, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.payouts = append(g.payouts, amount)
	g.keys[key]++
	return &payments.Payout{ID: "po_1", Amount: amount, Currency: currency, Status: "pending"}, nil
}

func (g *fakeGateway) GetIntent(_ context.Context, intentID string) (*payments.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	status := g.intentStatus
	if status == "" {
		status = payments.IntentStatusSucceeded
	}
	return &payments.PaymentIntent{ID: intentID, Status: status, ChargeID: "ch_" + intentID}, nil
}

type fakeAccounts struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]models.MentorPayoutAccount
	profiles map[uuid.UUID]models.MentorProfile
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{
		accounts: map[uuid.UUID]models.MentorPayoutAccount{},
		profiles: map[uuid.UUID]models.MentorProfile{},
	}
}

func (f *fakeAccounts) Profile(_ context.Context, mentorID uuid.UUID) (*models.MentorProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[mentorID]
	if !ok {
		return nil, domain.NotFoundError{Resource: "mentor"}
	}
	return &p, nil
}

func (f *fakeAccounts) Account(_ context.Context, mentorID uuid.UUID) (*models.MentorPayoutAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[mentorID]
	if !ok {
		return nil, domain.NotFoundError{Resource: "mentor payout account"}
	}
	return &a, nil
}

func (f *fakeAccounts) FindByExternalAccount(_ context.Context, externalID string) (*models.MentorPayoutAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.ExternalAccountID == externalID {
			return &a, nil
		}
	}
	return nil, domain.NotFoundError{Resource: "mentor payout account"}
}

func (f *fakeAccounts) SaveAccount(_ context.Context, account *models.MentorPayoutAccount) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[account.MentorID] = *account
	return nil
}

type memLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newMemLocker() *memLocker {
	return &memLocker{locks: map[uuid.UUID]*sync.Mutex{}}
}

func (l *memLocker) Lock(_ context.Context, id uuid.UUID) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock, nil
}

type memRecords struct {
	mu      sync.Mutex
	records []models.ReconciliationRecord
}

func (r *memRecords) Create(_ context.Context, record *models.ReconciliationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *record)
	return nil
}

func (r *memRecords) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.Kind)
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.SessionEvent
}

func (p *recordingPublisher) Publish(event models.SessionEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

type memDeduper struct {
	mu        sync.Mutex
	seen      map[string]bool
	confirmed map[string]bool
}

func (d *memDeduper) Claim(_ context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen == nil {
		d.seen = map[string]bool{}
	}
	if d.seen[id] {
		return false, nil
	}
	d.seen[id] = true
	return true, nil
}

func (d *memDeduper) Confirm(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.confirmed == nil {
		d.confirmed = map[string]bool{}
	}
	d.confirmed[id] = true
}

func (d *memDeduper) Forget(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, id)
}

type stubParser struct {
	event *payments.Event
	err   error
}

func (p stubParser) Parse([]byte, string) (*payments.Event, error) {
	return p.event, p.err
}

// harness wires every service against in-memory fakes.
type harness struct {
	slotStore *memSlotStore
	sessions  *memSessionStore
	payments  *memPaymentStore
	gateway   *fakeGateway
	accounts  *fakeAccounts
	records   *memRecords
	events    *recordingPublisher

	slots     *SlotAllocator
	ledger    *PaymentLedger
	booking   *BookingOrchestrator
	lifecycle *SessionLifecycleManager
	payouts   *PayoutManager

	mentor Actor
	mentee Actor
}

var testToday = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func newHarness() *harness {
	h := &harness{
		slotStore: newMemSlotStore(),
		sessions:  newMemSessionStore(),
		payments:  &memPaymentStore{},
		gateway:   newFakeGateway(),
		accounts:  newFakeAccounts(),
		records:   &memRecords{},
		events:    &recordingPublisher{},
		mentor:    Actor{ID: uuid.New(), Role: RoleMentor},
		mentee:    Actor{ID: uuid.New(), Role: RoleMentee},
	}
	h.slots = NewSlotAllocator(h.slotStore, noopSlotCache{}, time.UTC)
	h.slots.now = func() time.Time { return testToday }
	h.ledger = NewPaymentLedger(h.payments)
	h.booking = NewBookingOrchestrator(h.slots, h.gateway, h.sessions, h.ledger, h.records, h.events, "https://meet.example.com")
	h.lifecycle = NewSessionLifecycleManager(h.sessions, h.ledger, h.slots, h.gateway, h.accounts,
		newMemLocker(), h.records, h.events, 2000)
	h.payouts = NewPayoutManager(h.accounts, h.gateway)
	h.accounts.accounts[h.mentor.ID] = models.MentorPayoutAccount{
		MentorID:          h.mentor.ID,
		ExternalAccountID: "acct_mentor",
		OnboardingStatus:  models.OnboardingComplete,
	}
	return h
}

func (h *harness) slot(date, start, end string) *models.AvailabilitySlot {
	slot, err := h.slots.CreateSlot(context.Background(), h.mentor, CreateSlotInput{
		MentorID: h.mentor.ID, Date: date, StartTime: start, EndTime: end,
	})
	if err != nil {
		panic(err)
	}
	return slot
}

func (h *harness) book(slot *models.AvailabilitySlot, amount int64) (*BookingResult, error) {
	return h.booking.BookSession(context.Background(), h.mentee, BookSessionInput{
		MentorID: h.mentor.ID,
		MenteeID: h.mentee.ID,
		SlotID:   slot.ID,
		Amount:   amount,
		Currency: "usd",
	})
}
