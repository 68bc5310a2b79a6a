package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/anjiri1684/mentor_marketplace/domain"
	"github.com/anjiri1684/mentor_marketplace/models"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"

	recurrenceWindowDays = 180
	maxRecurrences       = 100
)

type slotStore interface {
	CreateChecked(ctx context.Context, slot *models.AvailabilitySlot, check func([]models.AvailabilitySlot) error) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.AvailabilitySlot, error)
	ListByMentorDate(ctx context.Context, mentorID uuid.UUID, date string) ([]models.AvailabilitySlot, error)
	DeleteIfUnbooked(ctx context.Context, id uuid.UUID) (bool, error)
	Reserve(ctx context.Context, id uuid.UUID) (bool, error)
	Release(ctx context.Context, id uuid.UUID) error
}

type slotCache interface {
	Get(ctx context.Context, mentorID uuid.UUID, date string) ([]models.AvailabilitySlot, bool)
	Set(ctx context.Context, mentorID uuid.UUID, date string, slots []models.AvailabilitySlot)
	Invalidate(ctx context.Context, mentorID uuid.UUID, date string)
}

type SlotAllocator struct {
	slots slotStore
	cache slotCache
	loc   *time.Location
	now   func() time.Time
}

func NewSlotAllocator(slots slotStore, cache slotCache, loc *time.Location) *SlotAllocator {
	if loc == nil {
		loc = time.UTC
	}
	return &SlotAllocator{slots: slots, cache: cache, loc: loc, now: time.Now}
}

type CreateSlotInput struct {
	MentorID  uuid.UUID
	Date      string
	StartTime string
	EndTime   string
}

type RecurringSlotInput struct {
	MentorID  uuid.UUID
	RRule     string
	StartDate string
	StartTime string
	EndTime   string
}

type SkippedOccurrence struct {
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

type RecurringSlotResult struct {
	Created []models.AvailabilitySlot `json:"created"`
	Skipped []SkippedOccurrence       `json:"skipped"`
}

// normalizeTimes validates the slot window and returns canonical HH:MM values.
func normalizeTimes(start, end string) (string, string, error) {
	s, err := time.Parse(timeLayout, start)
	if err != nil {
		return "", "", domain.ValidationError{Field: "start_time", Msg: "must be HH:MM"}
	}
	e, err := time.Parse(timeLayout, end)
	if err != nil {
		return "", "", domain.ValidationError{Field: "end_time", Msg: "must be HH:MM"}
	}
	if !e.After(s) {
		return "", "", domain.ErrInvalidRange
	}
	return s.Format(timeLayout), e.Format(timeLayout), nil
}

func (a *SlotAllocator) today() string {
	return a.now().In(a.loc).Format(dateLayout)
}

func overlapCheck(start, end string) func([]models.AvailabilitySlot) error {
	return func(existing []models.AvailabilitySlot) error {
		for _, slot := range existing {
			if slot.StartTime < end && start < slot.EndTime {
				return domain.ErrOverlap
			}
		}
		return nil
	}
}

func (a *SlotAllocator) CreateSlot(ctx context.Context, actor Actor, input CreateSlotInput) (*models.AvailabilitySlot, error) {
	if err := requireSelf(actor, input.MentorID, "manage this mentor's availability"); err != nil {
		return nil, err
	}
	start, end, err := normalizeTimes(input.StartTime, input.EndTime)
	if err != nil {
		return nil, err
	}
	day, err := time.ParseInLocation(dateLayout, input.Date, a.loc)
	if err != nil {
		return nil, domain.ValidationError{Field: "date", Msg: "must be YYYY-MM-DD"}
	}
	return a.create(ctx, input.MentorID, day.Format(dateLayout), start, end)
}

func (a *SlotAllocator) create(ctx context.Context, mentorID uuid.UUID, date, start, end string) (*models.AvailabilitySlot, error) {
	if date < a.today() {
		return nil, domain.ErrPastDate
	}

	slot := &models.AvailabilitySlot{
		ID:        uuid.New(),
		MentorID:  mentorID,
		Date:      date,
		StartTime: start,
		EndTime:   end,
	}
	if err := a.slots.CreateChecked(ctx, slot, overlapCheck(start, end)); err != nil {
		return nil, err
	}
	a.cache.Invalidate(ctx, mentorID, date)
	return slot, nil
}

// CreateRecurringSlots expands an RRULE from StartDate and creates one slot per
// occurrence. Occurrences that are past or overlap are skipped and reported.
func (a *SlotAllocator) CreateRecurringSlots(ctx context.Context, actor Actor, input RecurringSlotInput) (*RecurringSlotResult, error) {
	if err := requireSelf(actor, input.MentorID, "manage this mentor's availability"); err != nil {
		return nil, err
	}
	start, end, err := normalizeTimes(input.StartTime, input.EndTime)
	if err != nil {
		return nil, err
	}
	first, err := time.ParseInLocation(dateLayout, input.StartDate, a.loc)
	if err != nil {
		return nil, domain.ValidationError{Field: "start_date", Msg: "must be YYYY-MM-DD"}
	}

	rule, err := rrule.StrToRRule(strings.TrimPrefix(strings.TrimSpace(input.RRule), "RRULE:"))
	if err != nil {
		return nil, domain.ValidationError{Field: "rrule", Msg: err.Error()}
	}
	rule.DTStart(first)
	occurrences := rule.Between(first, first.AddDate(0, 0, recurrenceWindowDays), true)
	if len(occurrences) > maxRecurrences {
		occurrences = occurrences[:maxRecurrences]
	}

	result := &RecurringSlotResult{
		Created: make([]models.AvailabilitySlot, 0, len(occurrences)),
		Skipped: make([]SkippedOccurrence, 0),
	}
	for _, occ := range occurrences {
		date := occ.In(a.loc).Format(dateLayout)
		slot, err := a.create(ctx, input.MentorID, date, start, end)
		switch {
		case err == nil:
			result.Created = append(result.Created, *slot)
		case domain.IsValidation(err) || domain.IsConflict(err):
			result.Skipped = append(result.Skipped, SkippedOccurrence{Date: date, Reason: err.Error()})
		default:
			return result, fmt.Errorf("create slot on %s: %w", date, err)
		}
	}
	log.Printf("[SLOTS] mentor %s: %d recurring slots created, %d skipped", input.MentorID, len(result.Created), len(result.Skipped))
	return result, nil
}

func (a *SlotAllocator) GetSlot(ctx context.Context, id uuid.UUID) (*models.AvailabilitySlot, error) {
	return a.slots.GetByID(ctx, id)
}

func (a *SlotAllocator) ListSlots(ctx context.Context, mentorID uuid.UUID, date string) ([]models.AvailabilitySlot, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, domain.ValidationError{Field: "date", Msg: "must be YYYY-MM-DD"}
	}
	if slots, ok := a.cache.Get(ctx, mentorID, date); ok {
		return slots, nil
	}
	slots, err := a.slots.ListByMentorDate(ctx, mentorID, date)
	if err != nil {
		return nil, err
	}
	a.cache.Set(ctx, mentorID, date, slots)
	return slots, nil
}

func (a *SlotAllocator) DeleteSlot(ctx context.Context, actor Actor, id uuid.UUID) error {
	slot, err := a.slots.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := requireSelf(actor, slot.MentorID, "delete this slot"); err != nil {
		return err
	}
	if slot.IsBooked {
		return domain.ErrSlotBooked
	}

	deleted, err := a.slots.DeleteIfUnbooked(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		// Booked between the read and the delete.
		return domain.ErrSlotBooked
	}
	a.cache.Invalidate(ctx, slot.MentorID, slot.Date)
	return nil
}

// ReserveSlot marks the slot booked. Exactly one concurrent caller wins; every
// other caller gets domain.ErrSlotUnavailable.
func (a *SlotAllocator) ReserveSlot(ctx context.Context, slot *models.AvailabilitySlot) error {
	won, err := a.slots.Reserve(ctx, slot.ID)
	if err != nil {
		return err
	}
	if !won {
		return domain.ErrSlotUnavailable
	}
	a.cache.Invalidate(ctx, slot.MentorID, slot.Date)
	return nil
}

// ReleaseSlot marks the slot free again. Releasing a free slot is a no-op.
func (a *SlotAllocator) ReleaseSlot(ctx context.Context, slot *models.AvailabilitySlot) error {
	if err := a.slots.Release(ctx, slot.ID); err != nil {
		return err
	}
	a.cache.Invalidate(ctx, slot.MentorID, slot.Date)
	return nil
}
