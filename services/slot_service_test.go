package services

import (
	"context"
	"errors"
	"testing"

	"github.com/anjiri1684/mentor_marketplace/domain"
)

func TestCreateSlotValidation(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	tests := []struct {
		name  string
		input CreateSlotInput
		want  error
	}{
		{"end before start", CreateSlotInput{Date: "2026-11-02", StartTime: "10:00", EndTime: "09:00"}, domain.ErrInvalidRange},
		{"zero length", CreateSlotInput{Date: "2026-11-02", StartTime: "10:00", EndTime: "10:00"}, domain.ErrInvalidRange},
		{"past date", CreateSlotInput{Date: "2026-10-18", StartTime: "10:00", EndTime: "11:00"}, domain.ErrPastDate},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.input.MentorID = h.mentor.ID
			_, err := h.slots.CreateSlot(ctx, h.mentor, tc.input)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateSlotToday(t *testing.T) {
	h := newHarness()
	slot, err := h.slots.CreateSlot(context.Background(), h.mentor, CreateSlotInput{
		MentorID: h.mentor.ID, Date: "2026-10-19", StartTime: "9:30", EndTime: "10:30",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if slot.StartTime != "09:30" || slot.IsBooked {
		t.Fatalf("unexpected slot %+v", slot)
	}
}

func TestCreateSlotOverlap(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.slot("2026-11-02", "10:00", "11:00")

	_, err := h.slots.CreateSlot(ctx, h.mentor, CreateSlotInput{
		MentorID: h.mentor.ID, Date: "2026-11-02", StartTime: "10:30", EndTime: "11:30",
	})
	if !errors.Is(err, domain.ErrOverlap) {
		t.Fatalf("expected overlap, got %v", err)
	}

	// Touching intervals do not overlap.
	if _, err := h.slots.CreateSlot(ctx, h.mentor, CreateSlotInput{
		MentorID: h.mentor.ID, Date: "2026-11-02", StartTime: "11:00", EndTime: "12:00",
	}); err != nil {
		t.Fatalf("adjacent slot rejected: %v", err)
	}
}

func TestCreateSlotForAnotherMentor(t *testing.T) {
	h := newHarness()
	_, err := h.slots.CreateSlot(context.Background(), h.mentee, CreateSlotInput{
		MentorID: h.mentor.ID, Date: "2026-11-02", StartTime: "10:00", EndTime: "11:00",
	})
	if !domain.IsAuthorization(err) {
		t.Fatalf("expected authorization error, got %v", err)
	}
}

func TestReserveReleaseRoundTrip(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	slot := h.slot("2026-11-02", "10:00", "11:00")
	before, _ := h.slots.GetSlot(ctx, slot.ID)

	if err := h.slots.ReserveSlot(ctx, slot); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := h.slots.ReserveSlot(ctx, slot); !errors.Is(err, domain.ErrSlotUnavailable) {
		t.Fatalf("second reserve: expected slot unavailable, got %v", err)
	}
	if err := h.slots.ReleaseSlot(ctx, slot); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := h.slots.ReleaseSlot(ctx, slot); err != nil {
		t.Fatalf("release of free slot must be a no-op: %v", err)
	}

	after, _ := h.slots.GetSlot(ctx, slot.ID)
	if *after != *before {
		t.Fatalf("slot changed across round trip: %+v vs %+v", after, before)
	}
}

func TestDeleteSlot(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	booked := h.slot("2026-11-02", "10:00", "11:00")
	free := h.slot("2026-11-02", "12:00", "13:00")
	if err := h.slots.ReserveSlot(ctx, booked); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	if err := h.slots.DeleteSlot(ctx, h.mentor, booked.ID); !errors.Is(err, domain.ErrSlotBooked) {
		t.Fatalf("expected slot booked, got %v", err)
	}
	if err := h.slots.DeleteSlot(ctx, h.mentee, free.ID); !domain.IsAuthorization(err) {
		t.Fatalf("expected authorization error, got %v", err)
	}
	if err := h.slots.DeleteSlot(ctx, h.mentor, free.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := h.slots.GetSlot(ctx, free.ID); !domain.IsNotFound(err) {
		t.Fatalf("expected deleted slot to be gone, got %v", err)
	}
}

func TestCreateRecurringSlotsSkipsConflicts(t *testing.T) {
	h := newHarness()
	// 2026-11-02 is a Monday.
	h.slot("2026-11-09", "10:30", "11:30")

	result, err := h.slots.CreateRecurringSlots(context.Background(), h.mentor, RecurringSlotInput{
		MentorID:  h.mentor.ID,
		RRule:     "FREQ=WEEKLY;BYDAY=MO;COUNT=4",
		StartDate: "2026-11-02",
		StartTime: "10:00",
		EndTime:   "11:00",
	})
	if err != nil {
		t.Fatalf("recurring: %v", err)
	}
	if len(result.Created) != 3 || len(result.Skipped) != 1 {
		t.Fatalf("created %d, skipped %d; want 3, 1", len(result.Created), len(result.Skipped))
	}
	if result.Skipped[0].Date != "2026-11-09" {
		t.Fatalf("unexpected skipped date %s", result.Skipped[0].Date)
	}
}

func TestCreateRecurringSlotsRejectsBadRule(t *testing.T) {
	h := newHarness()
	_, err := h.slots.CreateRecurringSlots(context.Background(), h.mentor, RecurringSlotInput{
		MentorID:  h.mentor.ID,
		RRule:     "FREQ=SOMETIMES",
		StartDate: "2026-11-02",
		StartTime: "10:00",
		EndTime:   "11:00",
	})
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
