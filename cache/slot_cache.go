package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/anjiri1684/mentor_marketplace/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const slotListTTL = 5 * time.Minute

// SlotListCache holds read-only copies of a mentor's slots for one date.
// Postgres stays authoritative; every slot mutation invalidates the entry.
type SlotListCache struct {
	store *RedisCache
}

func NewSlotListCache(rc *RedisCache) *SlotListCache {
	return &SlotListCache{store: rc}
}

func slotListKey(mentorID uuid.UUID, date string) string {
	return fmt.Sprintf("slots:%s:%s", mentorID, date)
}

func (c *SlotListCache) Get(ctx context.Context, mentorID uuid.UUID, date string) ([]models.AvailabilitySlot, bool) {
	var slots []models.AvailabilitySlot
	if err := c.store.GetJSON(ctx, slotListKey(mentorID, date), &slots); err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("slot cache read failed for mentor %s on %s: %v", mentorID, date, err)
		}
		return nil, false
	}
	return slots, true
}

func (c *SlotListCache) Set(ctx context.Context, mentorID uuid.UUID, date string, slots []models.AvailabilitySlot) {
	if err := c.store.SetJSON(ctx, slotListKey(mentorID, date), slots, slotListTTL); err != nil {
		log.Printf("slot cache write failed for mentor %s on %s: %v", mentorID, date, err)
	}
}

func (c *SlotListCache) Invalidate(ctx context.Context, mentorID uuid.UUID, date string) {
	if err := c.store.Delete(ctx, slotListKey(mentorID, date)); err != nil {
		log.Printf("slot cache invalidate failed for mentor %s on %s: %v", mentorID, date, err)
	}
}
