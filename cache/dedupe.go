package cache

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	eventInFlightTTL = 5 * time.Minute
	eventSeenTTL     = 72 * time.Hour
)

// EventDeduper remembers processed webhook event ids so redeliveries are
// acknowledged without reapplying them. A claim only lives for
// eventInFlightTTL until it is confirmed, so a crash mid-processing does not
// swallow the event.
type EventDeduper struct {
	client *redis.Client
}

func NewEventDeduper(rc *RedisCache) *EventDeduper {
	return &EventDeduper{client: rc.Client()}
}

func eventKey(eventID string) string {
	return "webhook:event:" + eventID
}

// Claim marks eventID as in flight and reports whether no other delivery
// holds or has completed it.
func (d *EventDeduper) Claim(ctx context.Context, eventID string) (bool, error) {
	return d.client.SetNX(ctx, eventKey(eventID), "processing", eventInFlightTTL).Result()
}

// Confirm records eventID as processed for eventSeenTTL.
func (d *EventDeduper) Confirm(ctx context.Context, eventID string) {
	processedAt := time.Now().UTC().Format(time.RFC3339)
	if err := d.client.Set(ctx, eventKey(eventID), processedAt, eventSeenTTL).Err(); err != nil {
		log.Printf("failed to confirm webhook marker %s: %v", eventID, err)
	}
}

// Forget drops the claim after a failed attempt so the processor's retry is
// handled again.
func (d *EventDeduper) Forget(ctx context.Context, eventID string) {
	if err := d.client.Del(ctx, eventKey(eventID)).Err(); err != nil {
		log.Printf("failed to clear webhook marker %s: %v", eventID, err)
	}
}
