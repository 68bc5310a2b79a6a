package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/anjiri1684/mentor_marketplace/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	lockTTL       = 30 * time.Second
	lockRetry     = 50 * time.Millisecond
	lockMaxWait   = 15 * time.Second
	lockKeyPrefix = "lock:session:"
)

// releaseScript deletes the lock only if it still holds our token, so an
// expired holder cannot remove a lock taken over by someone else.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var errLockBusy = domain.ConflictError{Resource: "session", Msg: "session is being updated, try again"}

// lockFailure reports a wait that ran out mid-call as busy rather than as a
// Redis failure.
func lockFailure(waitCtx context.Context, err error) error {
	if waitCtx.Err() != nil {
		return errLockBusy
	}
	return fmt.Errorf("acquire session lock: %w", err)
}

// SessionLocker serializes lifecycle transitions of a single session across
// processes.
type SessionLocker struct {
	client *redis.Client
}

func NewSessionLocker(rc *RedisCache) *SessionLocker {
	return &SessionLocker{client: rc.Client()}
}

// Lock blocks until the session lock is held or the wait runs out. The
// returned function releases it.
func (l *SessionLocker) Lock(ctx context.Context, sessionID uuid.UUID) (func(), error) {
	key := lockKeyPrefix + sessionID.String()
	token := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, lockMaxWait)
	defer cancel()

	for {
		ok, err := l.client.SetNX(ctx, key, token, lockTTL).Result()
		if err != nil {
			return nil, lockFailure(ctx, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errLockBusy
		case <-time.After(lockRetry):
		}
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			log.Printf("failed to release lock for session %s: %v", sessionID, err)
		}
	}, nil
}
