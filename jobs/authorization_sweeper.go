package jobs

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

const sweepSchedule = "@every 10m"

type authorizationSweeper interface {
	SweepExpiredAuthorizations(ctx context.Context, ttl time.Duration) (int, error)
}

// AuthorizationSweeper voids sessions whose payment authorization has been
// outstanding longer than TTL.
type AuthorizationSweeper struct {
	lifecycle authorizationSweeper
	ttl       time.Duration
	timeout   time.Duration
}

func NewAuthorizationSweeper(lifecycle authorizationSweeper, ttl time.Duration) *AuthorizationSweeper {
	return &AuthorizationSweeper{lifecycle: lifecycle, ttl: ttl, timeout: 5 * time.Minute}
}

func (s *AuthorizationSweeper) Run() {
	log.Println("Running job: AuthorizationSweeper...")

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	voided, err := s.lifecycle.SweepExpiredAuthorizations(ctx, s.ttl)
	if err != nil {
		log.Printf("Error sweeping expired authorizations: %v", err)
		return
	}
	if voided == 0 {
		log.Println("No expired authorizations found.")
		return
	}
	log.Printf("Voided %d session(s) with expired authorizations.", voided)
}

// Schedule adds the sweeper to c. A zero TTL disables it.
func Schedule(c *cron.Cron, sweeper *AuthorizationSweeper) (bool, error) {
	if sweeper == nil || sweeper.ttl <= 0 {
		return false, nil
	}
	if _, err := c.AddJob(sweepSchedule, sweeper); err != nil {
		return false, err
	}
	return true, nil
}
