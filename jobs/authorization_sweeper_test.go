package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
)

type stubSweep struct {
	calls int
	ttl   time.Duration
	err   error
}

func (s *stubSweep) SweepExpiredAuthorizations(_ context.Context, ttl time.Duration) (int, error) {
	s.calls++
	s.ttl = ttl
	return 2, s.err
}

func TestRunPassesTTL(t *testing.T) {
	stub := &stubSweep{}
	NewAuthorizationSweeper(stub, 6*24*time.Hour).Run()
	if stub.calls != 1 || stub.ttl != 6*24*time.Hour {
		t.Fatalf("calls = %d, ttl = %s", stub.calls, stub.ttl)
	}
}

func TestRunSurvivesError(t *testing.T) {
	stub := &stubSweep{err: errors.New("db down")}
	NewAuthorizationSweeper(stub, time.Hour).Run()
	if stub.calls != 1 {
		t.Fatalf("calls = %d", stub.calls)
	}
}

func TestScheduleSkipsZeroTTL(t *testing.T) {
	c := cron.New()
	scheduled, err := Schedule(c, NewAuthorizationSweeper(&stubSweep{}, 0))
	if err != nil || scheduled {
		t.Fatalf("scheduled = %v, err = %v", scheduled, err)
	}
	if len(c.Entries()) != 0 {
		t.Fatalf("entries = %d", len(c.Entries()))
	}
}

func TestScheduleAddsEntry(t *testing.T) {
	c := cron.New()
	scheduled, err := Schedule(c, NewAuthorizationSweeper(&stubSweep{}, time.Hour))
	if err != nil || !scheduled {
		t.Fatalf("scheduled = %v, err = %v", scheduled, err)
	}
	if len(c.Entries()) != 1 {
		t.Fatalf("entries = %d", len(c.Entries()))
	}
}
