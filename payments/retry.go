package payments

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v76"
)

const (
	readAttempts  = 3
	readBaseDelay = 200 * time.Millisecond
)

// retryRead runs an idempotent read up to attempts times with exponential
// backoff. Client errors other than rate limiting are returned at once.
func retryRead[T any](ctx context.Context, attempts int, base time.Duration, fn func() (T, error)) (T, error) {
	var (
		result T
		err    error
	)
	delay := base
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err = fn()
		if err == nil || !retryable(err) || attempt == attempts {
			return result, err
		}
		select {
		case <-ctx.Done():
			return result, err
		case <-time.After(delay):
		}
		delay *= 2
	}
	return result, err
}

func retryable(err error) bool {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return stripeErr.HTTPStatusCode == http.StatusTooManyRequests ||
			stripeErr.HTTPStatusCode >= http.StatusInternalServerError ||
			stripeErr.HTTPStatusCode == 0
	}
	return true
}
