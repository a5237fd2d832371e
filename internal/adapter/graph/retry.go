package graph

import (
	"context"
	"time"
)

// RetryPolicy is a pure description of a bounded retry loop: how many
// attempts, how long to wait between them, and which errors are worth
// another try. Sleep is injectable so tests run with a fake clock.
type RetryPolicy struct {
	MaxAttempts int
	Delay       func(attempt int) time.Duration
	Retryable   func(error) bool
	Sleep       func(time.Duration)
}

// DefaultRetryPolicy retries transient platform errors with a fixed delay.
func DefaultRetryPolicy(maxAttempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		Delay:       func(int) time.Duration { return 2 * time.Second },
		Retryable:   IsTransient,
		Sleep:       time.Sleep,
	}
}

// Do runs op until it succeeds, fails non-retryably, or attempts are
// exhausted. The last error is returned as-is.
func (p RetryPolicy) Do(ctx context.Context, op func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		if err = op(); err == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(err) {
			return err
		}
		if attempt < attempts && p.Delay != nil {
			sleep := p.Sleep
			if sleep == nil {
				sleep = time.Sleep
			}
			sleep(p.Delay(attempt))
		}
	}
	return err
}
