package lacework

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/yairfalse/omista/telemetry"
)

// RetryPolicy is the single retry policy shared by every remote call.
// Rate-limited calls wait a fixed cool-down (the platform requires ~60s
// after a 429); other transient errors back off exponentially.
type RetryPolicy struct {
	MaxAttempts     int
	RateLimitWait   time.Duration
	InitialInterval time.Duration
	MaxInterval     time.Duration

	logger *telemetry.Logger
	// sleep is swappable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy returns the policy used in production runs.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:     4,
		RateLimitWait:   60 * time.Second,
		InitialInterval: 1 * time.Second,
		MaxInterval:     30 * time.Second,
		logger:          telemetry.NewLogger("retry"),
		sleep:           sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do runs fn until success, a permanent error, or the attempt budget is
// exhausted.
func (p *RetryPolicy) Do(ctx context.Context, operation string, fn func() error) error {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = p.InitialInterval
	expo.MaxInterval = p.MaxInterval
	expo.MaxElapsedTime = 0
	expo.Reset()

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == p.MaxAttempts {
			break
		}

		wait := expo.NextBackOff()
		if IsRateLimit(lastErr) {
			wait = p.RateLimitWait
		}
		if p.logger != nil {
			p.logger.LogRetry(ctx, operation, attempt, wait, lastErr)
		}
		if err := p.sleep(ctx, wait); err != nil {
			return err
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", operation, p.MaxAttempts, lastErr)
}
