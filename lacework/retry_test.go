package lacework

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolicy() (*RetryPolicy, *[]time.Duration) {
	var waits []time.Duration
	policy := DefaultRetryPolicy()
	policy.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return policy, &waits
}

func TestRetryPolicySucceedsFirstTry(t *testing.T) {
	policy, waits := testPolicy()
	calls := 0

	err := policy.Do(context.Background(), "op", func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *waits)
}

func TestRetryPolicyRateLimitUsesFixedCooldown(t *testing.T) {
	policy, waits := testPolicy()
	calls := 0

	err := policy.Do(context.Background(), "op", func() error {
		calls++
		if calls < 3 {
			return &APIError{StatusCode: http.StatusTooManyRequests}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{60 * time.Second, 60 * time.Second}, *waits)
}

func TestRetryPolicyTransientUsesBackoff(t *testing.T) {
	policy, waits := testPolicy()
	calls := 0

	err := policy.Do(context.Background(), "op", func() error {
		calls++
		if calls == 1 {
			return &APIError{StatusCode: http.StatusBadGateway}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, *waits, 1)
	assert.Less(t, (*waits)[0], 60*time.Second)
}

func TestRetryPolicyPermanentErrorNotRetried(t *testing.T) {
	policy, waits := testPolicy()
	calls := 0
	permanent := &APIError{StatusCode: http.StatusForbidden}

	err := policy.Do(context.Background(), "op", func() error {
		calls++
		return permanent
	})

	assert.ErrorIs(t, err, error(permanent))
	assert.Equal(t, 1, calls)
	assert.Empty(t, *waits)
}

func TestRetryPolicyBudgetExhausted(t *testing.T) {
	policy, _ := testPolicy()
	policy.MaxAttempts = 3
	calls := 0

	err := policy.Do(context.Background(), "op", func() error {
		calls++
		return &APIError{StatusCode: http.StatusServiceUnavailable}
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestRetryPolicyHonorsContextCancellation(t *testing.T) {
	policy := DefaultRetryPolicy()
	policy.sleep = sleepCtx

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := policy.Do(ctx, "op", func() error {
		return &APIError{StatusCode: http.StatusTooManyRequests}
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantRateLimit bool
		wantRetryable bool
	}{
		{"rate limit", &APIError{StatusCode: 429}, true, true},
		{"server error", &APIError{StatusCode: 500}, false, true},
		{"bad gateway", &APIError{StatusCode: 502}, false, true},
		{"unauthorized", &APIError{StatusCode: 401}, false, false},
		{"not found", &APIError{StatusCode: 404}, false, false},
		{"plain error", errors.New("boom"), false, false},
		{"nil", nil, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantRateLimit, IsRateLimit(tt.err))
			assert.Equal(t, tt.wantRetryable, IsRetryable(tt.err))
		})
	}
}
