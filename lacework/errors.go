package lacework

import (
	"errors"
	"fmt"
	"net"
	"net/http"
)

// APIError is a non-2xx response from the platform API.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("platform API error %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("platform API error %d: %s", e.StatusCode, e.Status)
}

// IsRateLimit reports whether err is the platform's 429 rate-limit
// response. Rate limits always get the fixed cool-down retry, never
// treated as fatal until the retry budget is spent.
func IsRateLimit(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}

// IsRetryable classifies errors per the retry taxonomy: rate limits and
// transient failures (5xx, timeouts, connection resets) are retried;
// other client errors are permanent.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}
