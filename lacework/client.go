// Package lacework is a minimal HTTP client for the Lacework platform
// API: token exchange, inventory search with pagination cursors, cloud
// account listing, and compliance report retrieval.
package lacework

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/yairfalse/omista/telemetry"
)

// Credentials come from a platform API-key JSON file.
type Credentials struct {
	Account    string `json:"account"`
	KeyID      string `json:"keyId"`
	Secret     string `json:"secret"`
	SubAccount string `json:"subAccount,omitempty"`
}

// LoadCredentials reads an API-key file. A malformed or incomplete file
// is a configuration error and fatal to the run.
func LoadCredentials(path string) (Credentials, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to read API key file: %w", err)
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("failed to parse API key file: %w", err)
	}
	if creds.Account == "" || creds.KeyID == "" || creds.Secret == "" {
		return Credentials{}, fmt.Errorf("API key file missing account, keyId, or secret")
	}
	return creds, nil
}

// Client talks to one platform tenant.
type Client struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
	retry      *RetryPolicy
	logger     *telemetry.Logger

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

// NewClient builds a client for the tenant named in the credentials.
func NewClient(creds Credentials, retry *RetryPolicy) *Client {
	host := creds.Account
	if !strings.Contains(host, ".") {
		host += ".lacework.net"
	}
	return &Client{
		baseURL:    "https://" + host,
		creds:      creds,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		retry:      retry,
		logger:     telemetry.NewLogger("lacework"),
	}
}

// accessToken returns a valid bearer token, exchanging the API key for a
// fresh one when the cached token is close to expiry.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Until(c.tokenExp) > 2*time.Minute {
		return c.token, nil
	}

	body, err := json.Marshal(map[string]any{
		"keyId":      c.creds.KeyID,
		"expiryTime": 3600,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v2/access/tokens", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-LW-UAKS", c.creds.Secret)

	var tokenResp struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expiresAt"`
	}
	if err := c.doOnce(req, &tokenResp); err != nil {
		return "", fmt.Errorf("token exchange failed: %w", err)
	}

	c.token = tokenResp.Token
	c.tokenExp = tokenResp.ExpiresAt
	if c.tokenExp.IsZero() {
		c.tokenExp = time.Now().Add(55 * time.Minute)
	}
	return c.token, nil
}

// doJSON issues one authenticated request with the shared retry policy.
func (c *Client) doJSON(ctx context.Context, operation, method, url string, reqBody, out any) error {
	var encoded []byte
	if reqBody != nil {
		var err error
		encoded, err = json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", operation, err)
		}
	}

	return c.retry.Do(ctx, operation, func() error {
		token, err := c.accessToken(ctx)
		if err != nil {
			return err
		}

		var body io.Reader
		if encoded != nil {
			body = bytes.NewReader(encoded)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return fmt.Errorf("failed to build %s request: %w", operation, err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")

		return c.doOnce(req, out)
	})
}

// doOnce executes a single request and decodes the response.
func (c *Client) doOnce(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       truncate(string(data), 512),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
