package lacework

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	policy := DefaultRetryPolicy()
	policy.sleep = func(context.Context, time.Duration) error { return nil }

	client := NewClient(Credentials{Account: "test", KeyID: "key", Secret: "secret"}, policy)
	client.baseURL = server.URL
	return client, server
}

func TestLoadCredentials(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid key file", func(t *testing.T) {
		path := filepath.Join(dir, "key.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"account":"acme","keyId":"ACME_123","secret":"_s3cret"}`), 0o600))

		creds, err := LoadCredentials(path)
		require.NoError(t, err)
		assert.Equal(t, "acme", creds.Account)
		assert.Equal(t, "ACME_123", creds.KeyID)
	})

	t.Run("missing fields are fatal", func(t *testing.T) {
		path := filepath.Join(dir, "partial.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"account":"acme"}`), 0o600))

		_, err := LoadCredentials(path)
		assert.Error(t, err)
	})

	t.Run("malformed file is fatal", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))

		_, err := LoadCredentials(path)
		assert.Error(t, err)
	})

	t.Run("absent file is fatal", func(t *testing.T) {
		_, err := LoadCredentials(filepath.Join(dir, "nope.json"))
		assert.Error(t, err)
	})
}

func tokenAwareMux(t *testing.T) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/access/tokens", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-LW-UAKS"))
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok-1"})
	})
	return mux
}

func TestListAWSAccounts(t *testing.T) {
	mux := tokenAwareMux(t)
	mux.HandleFunc("/api/v2/CloudAccounts", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"name": "prod", "type": "AwsCfg", "enabled": 1, "intgGuid": "g1",
					"data": map[string]string{"awsAccountId": "111111111111"}},
				{"name": "disabled", "type": "AwsCfg", "enabled": 0,
					"data": map[string]string{"awsAccountId": "222222222222"}},
				{"name": "gcp-thing", "type": "GcpCfg", "enabled": 1},
				{"name": "no-id", "type": "AwsCfg", "enabled": 1},
			},
		})
	})

	client, _ := newTestClient(t, mux)

	accounts, err := client.ListAWSAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "111111111111", accounts[0].ID)
	assert.Equal(t, "prod", accounts[0].Alias)
	assert.True(t, accounts[0].Enabled)
}

func TestGetComplianceReport(t *testing.T) {
	mux := tokenAwareMux(t)
	mux.HandleFunc("/api/v2/Reports", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "111111111111", r.URL.Query().Get("primaryQueryId"))
		assert.Equal(t, "Acme Security Standard", r.URL.Query().Get("reportName"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{
				"reportTitle": "Acme Security Standard",
				"recommendations": []map[string]any{
					{"REC_ID": "LW_S3_1", "TITLE": "S3 bucket public", "SEVERITY": 1,
						"STATUS": "NonCompliant",
						"VIOLATIONS": []map[string]any{
							{"resource": "arn:aws:s3:::open-bucket", "region": "ap-southeast-2"},
						}},
					{"REC_ID": "LW_EC2_2", "TITLE": "fine policy", "SEVERITY": 3, "STATUS": "Compliant"},
				},
			}},
		})
	})

	client, _ := newTestClient(t, mux)

	report, err := client.GetComplianceReport(context.Background(), "111111111111", "Acme Security Standard")
	require.NoError(t, err)
	assert.Len(t, report.Recommendations, 2)

	failing := report.NonCompliant()
	require.Len(t, failing, 1)
	assert.Equal(t, "LW_S3_1", failing[0].RecID)
	require.Len(t, failing[0].Violations, 1)
	assert.Equal(t, "arn:aws:s3:::open-bucket", failing[0].Violations[0].Resource)
}

func TestGetComplianceReportEmpty(t *testing.T) {
	mux := tokenAwareMux(t)
	mux.HandleFunc("/api/v2/Reports", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	})

	client, _ := newTestClient(t, mux)

	report, err := client.GetComplianceReport(context.Background(), "111111111111", "Acme Security Standard")
	require.NoError(t, err)
	assert.Empty(t, report.Recommendations)
	assert.Empty(t, report.NonCompliant())
}

func TestNonCompliantStatusVariants(t *testing.T) {
	for _, status := range []string{"NonCompliant", "non-compliant", "violation", "failed", "FAILED"} {
		assert.True(t, nonCompliantStatus(status), status)
	}
	for _, status := range []string{"Compliant", "RequiresManualAssessment", "Suppressed", ""} {
		assert.False(t, nonCompliantStatus(status), status)
	}
}

func TestSeverityLabel(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{1, "Critical"}, {2, "High"}, {3, "Medium"}, {4, "Low"}, {5, "Info"}, {0, "Unknown"}, {9, "Unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SeverityLabel(tt.in))
	}
}
