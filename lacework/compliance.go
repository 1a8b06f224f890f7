package lacework

import (
	"context"
	"net/http"
	"net/url"
)

// Violation is one violating resource entry inside a policy finding.
type Violation struct {
	Resource string   `json:"resource"`
	Region   string   `json:"region,omitempty"`
	Reasons  []string `json:"reasons,omitempty"`
}

// Recommendation is one policy finding in a compliance report. Field
// names follow the platform's report schema.
type Recommendation struct {
	RecID      string      `json:"REC_ID"`
	Title      string      `json:"TITLE"`
	Severity   int         `json:"SEVERITY"`
	Status     string      `json:"STATUS"`
	InfoLink   string      `json:"INFO_LINK"`
	Violations []Violation `json:"VIOLATIONS"`
}

// ComplianceReport is one account's compliance report.
type ComplianceReport struct {
	ReportType      string           `json:"reportType,omitempty"`
	ReportTitle     string           `json:"reportTitle,omitempty"`
	AccountID       string           `json:"accountId,omitempty"`
	Recommendations []Recommendation `json:"recommendations"`
}

// NonCompliant returns only the findings whose status marks them as
// failing.
func (r *ComplianceReport) NonCompliant() []Recommendation {
	var out []Recommendation
	for _, rec := range r.Recommendations {
		if nonCompliantStatus(rec.Status) {
			out = append(out, rec)
		}
	}
	return out
}

func nonCompliantStatus(status string) bool {
	switch status {
	case "NonCompliant", "noncompliant", "non-compliant", "NON_COMPLIANT",
		"violation", "Violation", "failed", "Failed", "FAILED":
		return true
	}
	return false
}

// SeverityLabel maps the platform's numeric severity to its display
// label.
func SeverityLabel(severity int) string {
	switch severity {
	case 1:
		return "Critical"
	case 2:
		return "High"
	case 3:
		return "Medium"
	case 4:
		return "Low"
	case 5:
		return "Info"
	}
	return "Unknown"
}

// GetComplianceReport fetches the latest named compliance report for one
// AWS account. The platform serves the most recent evaluation; there is
// no date filtering on this endpoint.
func (c *Client) GetComplianceReport(ctx context.Context, accountID, reportName string) (*ComplianceReport, error) {
	q := url.Values{}
	q.Set("primaryQueryId", accountID)
	q.Set("reportName", reportName)
	q.Set("reportType", "COMPLIANCE")
	q.Set("format", "json")

	var resp struct {
		Data []ComplianceReport `json:"data"`
	}
	endpoint := c.baseURL + "/api/v2/Reports?" + q.Encode()
	if err := c.doJSON(ctx, "compliance report", http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return &ComplianceReport{AccountID: accountID}, nil
	}
	report := resp.Data[0]
	if report.AccountID == "" {
		report.AccountID = accountID
	}
	return &report, nil
}
