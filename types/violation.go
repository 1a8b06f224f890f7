package types

import "time"

// EnrichedResource pairs one violating resource with its resolved tags.
type EnrichedResource struct {
	ARN      string            `json:"arn"`
	Region   string            `json:"region,omitempty"`
	Resolved ResolvedTagRecord `json:"resolved"`
}

// ComplianceViolation is one non-compliant policy finding for one account,
// with the resources that violated it.
type ComplianceViolation struct {
	AccountID    string    `json:"account_id"`
	AccountAlias string    `json:"account_alias,omitempty"`
	PolicyID     string    `json:"policy_id"`
	PolicyTitle  string    `json:"policy_title"`
	Severity     string    `json:"severity"`
	Status       string    `json:"status"`
	Remediation  string    `json:"remediation,omitempty"`
	CreatedAt    time.Time `json:"created_at"`

	ResourceCount int                `json:"resource_count"`
	Resources     []EnrichedResource `json:"resources"`
}

// NewComplianceViolation builds a violation record, keeping ResourceCount
// in sync with the resource list.
func NewComplianceViolation(accountID, alias, policyID, title, severity, status, remediation string, resources []EnrichedResource) ComplianceViolation {
	return ComplianceViolation{
		AccountID:     accountID,
		AccountAlias:  alias,
		PolicyID:      policyID,
		PolicyTitle:   title,
		Severity:      severity,
		Status:        status,
		Remediation:   remediation,
		CreatedAt:     time.Now(),
		ResourceCount: len(resources),
		Resources:     resources,
	}
}

