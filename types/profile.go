package types

import "time"

// ValueCount is a tag value with its observed frequency.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// AccountFallbackProfile holds per-account tag statistics used as
// fallback ownership data for untagged resources.
type AccountFallbackProfile struct {
	AccountID   string    `json:"account_id"`
	AccountName string    `json:"account_name"`
	AnalyzedAt  time.Time `json:"analyzed_at"`

	TotalResources  int     `json:"total_resources"`
	TaggedResources int     `json:"tagged_resources"`
	// TaggingCoverage is a percentage in [0,100].
	TaggingCoverage     float64 `json:"tagging_coverage"`
	EnvironmentCoverage float64 `json:"environment_coverage"`

	// Most-common values are nil when no resource carries the tag key.
	DefaultTechnicalOwner *ValueCount `json:"default_technical_owner,omitempty"`
	DefaultBusinessOwner  *ValueCount `json:"default_business_owner,omitempty"`
	DefaultBillingProject *ValueCount `json:"default_billing_project,omitempty"`
	// DefaultEnvironment is the normalized most-common environment,
	// or "N/A" when no environment tags exist.
	DefaultEnvironment string `json:"default_environment"`

	TechnicalOwnerDistribution []ValueCount `json:"technical_owner_distribution,omitempty"`
	BusinessOwnerDistribution  []ValueCount `json:"business_owner_distribution,omitempty"`
	EnvironmentDistribution    []ValueCount `json:"environment_distribution,omitempty"`
	BillingDistribution        []ValueCount `json:"billing_distribution,omitempty"`
}

// HasOwnershipDefaults reports whether the profile can supply any
// fallback ownership values at all.
func (p *AccountFallbackProfile) HasOwnershipDefaults() bool {
	return p.DefaultTechnicalOwner != nil || p.DefaultBusinessOwner != nil || p.DefaultBillingProject != nil
}
