package types

import "fmt"

// ResolvedTagRecord is the enrichment result for one resource identifier.
type ResolvedTagRecord struct {
	ARN          string            `json:"arn"`
	ResourceID   string            `json:"resource_id"`
	ResourceType string            `json:"resource_type"`

	HasTags        bool           `json:"has_tags"`
	UsedFallback   bool           `json:"used_fallback"`
	FallbackReason FallbackReason `json:"fallback_reason,omitempty"`
	Source         TagSource      `json:"tag_source"`

	Tags       map[string]string `json:"tags,omitempty"`
	TagSummary string            `json:"tag_summary"`
	// InheritedFrom names the related resource type a chain-resolved
	// tag set was borrowed from, e.g. "ec2:security-group".
	InheritedFrom string `json:"inherited_from,omitempty"`

	TechnicalOwner string `json:"technical_owner,omitempty"`
	BusinessOwner  string `json:"business_owner,omitempty"`
	BillingProject string `json:"billing_project,omitempty"`
	Environment    string `json:"environment,omitempty"`
}

// Validate checks the record's internal consistency: a resource with
// direct tags can never be marked as fully fallback-sourced, and any
// fallback use must carry a reason.
func (r ResolvedTagRecord) Validate() error {
	if r.HasTags && r.Source == TagSourceFallback {
		return fmt.Errorf("resource %s: has_tags with fallback tag source", r.ARN)
	}
	if r.UsedFallback && r.FallbackReason == "" {
		return fmt.Errorf("resource %s: used_fallback without a reason", r.ARN)
	}
	if !r.UsedFallback && r.FallbackReason != "" {
		return fmt.Errorf("resource %s: fallback reason %q without fallback use", r.ARN, r.FallbackReason)
	}
	return nil
}
