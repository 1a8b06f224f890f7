package types

import (
	"sort"
	"strings"
)

// TagKeys names the four ownership/environment tag keys the resolver and
// profiler care about. Keys differ between organizations, so they are
// configurable; the defaults match common ownership tagging schemes.
type TagKeys struct {
	TechnicalOwner string `yaml:"technical_owner" json:"technical_owner"`
	BusinessOwner  string `yaml:"business_owner" json:"business_owner"`
	BillingProject string `yaml:"billing_project" json:"billing_project"`
	Environment    string `yaml:"environment" json:"environment"`
}

// DefaultTagKeys returns the default ownership tag key set.
func DefaultTagKeys() TagKeys {
	return TagKeys{
		TechnicalOwner: "owner:technical",
		BusinessOwner:  "owner:business",
		BillingProject: "billing:project-id",
		Environment:    "env",
	}
}

// TagSource tells where a resolved tag set came from.
type TagSource string

const (
	TagSourceInventory       TagSource = "inventory"
	TagSourcePartialFallback TagSource = "partial_fallback"
	TagSourceFallback        TagSource = "fallback"
	TagSourceNone            TagSource = "none"
)

// FallbackReason explains why fallback data was used for a resource.
type FallbackReason string

const (
	ReasonNotFoundInInventory FallbackReason = "not_found_in_inventory"
	ReasonNoTagsInInventory   FallbackReason = "no_tags_in_inventory"
	ReasonRelatedResource     FallbackReason = "related_resource"
	ReasonAccountFallback     FallbackReason = "account_analysis"
	ReasonNameInference       FallbackReason = "name_inference"
	ReasonMissingTechOwner    FallbackReason = "missing_technical_owner"
	ReasonMissingBizOwner     FallbackReason = "missing_business_owner"
)

// FormatTags renders a tag map as the platform's "key:value; key:value"
// display string, sorted by key. Empty tag sets render as "N/A".
func FormatTags(tags map[string]string) string {
	if len(tags) == 0 {
		return "N/A"
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+":"+tags[k])
	}
	return strings.Join(pairs, "; ")
}

// EffectiveTags returns the resource's tag set, falling back to tag
// fields embedded in the raw configuration when the platform did not
// surface them as resourceTags. Config tags appear either as a plain
// map or as a list of {Key, Value} objects depending on the service.
func (r ResourceRecord) EffectiveTags() map[string]string {
	if len(r.Tags) > 0 {
		return r.Tags
	}
	for _, field := range []string{"tags", "Tags", "TagSet", "tagSet"} {
		v, ok := r.Config[field]
		if !ok {
			continue
		}
		if tags := coerceTagMap(v); len(tags) > 0 {
			return tags
		}
	}
	return nil
}

func coerceTagMap(v any) map[string]string {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]string, len(val))
		for k, raw := range val {
			if s, ok := raw.(string); ok {
				out[k] = s
			}
		}
		return out
	case map[string]string:
		return val
	case []any:
		out := make(map[string]string, len(val))
		for _, item := range val {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			key, _ := entry["Key"].(string)
			value, _ := entry["Value"].(string)
			if key != "" {
				out[key] = value
			}
		}
		return out
	}
	return nil
}

// NormalizeEnvironment maps known environment synonyms to canonical
// labels, case-insensitively. Unknown values pass through verbatim and
// absent values yield "N/A"; an environment label is never invented.
func NormalizeEnvironment(env string) string {
	if env == "" {
		return "N/A"
	}
	switch strings.ToLower(env) {
	case "prod", "production":
		return "prod"
	case "dev", "development":
		return "dev"
	case "test", "testing":
		return "test"
	case "uat":
		return "uat"
	case "staging":
		return "staging"
	case "sandbox":
		return "sandbox"
	}
	return env
}
