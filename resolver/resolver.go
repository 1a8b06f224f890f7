// Package resolver determines the best-available ownership tags for one
// resource, cascading through direct inventory tags, related-resource
// inheritance, account-level statistical fallback, and name-pattern
// inference. The cheapest available source always wins.
package resolver

import (
	"context"
	"strings"

	"github.com/yairfalse/omista/telemetry"
	"github.com/yairfalse/omista/types"
)

// TagResolver resolves tags for individual resources against one
// account's inventory and fallback profile.
type TagResolver struct {
	tagKeys types.TagKeys
	logger  *telemetry.Logger
}

// NewTagResolver creates a resolver using the given ownership tag keys.
func NewTagResolver(tagKeys types.TagKeys) *TagResolver {
	return &TagResolver{
		tagKeys: tagKeys,
		logger:  telemetry.NewLogger("resolver"),
	}
}

// Resolve produces the enrichment record for one ARN. The inventory and
// profile must belong to the account the ARN was reported under; S3
// ARNs carry no account id and are attributed to that account only.
func (r *TagResolver) Resolve(ctx context.Context, arn string, inv *types.AccountInventory, profile *types.AccountFallbackProfile) types.ResolvedTagRecord {
	record := types.ResolvedTagRecord{ARN: arn}

	parsed, ok := types.ParseARN(arn)
	if ok {
		record.ResourceID = parsed.ResourceID
		record.ResourceType = parsed.Type
	} else {
		record.ResourceID = arn
		record.ResourceType = "unknown"
	}

	resource, found := inv.LookupByID(record.ResourceID)
	if !found {
		r.fillNotFound(&record, profile)
		r.logger.LogResolution(ctx, arn, string(record.Source), string(record.FallbackReason))
		return record
	}
	record.ResourceType = resource.Type

	if tags := resource.EffectiveTags(); len(tags) > 0 {
		r.fillFromInventory(&record, tags, profile)
		r.logger.LogResolution(ctx, arn, string(record.Source), string(record.FallbackReason))
		return record
	}

	r.fillUntagged(&record, resource, inv, profile)
	r.logger.LogResolution(ctx, arn, string(record.Source), string(record.FallbackReason))
	return record
}

// fillFromInventory handles resources with direct tags. Missing
// ownership keys are filled from the account profile, downgrading the
// source to partial_fallback.
func (r *TagResolver) fillFromInventory(record *types.ResolvedTagRecord, tags map[string]string, profile *types.AccountFallbackProfile) {
	record.HasTags = true
	record.Source = types.TagSourceInventory
	record.Tags = tags
	record.TagSummary = types.FormatTags(tags)
	record.TechnicalOwner = tags[r.tagKeys.TechnicalOwner]
	record.BusinessOwner = tags[r.tagKeys.BusinessOwner]
	record.BillingProject = tags[r.tagKeys.BillingProject]
	record.Environment = tags[r.tagKeys.Environment]

	var partialReasons []string
	if record.TechnicalOwner == "" && profile != nil && profile.DefaultTechnicalOwner != nil {
		record.TechnicalOwner = profile.DefaultTechnicalOwner.Value
		partialReasons = append(partialReasons, string(types.ReasonMissingTechOwner))
	}
	if record.BusinessOwner == "" && profile != nil && profile.DefaultBusinessOwner != nil {
		record.BusinessOwner = profile.DefaultBusinessOwner.Value
		partialReasons = append(partialReasons, string(types.ReasonMissingBizOwner))
	}
	if len(partialReasons) > 0 {
		record.Source = types.TagSourcePartialFallback
		record.UsedFallback = true
		record.FallbackReason = types.FallbackReason(strings.Join(partialReasons, ","))
	}
}

// fillUntagged handles resources present in inventory without tags:
// chain inheritance first, then account fallback, then name inference.
func (r *TagResolver) fillUntagged(record *types.ResolvedTagRecord, resource *types.ResourceRecord, inv *types.AccountInventory, profile *types.AccountFallbackProfile) {
	if chain := ResolveChain(resource, inv); chain != nil {
		record.Source = types.TagSourceFallback
		record.UsedFallback = true
		record.FallbackReason = types.ReasonRelatedResource
		record.InheritedFrom = chain.From
		record.Tags = chain.Tags
		record.TagSummary = chain.Summary
		record.TechnicalOwner = chain.Tags[r.tagKeys.TechnicalOwner]
		record.BusinessOwner = chain.Tags[r.tagKeys.BusinessOwner]
		record.BillingProject = chain.Tags[r.tagKeys.BillingProject]
		record.Environment = chain.Tags[r.tagKeys.Environment]
		return
	}

	if profile != nil && profile.HasOwnershipDefaults() {
		record.Source = types.TagSourceFallback
		record.UsedFallback = true
		record.FallbackReason = types.ReasonNoTagsInInventory
		record.Tags = r.profileFallbackTags(profile, types.ReasonNoTagsInInventory)
		record.TagSummary = types.FormatTags(record.Tags)
		record.TechnicalOwner = record.Tags[r.tagKeys.TechnicalOwner]
		record.BusinessOwner = record.Tags[r.tagKeys.BusinessOwner]
		record.BillingProject = record.Tags[r.tagKeys.BillingProject]
		// Environment is never filled from account statistics; only a
		// real tag may set it.
		return
	}

	accountName := ""
	if profile != nil {
		accountName = profile.AccountName
	}
	if inferred := InferFromName(resource.ID, accountName); inferred != "" {
		record.Source = types.TagSourceFallback
		record.UsedFallback = true
		record.FallbackReason = types.ReasonNameInference
		record.TagSummary = inferred
		return
	}

	record.Source = types.TagSourceNone
	record.TagSummary = "N/A"
}

// fillNotFound handles resources absent from the inventory entirely.
func (r *TagResolver) fillNotFound(record *types.ResolvedTagRecord, profile *types.AccountFallbackProfile) {
	record.Source = types.TagSourceFallback
	record.UsedFallback = true
	record.FallbackReason = types.ReasonNotFoundInInventory

	if profile != nil && profile.HasOwnershipDefaults() {
		record.Tags = r.profileFallbackTags(profile, types.ReasonNotFoundInInventory)
		record.TagSummary = types.FormatTags(record.Tags)
		record.TechnicalOwner = record.Tags[r.tagKeys.TechnicalOwner]
		record.BusinessOwner = record.Tags[r.tagKeys.BusinessOwner]
		record.BillingProject = record.Tags[r.tagKeys.BillingProject]
		return
	}

	accountName := ""
	if profile != nil {
		accountName = profile.AccountName
	}
	if inferred := InferFromName(record.ResourceID, accountName); inferred != "" {
		record.TagSummary = inferred
		return
	}
	record.TagSummary = "N/A"
}

// profileFallbackTags builds a fallback tag set from account statistics,
// marked so it can never be mistaken for real tags.
func (r *TagResolver) profileFallbackTags(profile *types.AccountFallbackProfile, reason types.FallbackReason) map[string]string {
	tags := map[string]string{
		"fallback:applied": "true",
		"fallback:reason":  string(reason),
		"fallback:source":  string(types.ReasonAccountFallback),
	}
	if profile.DefaultTechnicalOwner != nil {
		tags[r.tagKeys.TechnicalOwner] = profile.DefaultTechnicalOwner.Value
	}
	if profile.DefaultBusinessOwner != nil {
		tags[r.tagKeys.BusinessOwner] = profile.DefaultBusinessOwner.Value
	}
	if profile.DefaultBillingProject != nil {
		tags[r.tagKeys.BillingProject] = profile.DefaultBillingProject.Value
	}
	return tags
}
