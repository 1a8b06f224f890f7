package resolver

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yairfalse/omista/types"
)

func newInventory(resources ...types.ResourceRecord) *types.AccountInventory {
	inv := &types.AccountInventory{Resources: resources}
	inv.BuildIndices()
	return inv
}

func ownershipProfile() *types.AccountFallbackProfile {
	return &types.AccountFallbackProfile{
		AccountID:             "123456789012",
		AccountName:           "platform-prod",
		DefaultTechnicalOwner: &types.ValueCount{Value: "team-platform", Count: 40},
		DefaultBusinessOwner:  &types.ValueCount{Value: "cto-office", Count: 35},
		DefaultBillingProject: &types.ValueCount{Value: "PLAT-001", Count: 30},
		DefaultEnvironment:    "prod",
	}
}

func TestResolveDirectTags(t *testing.T) {
	resolver := NewTagResolver(types.DefaultTagKeys())
	inv := newInventory(types.ResourceRecord{
		ID:   "my-func",
		Type: "lambda:function",
		Tags: map[string]string{
			"owner:technical":    "alice",
			"owner:business":     "finance",
			"billing:project-id": "FIN-7",
			"env":                "prod",
		},
	})

	record := resolver.Resolve(context.Background(),
		"arn:aws:lambda:eu-west-1:123456789012:function:my-func", inv, ownershipProfile())

	require.NoError(t, record.Validate())
	assert.Equal(t, types.TagSourceInventory, record.Source)
	assert.True(t, record.HasTags)
	assert.False(t, record.UsedFallback)
	assert.Empty(t, record.FallbackReason)
	assert.Equal(t, "alice", record.TechnicalOwner)
	assert.Equal(t, "finance", record.BusinessOwner)
	assert.Equal(t, "FIN-7", record.BillingProject)
	assert.Equal(t, "prod", record.Environment)
}

func TestResolvePartialFallback(t *testing.T) {
	resolver := NewTagResolver(types.DefaultTagKeys())
	inv := newInventory(types.ResourceRecord{
		ID:   "my-func",
		Type: "lambda:function",
		Tags: map[string]string{"env": "dev"},
	})

	record := resolver.Resolve(context.Background(),
		"arn:aws:lambda:eu-west-1:123456789012:function:my-func", inv, ownershipProfile())

	require.NoError(t, record.Validate())
	assert.Equal(t, types.TagSourcePartialFallback, record.Source)
	assert.True(t, record.HasTags)
	assert.True(t, record.UsedFallback)
	assert.Contains(t, string(record.FallbackReason), "missing_technical_owner")
	assert.Contains(t, string(record.FallbackReason), "missing_business_owner")
	assert.Equal(t, "team-platform", record.TechnicalOwner)
	assert.Equal(t, "cto-office", record.BusinessOwner)
	assert.Equal(t, "dev", record.Environment)
}

func TestResolveChainPriority(t *testing.T) {
	// A Lambda linked to both a tagged security group and a tagged IAM
	// role inherits from the security group: it comes first in the chain.
	resolver := NewTagResolver(types.DefaultTagKeys())
	inv := newInventory(
		types.ResourceRecord{
			ID:   "my-func",
			Type: "lambda:function",
			Config: map[string]any{
				"SecurityGroups": []any{"sg-0a1b2c"},
				"RoleArn":        "arn:aws:iam::123456789012:role/my-role",
			},
		},
		types.ResourceRecord{
			ID:   "sg-0a1b2c",
			Type: "ec2:security-group",
			Tags: map[string]string{"owner:technical": "net-team"},
		},
		types.ResourceRecord{
			ID:   "my-role",
			Type: "iam:role",
			Tags: map[string]string{"owner:technical": "iam-team"},
		},
	)

	record := resolver.Resolve(context.Background(),
		"arn:aws:lambda:eu-west-1:123456789012:function:my-func", inv, nil)

	require.NoError(t, record.Validate())
	assert.Equal(t, types.TagSourceFallback, record.Source)
	assert.Equal(t, types.ReasonRelatedResource, record.FallbackReason)
	assert.Equal(t, "ec2:security-group", record.InheritedFrom)
	assert.Equal(t, "net-team", record.TechnicalOwner)
	assert.Contains(t, record.TagSummary, "(from ec2:security-group)")
}

func TestResolveChainFallsThroughToRole(t *testing.T) {
	resolver := NewTagResolver(types.DefaultTagKeys())
	inv := newInventory(
		types.ResourceRecord{
			ID:   "my-func",
			Type: "lambda:function",
			Config: map[string]any{
				"SecurityGroups": []any{"sg-untagged"},
				"RoleArn":        "arn:aws:iam::123456789012:role/my-role",
			},
		},
		types.ResourceRecord{ID: "sg-untagged", Type: "ec2:security-group"},
		types.ResourceRecord{
			ID:   "my-role",
			Type: "iam:role",
			Tags: map[string]string{"owner:technical": "iam-team"},
		},
	)

	record := resolver.Resolve(context.Background(),
		"arn:aws:lambda:eu-west-1:123456789012:function:my-func", inv, nil)

	assert.Equal(t, "iam:role", record.InheritedFrom)
	assert.Equal(t, "iam-team", record.TechnicalOwner)
}

func TestResolveAccountFallback(t *testing.T) {
	resolver := NewTagResolver(types.DefaultTagKeys())
	inv := newInventory(types.ResourceRecord{
		ID:   "orphan-bucket",
		Type: "s3:bucket",
	})

	record := resolver.Resolve(context.Background(),
		"arn:aws:s3:::orphan-bucket", inv, ownershipProfile())

	require.NoError(t, record.Validate())
	assert.Equal(t, types.TagSourceFallback, record.Source)
	assert.Equal(t, types.ReasonNoTagsInInventory, record.FallbackReason)
	assert.Equal(t, "team-platform", record.TechnicalOwner)
	assert.Equal(t, "cto-office", record.BusinessOwner)
	assert.Equal(t, "PLAT-001", record.BillingProject)
	// Environment is never synthesized from account statistics.
	assert.Empty(t, record.Environment)
	assert.Equal(t, "true", record.Tags["fallback:applied"])
	assert.Equal(t, "account_analysis", record.Tags["fallback:source"])
}

func TestResolveNameInference(t *testing.T) {
	resolver := NewTagResolver(types.DefaultTagKeys())
	inv := newInventory(types.ResourceRecord{
		ID:   "jenkins-prod-01-vm",
		Type: "ec2:instance",
	})

	record := resolver.Resolve(context.Background(),
		"arn:aws:ec2:eu-west-1:123456789012:instance/jenkins-prod-01-vm", inv, nil)

	require.NoError(t, record.Validate())
	assert.Equal(t, types.TagSourceFallback, record.Source)
	assert.Equal(t, types.ReasonNameInference, record.FallbackReason)
	assert.True(t, strings.HasPrefix(record.TagSummary, InferredMarker))
	assert.Contains(t, record.TagSummary, "env:prod")
	assert.Contains(t, record.TagSummary, "service:jenkins")
}

func TestResolveInferenceNeverOverridesEarlierSources(t *testing.T) {
	resolver := NewTagResolver(types.DefaultTagKeys())

	// Inferable name but direct tags present: inventory wins.
	tagged := newInventory(types.ResourceRecord{
		ID:   "jenkins-prod-01-vm",
		Type: "ec2:instance",
		Tags: map[string]string{"owner:technical": "alice"},
	})
	record := resolver.Resolve(context.Background(),
		"arn:aws:ec2:eu-west-1:123456789012:instance/jenkins-prod-01-vm", tagged, nil)
	assert.Equal(t, types.TagSourceInventory, record.Source)
	assert.NotContains(t, record.TagSummary, InferredMarker)

	// Inferable name but the chain resolves: chain wins.
	chained := newInventory(
		types.ResourceRecord{
			ID:     "grafana-prod-02-lb",
			Type:   "elbv2:loadbalancer",
			Config: map[string]any{"SecurityGroups": []any{"sg-1"}},
		},
		types.ResourceRecord{
			ID:   "sg-1",
			Type: "ec2:security-group",
			Tags: map[string]string{"owner:technical": "net-team"},
		},
	)
	record = resolver.Resolve(context.Background(),
		"arn:aws:elasticloadbalancing:eu-west-1:123456789012:loadbalancer/app/grafana-prod-02-lb/50dc6c495c0c9188",
		chained, nil)
	assert.Equal(t, types.ReasonRelatedResource, record.FallbackReason)
	assert.NotContains(t, record.TagSummary, InferredMarker)
}

func TestResolveNotFoundInInventory(t *testing.T) {
	resolver := NewTagResolver(types.DefaultTagKeys())
	inv := newInventory()

	t.Run("with profile defaults", func(t *testing.T) {
		record := resolver.Resolve(context.Background(),
			"arn:aws:lambda:eu-west-1:123456789012:function:ghost-func", inv, ownershipProfile())
		require.NoError(t, record.Validate())
		assert.Equal(t, types.TagSourceFallback, record.Source)
		assert.Equal(t, types.ReasonNotFoundInInventory, record.FallbackReason)
		assert.False(t, record.HasTags)
		assert.Equal(t, "team-platform", record.TechnicalOwner)
	})

	t.Run("without profile, inferable name", func(t *testing.T) {
		record := resolver.Resolve(context.Background(),
			"arn:aws:lambda:eu-west-1:123456789012:function:vault-uat-3-sync", inv, nil)
		assert.Equal(t, types.ReasonNotFoundInInventory, record.FallbackReason)
		assert.True(t, strings.HasPrefix(record.TagSummary, InferredMarker))
	})

	t.Run("without profile, opaque name", func(t *testing.T) {
		record := resolver.Resolve(context.Background(),
			"arn:aws:ec2:eu-west-1:123456789012:volume/vol-0abc123", inv, nil)
		assert.Equal(t, types.ReasonNotFoundInInventory, record.FallbackReason)
		assert.Equal(t, "N/A", record.TagSummary)
	})
}

func TestResolveNone(t *testing.T) {
	resolver := NewTagResolver(types.DefaultTagKeys())
	inv := newInventory(types.ResourceRecord{
		ID:   "vol-0abc123",
		Type: "ec2:volume",
	})

	record := resolver.Resolve(context.Background(),
		"arn:aws:ec2:eu-west-1:123456789012:volume/vol-0abc123", inv, nil)

	require.NoError(t, record.Validate())
	assert.Equal(t, types.TagSourceNone, record.Source)
	assert.False(t, record.UsedFallback)
	assert.Empty(t, record.FallbackReason)
	assert.Equal(t, "N/A", record.TagSummary)
}
