package resolver

import (
	"strings"

	"github.com/yairfalse/omista/types"
)

// fallbackChains maps a resource type to the related resource types to
// inherit tags from, in priority order. A load balancer borrows from its
// security group before its VPC; a Lambda tries security group, then
// IAM role, then VPC.
var fallbackChains = map[string][]string{
	"elbv2:loadbalancer": {"ec2:security-group", "ec2:vpc"},
	"lambda:function":    {"ec2:security-group", "iam:role", "ec2:vpc"},
	"rds:db":             {"ec2:subnet", "ec2:vpc"},
	"ec2:security-group": {"ec2:vpc"},
	"ec2:vpc-endpoint":   {"ec2:security-group", "ec2:vpc"},
}

// relatedFields lists the configuration field names that may hold the
// identifier of a related resource. The platform mirrors each service's
// own casing, so both variants appear.
var relatedFields = map[string][]string{
	"ec2:security-group": {"SecurityGroups", "securityGroups", "GroupId", "groupId"},
	"ec2:vpc":            {"VpcId", "vpcId", "Vpc", "vpc"},
	"ec2:subnet":         {"SubnetId", "subnetId", "Subnet", "subnet"},
	"iam:role":           {"RoleArn", "roleArn", "Role", "role"},
}

// ChainResult is a successful related-resource tag inheritance.
type ChainResult struct {
	// Tags are the related resource's effective tags.
	Tags map[string]string
	// From is the related resource type the tags were borrowed from.
	From string
	// Summary is the display string, annotated with the source step,
	// e.g. "team:net (from ec2:security-group)".
	Summary string
}

// ResolveChain walks the resource's fallback chain and returns the first
// related resource's tags found in the inventory. Returns nil when the
// resource type has no chain or no step yields a tagged resource.
func ResolveChain(resource *types.ResourceRecord, inv *types.AccountInventory) *ChainResult {
	chain, ok := fallbackChains[resource.Type]
	if !ok {
		return nil
	}

	for _, relatedType := range chain {
		id := extractRelatedID(resource, relatedType)
		if id == "" {
			continue
		}
		related, found := inv.LookupByID(id)
		if !found {
			continue
		}
		tags := related.EffectiveTags()
		if len(tags) == 0 {
			continue
		}
		return &ChainResult{
			Tags:    tags,
			From:    relatedType,
			Summary: types.FormatTags(tags) + " (from " + relatedType + ")",
		}
	}
	return nil
}

// extractRelatedID pulls the related resource's identifier out of the
// resource configuration. Values may be a single id, a list of ids, or
// a full ARN; ARNs are reduced to the opaque identifier the inventory
// indexes by.
func extractRelatedID(resource *types.ResourceRecord, relatedType string) string {
	for _, field := range relatedFields[relatedType] {
		values := resource.ConfigStringSlice(field)
		if len(values) == 0 {
			continue
		}
		value := values[0]
		if strings.HasPrefix(value, "arn:") {
			parsed, ok := types.ParseARN(value)
			if !ok {
				continue
			}
			return parsed.ResourceID
		}
		return value
	}
	return ""
}
