package types

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
)

// ParsedARN is the subset of ARN structure this tool cares about: the
// opaque resource identifier the platform indexes by, the account the
// resource belongs to, and the platform's namespaced resource type.
type ParsedARN struct {
	ARN        string
	Service    string
	Region     string
	AccountID  string
	ResourceID string
	// Type is the platform resource type ("ec2:security-group") when it
	// can be derived from the ARN, or "service:*" when it cannot.
	Type string
}

// ParseARN breaks an AWS ARN into the pieces needed for inventory lookup.
// S3 bucket ARNs carry no account id; callers must attribute those to the
// account currently being processed (multi-account attribution of S3
// buckets is unsupported).
func ParseARN(raw string) (ParsedARN, bool) {
	parsed, err := arn.Parse(raw)
	if err != nil {
		return ParsedARN{}, false
	}
	p := ParsedARN{
		ARN:       raw,
		Service:   parsed.Service,
		Region:    parsed.Region,
		AccountID: parsed.AccountID,
	}
	p.ResourceID = extractResourceID(parsed)
	p.Type = platformType(parsed)
	return p, true
}

// extractResourceID recovers the platform's opaque resource identifier
// from the ARN resource section.
func extractResourceID(parsed arn.ARN) string {
	resource := parsed.Resource

	// ALB/NLB ARNs embed the name mid-path:
	// loadbalancer/app/<name>/<uuid> or loadbalancer/net/<name>/<uuid>
	if parsed.Service == "elasticloadbalancing" && strings.HasPrefix(resource, "loadbalancer/") {
		parts := strings.Split(resource, "/")
		if len(parts) >= 3 && (parts[1] == "app" || parts[1] == "net") {
			return parts[2]
		}
		if len(parts) >= 2 {
			return parts[len(parts)-1]
		}
	}

	if idx := strings.LastIndex(resource, "/"); idx >= 0 {
		return resource[idx+1:]
	}
	// "resource-type:resource-id" form (e.g. some rds ARNs)
	if idx := strings.Index(resource, ":"); idx >= 0 {
		return resource[idx+1:]
	}
	return resource
}

// platformType derives the platform's namespaced resource type from an
// ARN. A few services need remapping because the platform does not use
// the raw ARN service name.
func platformType(parsed arn.ARN) string {
	switch parsed.Service {
	case "elasticloadbalancing":
		return "elbv2:loadbalancer"
	case "s3":
		return "s3:bucket"
	case "cloudtrail":
		return "cloudtrail:trail"
	case "lambda":
		return "lambda:function"
	}

	resource := parsed.Resource
	if idx := strings.IndexAny(resource, "/:"); idx > 0 {
		return parsed.Service + ":" + resource[:idx]
	}
	return parsed.Service + ":*"
}

// GroupByAccount splits ARNs by the account id embedded in them. ARNs
// without an account id (S3 buckets) are returned separately so the
// caller can attach them to the account under processing.
func GroupByAccount(arns []string) (map[string][]string, []string) {
	byAccount := make(map[string][]string)
	var orphans []string
	for _, raw := range arns {
		parsed, ok := ParseARN(raw)
		if !ok || parsed.AccountID == "" {
			orphans = append(orphans, raw)
			continue
		}
		byAccount[parsed.AccountID] = append(byAccount[parsed.AccountID], raw)
	}
	return byAccount, orphans
}
