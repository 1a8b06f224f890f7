package resolver

import (
	"regexp"
	"strings"
)

// InferredMarker prefixes every name-inferred tag string so inferred
// data can never be mistaken for real tags.
const InferredMarker = "[INFERRED]"

// envTokenRe matches environment tokens embedded in resource names,
// e.g. "app-prod2-web" or "db-uat-primary".
var envTokenRe = regexp.MustCompile(`(?i)-(sit|uat|prod|dev|stg|staging|test)(\d*)-`)

// serviceAllowList names services commonly recognizable from resource
// names.
var serviceAllowList = map[string]bool{
	"jenkins":    true,
	"gitlab":     true,
	"grafana":    true,
	"wordpress":  true,
	"moodle":     true,
	"confluence": true,
	"jira":       true,
	"airflow":    true,
	"keycloak":   true,
	"vault":      true,
}

// genericInfraWords are name tokens too generic to identify a service.
var genericInfraWords = map[string]bool{
	"aws": true, "ec2": true, "lambda": true, "rds": true, "s3": true,
	"app": true, "web": true, "api": true, "svc": true, "service": true,
	"infra": true, "internal": true, "external": true, "shared": true,
	"vpc": true, "subnet": true, "sg": true, "alb": true, "elb": true,
	"nlb": true, "lb": true, "asg": true, "tg": true, "db": true,
	"prod": true, "dev": true, "test": true, "uat": true, "sit": true,
	"stg": true, "staging": true, "sandbox": true, "main": true,
	"default": true, "new": true, "old": true, "tmp": true,
	"vol": true, "eni": true, "ami": true, "snap": true, "igw": true,
	"nat": true, "rtb": true, "acl": true,
}

// InferFromName is the last-resort heuristic: parse environment and
// service hints out of the resource's own identifier, and optionally a
// domain hint out of the account display name. Used only when direct
// tags, chain resolution, and account fallback all failed. The result
// carries the inferred marker; an empty string means nothing could be
// inferred.
func InferFromName(resourceID, accountName string) string {
	var parts []string

	if env := inferEnvironment(resourceID); env != "" {
		parts = append(parts, "env:"+env)
	}
	if service := inferService(resourceID); service != "" {
		parts = append(parts, "service:"+service)
	}
	if domain := inferAccountDomain(accountName); domain != "" {
		parts = append(parts, "domain:"+domain)
	}

	if len(parts) == 0 {
		return ""
	}
	return InferredMarker + " " + strings.Join(parts, "; ")
}

// inferEnvironment maps an embedded environment token to a coarse
// environment class.
func inferEnvironment(resourceID string) string {
	match := envTokenRe.FindStringSubmatch(resourceID)
	if match == nil {
		return ""
	}
	switch strings.ToLower(match[1]) {
	case "prod":
		return "prod"
	case "uat":
		return "uat"
	}
	return "non-prod"
}

// inferService looks for a known service token anywhere in the name, or
// falls back to a leading name token when it is specific enough.
func inferService(resourceID string) string {
	lower := strings.ToLower(resourceID)
	tokens := strings.FieldsFunc(lower, func(r rune) bool {
		return r == '-' || r == '_' || r == '.' || r == '/'
	})

	for _, token := range tokens {
		if serviceAllowList[token] {
			return token
		}
	}

	// Leading "name-" prefix: the first token often names the service,
	// unless it is a generic infrastructure word.
	if len(tokens) > 1 {
		first := tokens[0]
		if len(first) >= 3 && !genericInfraWords[first] && isAlpha(first) {
			return first
		}
	}
	return ""
}

// inferAccountDomain classifies the owning domain from the account
// display name.
func inferAccountDomain(accountName string) string {
	lower := strings.ToLower(accountName)
	if strings.Contains(lower, "corp") || strings.Contains(lower, "enterprise") {
		return "production-services"
	}
	return ""
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
