// Package report renders run results: a CSV file with one row per
// violating resource, and a console summary with per-account and
// per-severity breakdowns.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/yairfalse/omista/types"
)

// csvHeader is the column layout of the violations CSV. Column order is
// stable; downstream spreadsheets depend on it.
var csvHeader = []string{
	"account_id",
	"account_alias",
	"policy_id",
	"policy_title",
	"severity",
	"status",
	"region",
	"resource_arn",
	"resource_id",
	"resource_type",
	"tags",
	"tag_source",
	"fallback_reason",
	"inherited_from",
	"technical_owner",
	"business_owner",
	"billing_project",
	"environment",
	"remediation",
}

// WriteCSV writes one row per (violation, resource) pair. A violation
// with no resources still produces a single row so the finding is not
// silently dropped.
func WriteCSV(w io.Writer, violations []types.ComplianceViolation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, violation := range violations {
		if len(violation.Resources) == 0 {
			if err := cw.Write(violationRow(violation, types.EnrichedResource{})); err != nil {
				return fmt.Errorf("writing csv row: %w", err)
			}
			continue
		}
		for _, resource := range violation.Resources {
			if err := cw.Write(violationRow(violation, resource)); err != nil {
				return fmt.Errorf("writing csv row: %w", err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the violations CSV to path, creating or truncating
// the file.
func WriteCSVFile(path string, violations []types.ComplianceViolation) error {
	f, err := os.Create(path) // #nosec G304 -- output path is user-chosen
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	if err := WriteCSV(f, violations); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func violationRow(v types.ComplianceViolation, r types.EnrichedResource) []string {
	resolved := r.Resolved
	summary := resolved.TagSummary
	if summary == "" {
		summary = "N/A"
	}
	return []string{
		v.AccountID,
		v.AccountAlias,
		v.PolicyID,
		v.PolicyTitle,
		v.Severity,
		v.Status,
		r.Region,
		r.ARN,
		resolved.ResourceID,
		resolved.ResourceType,
		summary,
		string(resolved.Source),
		string(resolved.FallbackReason),
		resolved.InheritedFrom,
		resolved.TechnicalOwner,
		resolved.BusinessOwner,
		resolved.BillingProject,
		resolved.Environment,
		v.Remediation,
	}
}
