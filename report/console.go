package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/yairfalse/omista/orchestrator"
	"github.com/yairfalse/omista/types"
)

var severityColors = map[string]*color.Color{
	"Critical": color.New(color.FgRed, color.Bold),
	"High":     color.New(color.FgRed),
	"Medium":   color.New(color.FgYellow),
	"Low":      color.New(color.FgCyan),
	"Info":     color.New(color.FgWhite),
}

// severityOrder ranks labels for display, worst first.
var severityOrder = []string{"Critical", "High", "Medium", "Low", "Info", "Unknown"}

const timeRound = 100 * time.Millisecond

// PrintSummary renders a run summary: a per-account violations table,
// severity totals, and the tag-source breakdown.
func PrintSummary(w io.Writer, result *orchestrator.RunResult) {
	fmt.Fprintf(w, "\nCompliance run %s (%s)\n", result.RunID, result.ReportName)
	fmt.Fprintf(w, "Accounts processed: %d, skipped: %d, duration: %s\n\n",
		result.AccountsProcessed, result.AccountsSkipped, result.Duration.Round(timeRound))

	printAccountTable(w, result.Violations)
	printSeverityTotals(w, result.Violations)
	printSourceBreakdown(w, result)
}

func printAccountTable(w io.Writer, violations []types.ComplianceViolation) {
	type accountRow struct {
		alias      string
		violations int
		resources  int
	}
	byAccount := make(map[string]*accountRow)
	for _, v := range violations {
		row, ok := byAccount[v.AccountID]
		if !ok {
			row = &accountRow{alias: v.AccountAlias}
			byAccount[v.AccountID] = row
		}
		row.violations++
		row.resources += v.ResourceCount
	}

	ids := make([]string, 0, len(byAccount))
	for id := range byAccount {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Account", "Alias", "Violations", "Resources"})
	for _, id := range ids {
		row := byAccount[id]
		table.Append([]string{id, row.alias, fmt.Sprint(row.violations), fmt.Sprint(row.resources)})
	}
	table.Render()
}

func printSeverityTotals(w io.Writer, violations []types.ComplianceViolation) {
	counts := make(map[string]int)
	for _, v := range violations {
		counts[v.Severity]++
	}

	fmt.Fprintln(w, "\nBy severity:")
	for _, label := range severityOrder {
		n, ok := counts[label]
		if !ok {
			continue
		}
		c, ok := severityColors[label]
		if !ok {
			c = color.New(color.FgWhite)
		}
		fmt.Fprintf(w, "  %s: %d\n", c.Sprint(label), n)
	}
}

func printSourceBreakdown(w io.Writer, result *orchestrator.RunResult) {
	if len(result.SourceCounts) == 0 {
		return
	}
	fmt.Fprintln(w, "\nTag sources:")
	for _, source := range []types.TagSource{
		types.TagSourceInventory,
		types.TagSourcePartialFallback,
		types.TagSourceFallback,
		types.TagSourceNone,
	} {
		if n := result.SourceCounts[source]; n > 0 {
			fmt.Fprintf(w, "  %s: %d\n", source, n)
		}
	}
}
