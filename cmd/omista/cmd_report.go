package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/yairfalse/omista/config"
	"github.com/yairfalse/omista/inventory"
	"github.com/yairfalse/omista/orchestrator"
	"github.com/yairfalse/omista/profiler"
	"github.com/yairfalse/omista/report"
	"github.com/yairfalse/omista/resolver"
	"github.com/yairfalse/omista/types"
)

var (
	reportStartDate   string
	reportEndDate     string
	reportCurrentWeek bool
	reportName        string
	reportAccounts    []string
	reportOutput      string
	reportForce       bool
	reportClearCache  bool
	reportNoTags      bool
)

// reportCmd runs the full pipeline: accounts, compliance, enrichment, CSV.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the enriched compliance report",
	Long: `Run a full compliance reporting cycle:
- Discover enabled AWS accounts
- Fetch each account's compliance report
- Resolve ownership tags for every violating resource
- Write one CSV row per violating resource`,
	Example: `  omista report                                  # previous Mon-Sun window
  omista report --current-week                   # week to date
  omista report --aws-account 111111111111       # one account only
  omista report --report "AWS NIST 800-53 rev5"  # another report
  omista report --no-tags                        # skip tag enrichment
  omista report --force-refresh                  # bypass the cache`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportStartDate, "start-date", "", "Window start (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportEndDate, "end-date", "", "Window end (YYYY-MM-DD)")
	reportCmd.Flags().BoolVar(&reportCurrentWeek, "current-week", false, "Use the current week instead of the previous one")
	reportCmd.Flags().StringVar(&reportName, "report", "", "Compliance report name")
	reportCmd.Flags().StringSliceVar(&reportAccounts, "aws-account", nil, "Restrict to these AWS account ids")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "CSV output path")
	reportCmd.Flags().BoolVar(&reportForce, "force-refresh", false, "Bypass cached API responses")
	reportCmd.Flags().BoolVar(&reportClearCache, "clear-cache", false, "Clear the cache before running")
	reportCmd.Flags().BoolVar(&reportNoTags, "no-tags", false, "Skip tag enrichment")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	store, err := newStore(cfg)
	if err != nil {
		return err
	}

	if reportClearCache {
		if err := store.Clear(""); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
	}

	name := cfg.ReportName
	if reportName != "" {
		name = reportName
	}
	accounts := cfg.Accounts
	if len(reportAccounts) > 0 {
		accounts = reportAccounts
	}

	orch := orchestrator.New(
		client,
		inventory.NewFetcher(client, store),
		profiler.NewProfiler(store, cfg.TagKeys),
		resolver.NewTagResolver(cfg.TagKeys),
		store,
	)

	result, err := orch.Run(cmd.Context(), orchestrator.RunRequest{
		ReportName:     name,
		Dates:          reportDates(),
		AccountFilter:  accounts,
		ForceRefresh:   reportForce,
		SkipEnrichment: reportNoTags,
	})
	if err != nil {
		return err
	}

	output := reportOutput
	if output == "" {
		output = cfg.Output
	}
	if output == "" {
		output = fmt.Sprintf("compliance_report_%s.csv", time.Now().Format("2006-01-02"))
	}
	if err := report.WriteCSVFile(output, result.Violations); err != nil {
		return err
	}

	report.PrintSummary(os.Stdout, result)
	fmt.Printf("\nReport written to %s\n", output)
	return nil
}

// reportDates resolves the reporting window from the date flags.
func reportDates() types.DateRange {
	if reportStartDate != "" || reportEndDate != "" {
		return types.DateRange{Start: reportStartDate, End: reportEndDate}
	}
	if reportCurrentWeek {
		return config.CurrentWeek(time.Now())
	}
	return config.PreviousWeek(time.Now())
}
