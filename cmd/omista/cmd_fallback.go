package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yairfalse/omista/config"
	"github.com/yairfalse/omista/inventory"
	"github.com/yairfalse/omista/profiler"
	"github.com/yairfalse/omista/types"
)

var fallbackAccount string

// fallbackCmd prints one account's tag fallback profile.
var fallbackCmd = &cobra.Command{
	Use:   "fallback",
	Short: "Show an account's tag fallback profile",
	Long: `Analyze one account's inventory and print its fallback profile:
tagging coverage, the most common owner values, and the tag value
distributions used as defaults for untagged resources.`,
	Example: `  omista fallback --account 111111111111`,
	RunE:    runFallback,
}

func init() {
	rootCmd.AddCommand(fallbackCmd)

	fallbackCmd.Flags().StringVar(&fallbackAccount, "account", "", "AWS account id (required)")
	_ = fallbackCmd.MarkFlagRequired("account")
}

func runFallback(cmd *cobra.Command, args []string) error {
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

	fetcher := inventory.NewFetcher(client, store)
	inv, err := fetcher.GetAccountInventory(cmd.Context(), fallbackAccount, config.PreviousWeek(time.Now()), false)
	if err != nil {
		return err
	}

	prof := profiler.NewProfiler(store, cfg.TagKeys)
	profile, err := prof.GetFallbackProfile(cmd.Context(), inv, fallbackAccount, "")
	if err != nil {
		return err
	}

	fmt.Printf("Account %s fallback profile\n", profile.AccountID)
	fmt.Printf("  Resources: %d (%d tagged, %.1f%% coverage)\n",
		profile.TotalResources, profile.TaggedResources, profile.TaggingCoverage)
	fmt.Printf("  Environment coverage: %.1f%%\n", profile.EnvironmentCoverage)
	fmt.Printf("  Default technical owner: %s\n", formatDefault(profile.DefaultTechnicalOwner))
	fmt.Printf("  Default business owner:  %s\n", formatDefault(profile.DefaultBusinessOwner))
	fmt.Printf("  Default billing project: %s\n", formatDefault(profile.DefaultBillingProject))
	fmt.Printf("  Default environment:     %s\n", profile.DefaultEnvironment)

	printDistribution("Technical owners", profile.TechnicalOwnerDistribution)
	printDistribution("Business owners", profile.BusinessOwnerDistribution)
	printDistribution("Environments", profile.EnvironmentDistribution)
	return nil
}

func formatDefault(v *types.ValueCount) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%s (%d resources)", v.Value, v.Count)
}

func printDistribution(title string, dist []types.ValueCount) {
	if len(dist) == 0 {
		return
	}
	fmt.Printf("\n  %s:\n", title)
	for _, v := range dist {
		fmt.Printf("    %-30s %d\n", v.Value, v.Count)
	}
}
