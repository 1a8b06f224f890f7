package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/yairfalse/omista/config"
)

var cacheClearCategory string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the response cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cached entry counts per category",
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete cached entries",
	Example: `  omista cache clear                        # everything
  omista cache clear --category inventory   # inventories only`,
	RunE: runCacheClear,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	cacheClearCmd.Flags().StringVar(&cacheClearCategory, "category", "", "Only this cache category (inventory, compliance, fallback)")
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	store, err := newStore(cfg)
	if err != nil {
		return err
	}

	stats, err := store.Stats()
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		fmt.Println("Cache is empty")
		return nil
	}

	categories := make([]string, 0, len(stats))
	total := 0
	for c, n := range stats {
		categories = append(categories, c)
		total += n
	}
	sort.Strings(categories)
	for _, c := range categories {
		fmt.Printf("  %-12s %d\n", c, stats[c])
	}
	fmt.Printf("  %-12s %d\n", "total", total)
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	store, err := newStore(cfg)
	if err != nil {
		return err
	}

	if err := store.Clear(cacheClearCategory); err != nil {
		return err
	}
	if cacheClearCategory != "" {
		fmt.Printf("Cleared %s cache\n", cacheClearCategory)
	} else {
		fmt.Println("Cleared cache")
	}
	return nil
}
