package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/yairfalse/omista/cache"
	"github.com/yairfalse/omista/config"
	"github.com/yairfalse/omista/lacework"
)

var (
	version = "0.1.0"

	configPath string
	keyFile    string
	debug      bool

	rootCmd = &cobra.Command{
		Use:   "omista",
		Short: "Compliance findings with owners attached",
		Long: `Omista - Compliance findings with owners attached

Omista pulls cloud compliance reports from the Lacework platform,
looks up every violating resource in the account's inventory, and
attaches ownership tags to each finding. Untagged resources get the
best available fallback: tags inherited from related resources,
account-level defaults, or hints inferred from the resource name.`,
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(`Omista {{.Version}} - Compliance findings with owners attached
`)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&keyFile, "api-key-file", "", "Path to the platform API key JSON file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
}

// loadConfig merges the config file with command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if keyFile != "" {
		cfg.KeyFile = keyFile
	}
	if cfg.KeyFile == "" {
		return nil, fmt.Errorf("no API key file: set --api-key-file or key_file in the config")
	}
	return cfg, nil
}

// newClient builds an authenticated platform client from the config.
func newClient(cfg *config.Config) (*lacework.Client, error) {
	creds, err := lacework.LoadCredentials(cfg.KeyFile)
	if err != nil {
		return nil, err
	}
	return lacework.NewClient(creds, lacework.DefaultRetryPolicy()), nil
}

// newStore opens the response cache under the configured directory.
func newStore(cfg *config.Config) (*cache.Store, error) {
	return cache.NewStore(cfg.CacheDir)
}
