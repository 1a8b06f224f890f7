// Package config loads the run configuration from YAML and applies
// defaults for everything left unset.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yairfalse/omista/types"
)

// DefaultReportName is the compliance report fetched when none is
// configured.
const DefaultReportName = "AWS CIS Benchmark"

// Config is the tool's run configuration.
type Config struct {
	// KeyFile is the path to the platform API key JSON file.
	KeyFile string `yaml:"key_file"`
	// CacheDir holds the JSON response cache. Defaults to ~/.omista/cache.
	CacheDir string `yaml:"cache_dir"`
	// ReportName selects the compliance report to pull.
	ReportName string `yaml:"report_name"`
	// Accounts restricts runs to these AWS account ids. Empty means all
	// enabled accounts.
	Accounts []string `yaml:"accounts,omitempty"`
	// TagKeys overrides the ownership tag key names.
	TagKeys types.TagKeys `yaml:"tag_keys"`
	// Output is the CSV report path. Empty derives a dated filename.
	Output string `yaml:"output,omitempty"`
}

// Load reads and validates a config file. A missing path yields the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.CacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		c.CacheDir = filepath.Join(home, ".omista", "cache")
	}
	if c.ReportName == "" {
		c.ReportName = DefaultReportName
	}
	defaults := types.DefaultTagKeys()
	if c.TagKeys.TechnicalOwner == "" {
		c.TagKeys.TechnicalOwner = defaults.TechnicalOwner
	}
	if c.TagKeys.BusinessOwner == "" {
		c.TagKeys.BusinessOwner = defaults.BusinessOwner
	}
	if c.TagKeys.BillingProject == "" {
		c.TagKeys.BillingProject = defaults.BillingProject
	}
	if c.TagKeys.Environment == "" {
		c.TagKeys.Environment = defaults.Environment
	}
}

// Validate ensures the config is usable.
func (c *Config) Validate() error {
	if c.CacheDir == "" {
		return fmt.Errorf("cache_dir is required")
	}
	if c.ReportName == "" {
		return fmt.Errorf("report_name is required")
	}
	for _, id := range c.Accounts {
		if len(id) != 12 {
			return fmt.Errorf("account id %q is not a 12-digit AWS account id", id)
		}
	}
	return nil
}

// PreviousWeek returns the most recent complete Monday..Sunday window
// before now, the default reporting range.
func PreviousWeek(now time.Time) types.DateRange {
	// Walk back to the last Sunday, then take the week ending there.
	daysSinceSunday := int(now.Weekday())
	if daysSinceSunday == 0 {
		daysSinceSunday = 7
	}
	end := now.AddDate(0, 0, -daysSinceSunday)
	start := end.AddDate(0, 0, -6)
	const layout = "2006-01-02"
	return types.DateRange{Start: start.Format(layout), End: end.Format(layout)}
}

// CurrentWeek returns the Monday..today window containing now.
func CurrentWeek(now time.Time) types.DateRange {
	daysSinceMonday := (int(now.Weekday()) + 6) % 7
	start := now.AddDate(0, 0, -daysSinceMonday)
	const layout = "2006-01-02"
	return types.DateRange{Start: start.Format(layout), End: now.Format(layout)}
}
