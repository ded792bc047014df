// Package common provides shared utilities for Folio.
package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Folio
type Config struct {
	Environment string           `toml:"environment"`
	Portfolios  []string         `toml:"portfolios"`
	Storage     StorageConfig    `toml:"storage"`
	Returns     ReturnsConfig    `toml:"returns"`
	Compaction  CompactionConfig `toml:"compaction"`
	Logging     LoggingConfig    `toml:"logging"`
}

// DefaultPortfolio returns the first portfolio in the list (the default), or empty string.
func (c *Config) DefaultPortfolio() string {
	if len(c.Portfolios) > 0 {
		return c.Portfolios[0]
	}
	return ""
}

// StorageConfig holds storage configuration.
type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig holds BadgerDB configuration
type BadgerConfig struct {
	Path string `toml:"path"`
}

// ReturnsConfig holds the tiered-return reporting thresholds.
// Positions held less than SimpleCutoffDays report a simple percentage;
// positions held less than AnnualCutoffDays report a de-annualized period
// return; everything older reports the annualized rate directly.
type ReturnsConfig struct {
	SimpleCutoffDays int `toml:"simple_cutoff_days"`
	AnnualCutoffDays int `toml:"annual_cutoff_days"`
}

// CompactionConfig holds price-history compaction configuration
type CompactionConfig struct {
	RecentWindowMonths int     `toml:"recent_window_months"` // keep everything newer than this
	OldWindowYears     int     `toml:"old_window_years"`     // weekly resolution older than this
	MinChangePct       float64 `toml:"min_change_pct"`       // medium-window redundancy threshold
	DeleteBatchSize    int     `toml:"delete_batch_size"`    // points per delete batch
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Format     string   `toml:"format"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "prod",
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "data/folio",
			},
		},
		Returns: ReturnsConfig{
			SimpleCutoffDays: 30,
			AnnualCutoffDays: 365,
		},
		Compaction: CompactionConfig{
			RecentWindowMonths: 6,
			OldWindowYears:     2,
			MinChangePct:       0.5,
			DeleteBatchSize:    100,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			Outputs:    []string{"console", "file"},
			FilePath:   "./logs/folio.log",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	// Apply environment overrides
	applyEnvOverrides(config)

	// Normalize environment aliases (development → dev, production → prod)
	config.Environment = normalizeEnvironment(config.Environment)

	validateCompaction(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("FOLIO_ENV"); env != "" {
		config.Environment = env
	}

	if level := os.Getenv("FOLIO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("FOLIO_DATA_PATH"); path != "" {
		config.Storage.Badger.Path = filepath.Join(path, "folio")
	}

	if batch := os.Getenv("FOLIO_DELETE_BATCH_SIZE"); batch != "" {
		if n, err := strconv.Atoi(batch); err == nil && n > 0 {
			config.Compaction.DeleteBatchSize = n
		}
	}

	if dp := os.Getenv("FOLIO_DEFAULT_PORTFOLIO"); dp != "" {
		// Set as first portfolio (default), preserving any others
		if len(config.Portfolios) == 0 {
			config.Portfolios = []string{dp}
		} else if config.Portfolios[0] != dp {
			filtered := []string{dp}
			for _, p := range config.Portfolios {
				if p != dp {
					filtered = append(filtered, p)
				}
			}
			config.Portfolios = filtered
		}
	}
}

// IsProduction returns true if running in production mode.
// The environment value is normalized at load time: "development" → "dev", "production" → "prod".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "prod"
}

// normalizeEnvironment maps environment aliases to their canonical short forms.
// "development" → "dev", "production" → "prod". All other values pass through unchanged.
func normalizeEnvironment(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "development":
		return "dev"
	case "production":
		return "prod"
	default:
		return env
	}
}

// validateCompaction clamps nonsensical compaction settings back to defaults.
// A zero or negative threshold would keep every medium-window point, which is
// a legal (if pointless) configuration, so only structural fields are clamped.
func validateCompaction(config *Config) {
	if config.Compaction.RecentWindowMonths <= 0 {
		config.Compaction.RecentWindowMonths = 6
	}
	if config.Compaction.OldWindowYears <= 0 {
		config.Compaction.OldWindowYears = 2
	}
	if config.Compaction.DeleteBatchSize <= 0 {
		config.Compaction.DeleteBatchSize = 100
	}
	if config.Returns.SimpleCutoffDays <= 0 {
		config.Returns.SimpleCutoffDays = 30
	}
	// Inverted tiers are unrecoverable piecemeal: resetting only the annual
	// cutoff could still land below a large simple cutoff, so both go back
	// to defaults together.
	if config.Returns.AnnualCutoffDays <= config.Returns.SimpleCutoffDays {
		config.Returns.SimpleCutoffDays = 30
		config.Returns.AnnualCutoffDays = 365
	}
}
