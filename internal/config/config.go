// Package config provides configuration types and defaults for gridcat.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gridcat/gridcat/internal/log"
)

// Config holds all configuration options for gridcat.
type Config struct {
	// DBPath is the catalog database location.
	// Default: ~/.gridcat/catalog.db
	DBPath string `mapstructure:"db_path"`

	// AutoRefresh re-reads the catalog when the database file changes.
	AutoRefresh bool `mapstructure:"auto_refresh"`

	// DefinitionFiles are YAML definition documents applied on startup,
	// in order. Paths are resolved relative to the config file.
	DefinitionFiles []string `mapstructure:"definition_files"`

	Cache   CacheConfig     `mapstructure:"cache"`
	Tracing TracingConfig   `mapstructure:"tracing"`
	Flags   map[string]bool `mapstructure:"flags"`
}

// CacheConfig holds reference-system cache configuration.
type CacheConfig struct {
	// Enabled controls the read-through reference-system cache.
	// Default: true
	Enabled *bool `mapstructure:"enabled"`

	// TTLMinutes is how long cached reference systems stay fresh.
	// Default: 5
	TTLMinutes int `mapstructure:"ttl_minutes"`
}

// IsEnabled returns whether the cache is enabled (defaults to true if nil).
func (c CacheConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// TracingConfig holds distributed tracing configuration for ingestion.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	// Default: "file"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for "file" exporter.
	// Default: ~/.config/gridcat/traces/traces.jsonl
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector endpoint for "otlp" exporter.
	// Default: "localhost:4317"
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	// 1.0 = all traces, 0.1 = 10% of traces
	// Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate"`
}

// DefaultDBPath returns the default catalog database location.
// Returns ~/.gridcat/catalog.db or empty string if home dir unavailable.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".gridcat", "catalog.db")
}

// DefaultTracesFilePath returns the default path for trace file export.
// Returns ~/.config/gridcat/traces/traces.jsonl or empty string if home dir unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "gridcat", "traces", "traces.jsonl")
}

// Validate checks the configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func Validate(cfg Config) error {
	if err := ValidateCache(cfg.Cache); err != nil {
		return err
	}
	return ValidateTracing(cfg.Tracing)
}

// ValidateCache checks cache configuration for errors.
func ValidateCache(cache CacheConfig) error {
	if cache.TTLMinutes < 0 {
		return fmt.Errorf("cache.ttl_minutes must not be negative, got %d", cache.TTLMinutes)
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
			// Valid
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	// Only validate path requirements when tracing is enabled
	if tracing.Enabled {
		if tracing.Exporter == "file" && tracing.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		DBPath:      DefaultDBPath(),
		AutoRefresh: true,
		Cache: CacheConfig{
			TTLMinutes: 5,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     "", // Derived from config dir at runtime
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
	}
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Gridcat Configuration

# Path to the catalog database (default: ~/.gridcat/catalog.db)
# db_path: /path/to/catalog.db

# Re-read the catalog when the database file changes
auto_refresh: true

# Definition documents applied on startup, in order.
# Paths are resolved relative to this config file.
# definition_files:
#   - definitions/core.yaml
#   - definitions/landsat.yaml

# Reference-system cache
cache:
  enabled: true     # Read-through cache for reference-system lookups
  ttl_minutes: 5    # How long cached entries stay fresh

# Distributed tracing configuration
# Enables end-to-end visibility into ingestion and fan-out
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/gridcat/traces/traces.jsonl  # Output file for file exporter
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)
#
# Example: Send traces to Jaeger via OTLP
# tracing:
#   enabled: true
#   exporter: otlp
#   otlp_endpoint: jaeger.internal:4317
#   sample_rate: 0.1  # Sample 10% of traces
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
