package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config represents the complete configuration for query compilation.
type Config struct {
	// Logging configuration
	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`

	// Postgres DSN used by the plan-explain CLI (optional)
	DSN string `json:"dsn"`

	// Planner configuration
	Planner PlannerConfig `json:"planner"`

	// Catalog configuration
	Catalog CatalogConfig `json:"catalog"`

	// Executor configuration
	Executor ExecutorConfig `json:"executor"`
}

// PlannerConfig represents planner-specific configuration.
type PlannerConfig struct {
	// InListFanout is the largest $in list answered by a single
	// multi-value scan. Larger lists fan out into one scan per value.
	InListFanout int `json:"in_list_fanout"`

	// EnableInRewrite seeds the in_query_rewrite feature flag.
	EnableInRewrite bool `json:"enable_in_rewrite"`

	// ForceRuntimeTextScan forces text predicates to be rechecked at
	// runtime even when the index reports an exact match.
	ForceRuntimeTextScan bool `json:"force_runtime_text_scan"`
}

// CatalogConfig represents catalog-specific configuration.
type CatalogConfig struct {
	// DefaultPrimaryKeyPath is the document path collections key on
	// unless declared otherwise.
	DefaultPrimaryKeyPath string `json:"default_primary_key_path"`
}

// ExecutorConfig represents execution harness configuration.
type ExecutorConfig struct {
	// BatchSize is the number of documents fetched per bitmap heap
	// scan batch.
	BatchSize int `json:"batch_size"`

	// EnableStatistics controls collection stat tracking.
	EnableStatistics bool `json:"enable_statistics"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "json",
		DSN:       "",
		Planner: PlannerConfig{
			InListFanout:         100,
			EnableInRewrite:      true,
			ForceRuntimeTextScan: false,
		},
		Catalog: CatalogConfig{
			DefaultPrimaryKeyPath: "_id",
		},
		Executor: ExecutorConfig{
			BatchSize:        1024,
			EnableStatistics: true,
		},
	}
}

// LoadFromFile loads configuration from a JSON file.
func LoadFromFile(path string) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse JSON
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Validate and normalize
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromFlags merges command-line flags into the configuration.
func (c *Config) LoadFromFlags(dsn string, logLevel string, inListFanout int) {
	if dsn != "" {
		c.DSN = dsn
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	if inListFanout > 0 {
		c.Planner.InListFanout = inListFanout
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	// Validate log level
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
		// Valid
	default:
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	// Validate log format
	switch c.LogFormat {
	case "json", "text":
		// Valid
	default:
		return fmt.Errorf("invalid log format: %s", c.LogFormat)
	}

	// Validate planner configuration
	if err := c.validatePlanner(); err != nil {
		return fmt.Errorf("invalid planner configuration: %w", err)
	}

	// Validate catalog configuration
	if c.Catalog.DefaultPrimaryKeyPath == "" {
		return fmt.Errorf("default primary key path must not be empty")
	}

	// Validate executor configuration
	if c.Executor.BatchSize < 1 {
		return fmt.Errorf("executor batch size must be at least 1")
	}

	return nil
}

// validatePlanner validates planner-specific configuration
func (c *Config) validatePlanner() error {
	if c.Planner.InListFanout < 1 {
		return fmt.Errorf("in list fanout must be at least 1")
	}
	return nil
}
