package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/frugalops/frugal/rules"
	"github.com/frugalops/frugal/types"
)

// Duration decodes yaml strings like "30m" or "1h".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config represents the main configuration
type Config struct {
	Version      string           `yaml:"version"`
	WorkspaceID  string           `yaml:"workspace_id"`
	StorageDir   string           `yaml:"storage_dir"`
	ScanInterval Duration         `yaml:"scan_interval,omitempty"`
	MetricsAddr  string           `yaml:"metrics_addr,omitempty"`
	Providers    []ProviderConfig `yaml:"providers"`
	Thresholds   rules.Thresholds `yaml:"thresholds,omitempty"`
	Telemetry    Telemetry        `yaml:"telemetry,omitempty"`
}

// ProviderConfig is one cloud account to scan. Credentials come from
// the environment or the ambient SDK chain, never from this file.
type ProviderConfig struct {
	Name      types.Provider `yaml:"name"`
	AccountID string         `yaml:"account_id"`
	Region    string         `yaml:"region"`
}

// Telemetry configures the OTEL export targets.
type Telemetry struct {
	Endpoint    string `yaml:"endpoint,omitempty"`
	Insecure    bool   `yaml:"insecure,omitempty"`
	Environment string `yaml:"environment,omitempty"`
}

// DefaultConfig returns a runnable local configuration.
func DefaultConfig() *Config {
	return &Config{
		Version:      "1",
		WorkspaceID:  "default",
		StorageDir:   ".frugal",
		ScanInterval: Duration(time.Hour),
		MetricsAddr:  ":9090",
		Thresholds:   rules.DefaultThresholds(),
	}
}

// LoadConfig loads configuration from file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate ensures config has required fields
func (c *Config) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("version is required")
	}
	if c.WorkspaceID == "" {
		return fmt.Errorf("workspace_id is required")
	}
	if c.StorageDir == "" {
		return fmt.Errorf("storage_dir is required")
	}
	if len(c.Providers) == 0 {
		return fmt.Errorf("at least one provider is required")
	}
	for i, p := range c.Providers {
		switch p.Name {
		case types.ProviderAWS, types.ProviderAzure:
		default:
			return fmt.Errorf("providers[%d]: unknown provider %q", i, p.Name)
		}
		if p.Region == "" {
			return fmt.Errorf("providers[%d]: region is required", i)
		}
	}
	if c.ScanInterval < 0 {
		return fmt.Errorf("scan_interval must not be negative")
	}
	return nil
}
