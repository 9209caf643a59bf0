package config

import (
	"os"
	"testing"
	"time"

	"github.com/frugalops/frugal/types"
)

func TestLoadConfig(t *testing.T) {
	content := `
version: "1"
workspace_id: ws-prod
storage_dir: /var/lib/frugal
scan_interval: 30m

providers:
  - name: aws
    account_id: "123456789012"
    region: us-east-1
  - name: azure
    account_id: sub-0001
    region: eastus

thresholds:
  cpu_idle_percent: 3.0
`
	tmpfile, err := os.CreateTemp("", "frugal-config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = os.Remove(tmpfile.Name())
	}()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(tmpfile.Name())
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.WorkspaceID != "ws-prod" {
		t.Errorf("WorkspaceID = %v, want ws-prod", cfg.WorkspaceID)
	}
	if time.Duration(cfg.ScanInterval) != 30*time.Minute {
		t.Errorf("ScanInterval = %v, want 30m", cfg.ScanInterval)
	}
	if len(cfg.Providers) != 2 {
		t.Fatalf("Providers count = %v, want 2", len(cfg.Providers))
	}
	if cfg.Providers[1].Name != types.ProviderAzure {
		t.Errorf("Providers[1].Name = %v, want azure", cfg.Providers[1].Name)
	}
	if cfg.Thresholds.CPUIdlePercent != 3.0 {
		t.Errorf("CPUIdlePercent = %v, want 3.0 (override)", cfg.Thresholds.CPUIdlePercent)
	}
	if cfg.Thresholds.SnapshotStaleDays != 90 {
		t.Errorf("SnapshotStaleDays = %v, want default 90", cfg.Thresholds.SnapshotStaleDays)
	}
	if cfg.MetricsAddr != ":9090" {
		t.Errorf("MetricsAddr = %v, want default :9090", cfg.MetricsAddr)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Version:     "1",
			WorkspaceID: "ws-1",
			StorageDir:  ".frugal",
			Providers: []ProviderConfig{
				{Name: types.ProviderAWS, Region: "us-east-1"},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(*Config) {}, wantErr: false},
		{name: "missing version", mutate: func(c *Config) { c.Version = "" }, wantErr: true},
		{name: "missing workspace", mutate: func(c *Config) { c.WorkspaceID = "" }, wantErr: true},
		{name: "missing storage dir", mutate: func(c *Config) { c.StorageDir = "" }, wantErr: true},
		{name: "no providers", mutate: func(c *Config) { c.Providers = nil }, wantErr: true},
		{name: "unknown provider", mutate: func(c *Config) { c.Providers[0].Name = "gcp" }, wantErr: true},
		{name: "provider without region", mutate: func(c *Config) { c.Providers[0].Region = "" }, wantErr: true},
		{name: "negative interval", mutate: func(c *Config) { c.ScanInterval = Duration(-time.Minute) }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
