// Package rules holds the waste detection catalog. Each rule is
// independent, consumes only provider read operations, and skips
// malformed resources rather than failing the whole rule.
package rules

import (
	"context"

	"github.com/frugalops/frugal/providers"
	"github.com/frugalops/frugal/types"
)

// Thresholds tune the detection rules. Zero value is not usable;
// start from DefaultThresholds.
type Thresholds struct {
	MetricWindowDays       int     `yaml:"metric_window_days"`
	CPUIdlePercent         float64 `yaml:"cpu_idle_percent"`
	DBIdleConnections      float64 `yaml:"db_idle_connections"`
	OrphanAgeDays          int     `yaml:"orphan_age_days"`
	SnapshotStaleDays      int     `yaml:"snapshot_stale_days"`
	MinDiskMonthlyCost     float64 `yaml:"min_disk_monthly_cost"`
	MinSnapshotMonthlyCost float64 `yaml:"min_snapshot_monthly_cost"`
}

// DefaultThresholds returns the stock detection policy.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MetricWindowDays:       7,
		CPUIdlePercent:         5.0,
		DBIdleConnections:      5.0,
		OrphanAgeDays:          7,
		SnapshotStaleDays:      90,
		MinDiskMonthlyCost:     0.50,
		MinSnapshotMonthlyCost: 0.50,
	}
}

// Rule detects one class of waste for one resource kind.
type Rule interface {
	Name() string
	Kind() types.ResourceKind
	Evaluate(ctx context.Context, cap providers.Capability, th Thresholds) ([]types.Finding, error)
}

// Catalog returns the full detection catalog.
func Catalog() []Rule {
	return []Rule{
		IdleComputeRule{},
		OrphanedVolumeRule{},
		UnattachedAddressRule{},
		IdleDatabaseRule{},
		StaleSnapshotRule{},
	}
}
