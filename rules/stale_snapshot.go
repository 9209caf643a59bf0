package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/frugalops/frugal/providers"
	"github.com/frugalops/frugal/types"
)

// StaleSnapshotRule flags snapshots older than the stale age that cost
// more than the minimum floor. Saving is the full monthly cost.
type StaleSnapshotRule struct{}

func (StaleSnapshotRule) Name() string             { return "stale_snapshot" }
func (StaleSnapshotRule) Kind() types.ResourceKind { return types.KindSnapshot }

func (r StaleSnapshotRule) Evaluate(ctx context.Context, cap providers.Capability, th Thresholds) ([]types.Finding, error) {
	resources, err := cap.ListResources(ctx, types.KindSnapshot)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().AddDate(0, 0, -th.SnapshotStaleDays)

	var findings []types.Finding
	for _, res := range resources {
		if res.CreatedAt.IsZero() || res.CreatedAt.After(cutoff) {
			continue
		}
		if res.MonthlyCost < th.MinSnapshotMonthlyCost {
			continue
		}

		findings = append(findings, types.Finding{
			Provider:        cap.Name(),
			ResourceID:      res.ID,
			ResourceName:    res.Name,
			ResourceKind:    types.KindSnapshot,
			Region:          res.Region,
			Kind:            types.RecommendDelete,
			MonthlyCost:     res.MonthlyCost,
			EstimatedSaving: res.MonthlyCost,
			Reason: fmt.Sprintf("snapshot is %d days old, older than the %d day retention guideline",
				int(time.Since(res.CreatedAt).Hours()/24), th.SnapshotStaleDays),
			CurrentSpec:     types.DiskOf(res.SizeGB, res.Size),
			RecommendedSpec: types.OpaqueOf(map[string]string{"action": "delete"}),
		})
	}
	return findings, nil
}
