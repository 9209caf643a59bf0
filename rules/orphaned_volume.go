package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/frugalops/frugal/providers"
	"github.com/frugalops/frugal/types"
)

// OrphanedVolumeRule flags detached volumes older than the orphan age.
// Deleting a volume is non-reversible, so the saving is the full
// monthly cost.
type OrphanedVolumeRule struct{}

func (OrphanedVolumeRule) Name() string             { return "orphaned_volume" }
func (OrphanedVolumeRule) Kind() types.ResourceKind { return types.KindVolume }

func (r OrphanedVolumeRule) Evaluate(ctx context.Context, cap providers.Capability, th Thresholds) ([]types.Finding, error) {
	resources, err := cap.ListResources(ctx, types.KindVolume)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().AddDate(0, 0, -th.OrphanAgeDays)

	var findings []types.Finding
	for _, res := range resources {
		if !res.IsDetached() {
			continue
		}
		if res.CreatedAt.IsZero() || res.CreatedAt.After(cutoff) {
			continue
		}
		// Skip sub-threshold noise.
		if res.MonthlyCost < th.MinDiskMonthlyCost {
			continue
		}

		findings = append(findings, types.Finding{
			Provider:        cap.Name(),
			ResourceID:      res.ID,
			ResourceName:    res.Name,
			ResourceKind:    types.KindVolume,
			Region:          res.Region,
			Kind:            types.RecommendDelete,
			MonthlyCost:     res.MonthlyCost,
			EstimatedSaving: res.MonthlyCost,
			Reason: fmt.Sprintf("volume detached and older than %d days (created %s)",
				th.OrphanAgeDays, res.CreatedAt.Format("2006-01-02")),
			CurrentSpec:     types.DiskOf(res.SizeGB, res.Size),
			RecommendedSpec: types.OpaqueOf(map[string]string{"action": "delete"}),
		})
	}
	return findings, nil
}
