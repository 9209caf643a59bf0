package rules

import (
	"context"
	"fmt"

	"github.com/frugalops/frugal/providers"
	"github.com/frugalops/frugal/types"
)

// Fraction of a database's cost saved by stopping it. Storage keeps
// billing after a stop, so this is not the full cost.
const dbStopSavingFraction = 0.9

// IdleDatabaseRule flags managed databases whose average connection
// count over the metric window is below the idle threshold.
type IdleDatabaseRule struct{}

func (IdleDatabaseRule) Name() string             { return "idle_database" }
func (IdleDatabaseRule) Kind() types.ResourceKind { return types.KindDatabase }

func (r IdleDatabaseRule) Evaluate(ctx context.Context, cap providers.Capability, th Thresholds) ([]types.Finding, error) {
	resources, err := cap.ListResources(ctx, types.KindDatabase)
	if err != nil {
		return nil, err
	}

	var findings []types.Finding
	for _, res := range resources {
		if !res.IsRunning() {
			continue
		}

		avg, ok, err := cap.MetricAverage(ctx, res.ID, providers.MetricDBConnections, th.MetricWindowDays)
		if err != nil || !ok {
			continue
		}
		if avg >= th.DBIdleConnections {
			continue
		}

		findings = append(findings, types.Finding{
			Provider:        cap.Name(),
			ResourceID:      res.ID,
			ResourceName:    res.Name,
			ResourceKind:    types.KindDatabase,
			Region:          res.Region,
			Kind:            types.RecommendStop,
			MonthlyCost:     res.MonthlyCost,
			EstimatedSaving: res.MonthlyCost * dbStopSavingFraction,
			Reason: fmt.Sprintf("average of %.1f connections over the last %d days, below the %.0f connection threshold",
				avg, th.MetricWindowDays, th.DBIdleConnections),
			CurrentSpec:     types.DatabaseOf(res.Size, res.Tags["engine"]),
			RecommendedSpec: types.OpaqueOf(map[string]string{"action": "stop"}),
		})
	}
	return findings, nil
}
