package rules

import (
	"context"
	"fmt"

	"github.com/frugalops/frugal/providers"
	"github.com/frugalops/frugal/types"
)

// IdleComputeRule flags running instances whose average CPU over the
// metric window sits below the idle threshold. Comparison is strictly
// below: an instance at exactly the threshold is not flagged.
type IdleComputeRule struct{}

func (IdleComputeRule) Name() string             { return "idle_compute" }
func (IdleComputeRule) Kind() types.ResourceKind { return types.KindCompute }

func (r IdleComputeRule) Evaluate(ctx context.Context, cap providers.Capability, th Thresholds) ([]types.Finding, error) {
	resources, err := cap.ListResources(ctx, types.KindCompute)
	if err != nil {
		return nil, err
	}

	var findings []types.Finding
	for _, res := range resources {
		if !res.IsRunning() {
			continue
		}

		avg, ok, err := cap.MetricAverage(ctx, res.ID, providers.MetricCPUAverage, th.MetricWindowDays)
		if err != nil || !ok {
			// One unreadable instance never aborts the rule.
			continue
		}
		if avg >= th.CPUIdlePercent {
			continue
		}

		findings = append(findings, r.finding(cap.Name(), res, avg, th))
	}
	return findings, nil
}

func (r IdleComputeRule) finding(provider types.Provider, res types.Resource, avgCPU float64, th Thresholds) types.Finding {
	saving := res.MonthlyCost * 0.5
	recommended := types.OpaqueOf(map[string]string{"note": "move to a smaller instance size"})

	if smaller, ratio, ok := smallerSize(provider, res.Size); ok {
		saving = res.MonthlyCost * (1 - ratio)
		recommended = types.ComputeOf(smaller)
	}

	return types.Finding{
		Provider:        provider,
		ResourceID:      res.ID,
		ResourceName:    res.Name,
		ResourceKind:    types.KindCompute,
		Region:          res.Region,
		Kind:            types.RecommendRightSize,
		MonthlyCost:     res.MonthlyCost,
		EstimatedSaving: saving,
		Reason: fmt.Sprintf("average CPU %.1f%% over the last %d days, below the %.0f%% idle threshold",
			avgCPU, th.MetricWindowDays, th.CPUIdlePercent),
		CurrentSpec:     types.ComputeOf(res.Size),
		RecommendedSpec: recommended,
	}
}
