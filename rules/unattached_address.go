package rules

import (
	"context"

	"github.com/frugalops/frugal/providers"
	"github.com/frugalops/frugal/types"
)

// Flat monthly price of an idle public address per provider.
var addressMonthlyPrice = map[types.Provider]float64{
	types.ProviderAWS:   3.60,
	types.ProviderAzure: 2.90,
}

// UnattachedAddressRule flags public/floating IP addresses with no
// resource association. Saving is the flat per-provider price.
type UnattachedAddressRule struct{}

func (UnattachedAddressRule) Name() string             { return "unattached_address" }
func (UnattachedAddressRule) Kind() types.ResourceKind { return types.KindAddress }

func (r UnattachedAddressRule) Evaluate(ctx context.Context, cap providers.Capability, th Thresholds) ([]types.Finding, error) {
	resources, err := cap.ListResources(ctx, types.KindAddress)
	if err != nil {
		return nil, err
	}

	price, ok := addressMonthlyPrice[cap.Name()]
	if !ok {
		price = 3.00
	}

	var findings []types.Finding
	for _, res := range resources {
		if res.AttachedTo != "" {
			continue
		}

		findings = append(findings, types.Finding{
			Provider:        cap.Name(),
			ResourceID:      res.ID,
			ResourceName:    res.Name,
			ResourceKind:    types.KindAddress,
			Region:          res.Region,
			Kind:            types.RecommendDelete,
			MonthlyCost:     price,
			EstimatedSaving: price,
			Reason:          "public IP address is not associated with any resource",
			CurrentSpec:     types.OpaqueOf(map[string]string{"address": res.Name}),
			RecommendedSpec: types.OpaqueOf(map[string]string{"action": "release"}),
		})
	}
	return findings, nil
}
