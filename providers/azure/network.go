package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v4"

	"github.com/frugalops/frugal/providers"
	"github.com/frugalops/frugal/types"
)

// listPublicIPs discovers public IP addresses. An address with no IP
// configuration is allocated but bound to nothing.
func (p *Provider) listPublicIPs(ctx context.Context) ([]types.Resource, error) {
	var resources []types.Resource

	pager := p.ipClient.NewListAllPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, providers.WrapError(types.ProviderAzure, "list_public_ips",
				"failed to list public IP addresses", err)
		}

		for _, ip := range page.Value {
			if ip == nil {
				continue
			}
			resources = append(resources, p.convertPublicIP(ip))
		}
	}

	return resources, nil
}

func (p *Provider) convertPublicIP(ip *armnetwork.PublicIPAddress) types.Resource {
	state := "unattached"
	attachedTo := ""
	if ip.Properties != nil && ip.Properties.IPConfiguration != nil {
		state = "attached"
		attachedTo = stringValue(ip.Properties.IPConfiguration.ID)
	}

	name := stringValue(ip.Name)
	if ip.Properties != nil && ip.Properties.IPAddress != nil {
		name = *ip.Properties.IPAddress
	}

	return types.Resource{
		ID:          stringValue(ip.ID),
		Name:        name,
		Kind:        types.KindAddress,
		Provider:    types.ProviderAzure,
		Region:      stringValue(ip.Location),
		State:       state,
		AttachedTo:  attachedTo,
		MonthlyCost: publicIPMonthlyCost,
		Tags:        convertTags(ip.Tags),
	}
}

// ReleaseAddress deletes an unassociated public IP.
func (p *Provider) ReleaseAddress(ctx context.Context, id string) error {
	resourceGroup, name, err := groupAndName(id)
	if err != nil {
		return providers.WrapError(types.ProviderAzure, "release_address", "bad resource id", err)
	}

	poller, err := p.ipClient.BeginDelete(ctx, resourceGroup, name, nil)
	if err == nil {
		_, err = poller.PollUntilDone(ctx, nil)
	}
	if err != nil {
		return providers.WrapError(types.ProviderAzure, "release_address",
			fmt.Sprintf("failed to delete public IP %s", name), err)
	}
	return nil
}
