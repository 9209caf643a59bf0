package azure

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v4"

	"github.com/frugalops/frugal/providers"
	"github.com/frugalops/frugal/types"
)

// listVirtualMachines discovers VMs across the subscription.
// statusOnly=true makes ListAll include the instance view, which
// carries the power state.
func (p *Provider) listVirtualMachines(ctx context.Context) ([]types.Resource, error) {
	var resources []types.Resource

	pager := p.vmClient.NewListAllPager(&armcompute.VirtualMachinesClientListAllOptions{
		StatusOnly: to.Ptr("true"),
	})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, providers.WrapError(types.ProviderAzure, "list_vms",
				"failed to list virtual machines", err)
		}

		for _, vm := range page.Value {
			if vm == nil || vm.Properties == nil {
				continue
			}
			resources = append(resources, p.convertVM(vm))
		}
	}

	return resources, nil
}

func (p *Provider) convertVM(vm *armcompute.VirtualMachine) types.Resource {
	size := ""
	if vm.Properties.HardwareProfile != nil && vm.Properties.HardwareProfile.VMSize != nil {
		size = string(*vm.Properties.HardwareProfile.VMSize)
	}

	createdAt := vm.Properties.TimeCreated

	resource := types.Resource{
		ID:          stringValue(vm.ID),
		Name:        stringValue(vm.Name),
		Kind:        types.KindCompute,
		Provider:    types.ProviderAzure,
		Region:      stringValue(vm.Location),
		State:       vmPowerState(vm),
		Size:        size,
		MonthlyCost: vmMonthlyCost(size),
		Tags:        convertTags(vm.Tags),
	}
	if createdAt != nil {
		resource.CreatedAt = *createdAt
	}
	return resource
}

// vmPowerState maps instance view statuses like "PowerState/running"
// onto the neutral state vocabulary.
func vmPowerState(vm *armcompute.VirtualMachine) string {
	if vm.Properties.InstanceView == nil {
		return "unknown"
	}
	for _, status := range vm.Properties.InstanceView.Statuses {
		code := stringValue(status.Code)
		if state, ok := strings.CutPrefix(code, "PowerState/"); ok {
			if state == "deallocated" || state == "stopped" {
				return "stopped"
			}
			return state
		}
	}
	return "unknown"
}

// listDisks discovers managed disks. DiskState carries attachment.
func (p *Provider) listDisks(ctx context.Context) ([]types.Resource, error) {
	var resources []types.Resource

	pager := p.diskClient.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, providers.WrapError(types.ProviderAzure, "list_disks",
				"failed to list managed disks", err)
		}

		for _, disk := range page.Value {
			if disk == nil || disk.Properties == nil {
				continue
			}
			resources = append(resources, p.convertDisk(disk))
		}
	}

	return resources, nil
}

func (p *Provider) convertDisk(disk *armcompute.Disk) types.Resource {
	sku := ""
	if disk.SKU != nil && disk.SKU.Name != nil {
		sku = string(*disk.SKU.Name)
	}

	state := ""
	if disk.Properties.DiskState != nil {
		if *disk.Properties.DiskState == armcompute.DiskStateUnattached {
			state = "unattached"
		} else {
			state = strings.ToLower(string(*disk.Properties.DiskState))
		}
	}

	var sizeGB int32
	if disk.Properties.DiskSizeGB != nil {
		sizeGB = *disk.Properties.DiskSizeGB
	}

	resource := types.Resource{
		ID:          stringValue(disk.ID),
		Name:        stringValue(disk.Name),
		Kind:        types.KindVolume,
		Provider:    types.ProviderAzure,
		Region:      stringValue(disk.Location),
		State:       state,
		Size:        sku,
		SizeGB:      sizeGB,
		AttachedTo:  stringValue(disk.ManagedBy),
		MonthlyCost: diskMonthlyCost(sku, sizeGB),
		Tags:        convertTags(disk.Tags),
	}
	if disk.Properties.TimeCreated != nil {
		resource.CreatedAt = *disk.Properties.TimeCreated
	}
	return resource
}

// listSnapshots discovers managed disk snapshots.
func (p *Provider) listSnapshots(ctx context.Context) ([]types.Resource, error) {
	var resources []types.Resource

	pager := p.snapshotClient.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, providers.WrapError(types.ProviderAzure, "list_snapshots",
				"failed to list snapshots", err)
		}

		for _, snapshot := range page.Value {
			if snapshot == nil || snapshot.Properties == nil {
				continue
			}

			var sizeGB int32
			if snapshot.Properties.DiskSizeGB != nil {
				sizeGB = *snapshot.Properties.DiskSizeGB
			}

			resource := types.Resource{
				ID:          stringValue(snapshot.ID),
				Name:        stringValue(snapshot.Name),
				Kind:        types.KindSnapshot,
				Provider:    types.ProviderAzure,
				Region:      stringValue(snapshot.Location),
				State:       "completed",
				SizeGB:      sizeGB,
				MonthlyCost: snapshotMonthlyCost(sizeGB),
				Tags:        convertTags(snapshot.Tags),
			}
			if snapshot.Properties.TimeCreated != nil {
				resource.CreatedAt = *snapshot.Properties.TimeCreated
			}
			resources = append(resources, resource)
		}
	}

	return resources, nil
}

func (p *Provider) deallocateVM(ctx context.Context, id string) error {
	resourceGroup, name, err := groupAndName(id)
	if err != nil {
		return providers.WrapError(types.ProviderAzure, "deallocate_vm", "bad resource id", err)
	}

	poller, err := p.vmClient.BeginDeallocate(ctx, resourceGroup, name, nil)
	if err == nil {
		_, err = poller.PollUntilDone(ctx, nil)
	}
	if err != nil {
		return providers.WrapError(types.ProviderAzure, "deallocate_vm",
			fmt.Sprintf("failed to deallocate VM %s", name), err)
	}
	return nil
}

func (p *Provider) startVM(ctx context.Context, id string) error {
	resourceGroup, name, err := groupAndName(id)
	if err != nil {
		return providers.WrapError(types.ProviderAzure, "start_vm", "bad resource id", err)
	}

	poller, err := p.vmClient.BeginStart(ctx, resourceGroup, name, nil)
	if err == nil {
		_, err = poller.PollUntilDone(ctx, nil)
	}
	if err != nil {
		return providers.WrapError(types.ProviderAzure, "start_vm",
			fmt.Sprintf("failed to start VM %s", name), err)
	}
	return nil
}

// ResizeResource updates a VM's hardware profile. Azure resizes
// running VMs with a reboot, so no stop/start dance is needed.
func (p *Provider) ResizeResource(ctx context.Context, id string, spec types.ComputeSpec) error {
	resourceGroup, name, err := groupAndName(id)
	if err != nil {
		return providers.WrapError(types.ProviderAzure, "resize_vm", "bad resource id", err)
	}

	poller, err := p.vmClient.BeginUpdate(ctx, resourceGroup, name, armcompute.VirtualMachineUpdate{
		Properties: &armcompute.VirtualMachineProperties{
			HardwareProfile: &armcompute.HardwareProfile{
				VMSize: to.Ptr(armcompute.VirtualMachineSizeTypes(spec.InstanceType)),
			},
		},
	}, nil)
	if err == nil {
		_, err = poller.PollUntilDone(ctx, nil)
	}
	if err != nil {
		return providers.WrapError(types.ProviderAzure, "resize_vm",
			fmt.Sprintf("failed to resize VM %s to %s", name, spec.InstanceType), err)
	}
	return nil
}

func (p *Provider) deleteDisk(ctx context.Context, id string) error {
	resourceGroup, name, err := groupAndName(id)
	if err != nil {
		return providers.WrapError(types.ProviderAzure, "delete_disk", "bad resource id", err)
	}

	poller, err := p.diskClient.BeginDelete(ctx, resourceGroup, name, nil)
	if err == nil {
		_, err = poller.PollUntilDone(ctx, nil)
	}
	if err != nil {
		return providers.WrapError(types.ProviderAzure, "delete_disk",
			fmt.Sprintf("failed to delete disk %s", name), err)
	}
	return nil
}

func (p *Provider) deleteSnapshot(ctx context.Context, id string) error {
	resourceGroup, name, err := groupAndName(id)
	if err != nil {
		return providers.WrapError(types.ProviderAzure, "delete_snapshot", "bad resource id", err)
	}

	poller, err := p.snapshotClient.BeginDelete(ctx, resourceGroup, name, nil)
	if err == nil {
		_, err = poller.PollUntilDone(ctx, nil)
	}
	if err != nil {
		return providers.WrapError(types.ProviderAzure, "delete_snapshot",
			fmt.Sprintf("failed to delete snapshot %s", name), err)
	}
	return nil
}
