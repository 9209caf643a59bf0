package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/frugalops/frugal/providers"
	"github.com/frugalops/frugal/types"
)

// instanceStateTimeout bounds the wait for stop-before-resize.
const instanceStateTimeout = 5 * time.Minute

// listInstances discovers EC2 instances.
func (p *Provider) listInstances(ctx context.Context) ([]types.Resource, error) {
	var resources []types.Resource

	paginator := ec2.NewDescribeInstancesPaginator(p.ec2Client, &ec2.DescribeInstancesInput{})
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, providers.WrapError(types.ProviderAWS, "list_instances",
				"failed to describe EC2 instances", err)
		}

		for _, reservation := range output.Reservations {
			for _, instance := range reservation.Instances {
				resources = append(resources, p.convertInstance(instance))
			}
		}
	}

	return resources, nil
}

func (p *Provider) convertInstance(instance ec2types.Instance) types.Resource {
	tags := convertTags(instance.Tags)
	instanceType := string(instance.InstanceType)

	state := ""
	if instance.State != nil {
		state = string(instance.State.Name)
	}

	return types.Resource{
		ID:          aws.ToString(instance.InstanceId),
		Name:        tags["Name"],
		Kind:        types.KindCompute,
		Provider:    types.ProviderAWS,
		Region:      p.region,
		State:       state,
		Size:        instanceType,
		MonthlyCost: instanceMonthlyCost(instanceType),
		CreatedAt:   aws.ToTime(instance.LaunchTime),
		Tags:        tags,
	}
}

// listVolumes discovers EBS volumes.
func (p *Provider) listVolumes(ctx context.Context) ([]types.Resource, error) {
	var resources []types.Resource

	paginator := ec2.NewDescribeVolumesPaginator(p.ec2Client, &ec2.DescribeVolumesInput{})
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, providers.WrapError(types.ProviderAWS, "list_volumes",
				"failed to describe EBS volumes", err)
		}

		for _, volume := range output.Volumes {
			resources = append(resources, p.convertVolume(volume))
		}
	}

	return resources, nil
}

func (p *Provider) convertVolume(volume ec2types.Volume) types.Resource {
	tags := convertTags(volume.Tags)
	sizeGB := aws.ToInt32(volume.Size)

	attachedTo := ""
	for _, attachment := range volume.Attachments {
		if attachment.State == ec2types.VolumeAttachmentStateAttached {
			attachedTo = aws.ToString(attachment.InstanceId)
			break
		}
	}

	return types.Resource{
		ID:          aws.ToString(volume.VolumeId),
		Name:        tags["Name"],
		Kind:        types.KindVolume,
		Provider:    types.ProviderAWS,
		Region:      p.region,
		State:       string(volume.State),
		Size:        string(volume.VolumeType),
		SizeGB:      sizeGB,
		AttachedTo:  attachedTo,
		MonthlyCost: volumeMonthlyCost(string(volume.VolumeType), sizeGB),
		CreatedAt:   aws.ToTime(volume.CreateTime),
		Tags:        tags,
	}
}

// listAddresses discovers Elastic IPs. An address with no association
// still bills; state reflects that for the detection rules.
func (p *Provider) listAddresses(ctx context.Context) ([]types.Resource, error) {
	output, err := p.ec2Client.DescribeAddresses(ctx, &ec2.DescribeAddressesInput{})
	if err != nil {
		return nil, providers.WrapError(types.ProviderAWS, "list_addresses",
			"failed to describe elastic IPs", err)
	}

	resources := make([]types.Resource, 0, len(output.Addresses))
	for _, address := range output.Addresses {
		tags := convertTags(address.Tags)

		state := "unattached"
		attachedTo := aws.ToString(address.InstanceId)
		if attachedTo != "" || aws.ToString(address.AssociationId) != "" {
			state = "attached"
		}

		resources = append(resources, types.Resource{
			ID:          aws.ToString(address.AllocationId),
			Name:        aws.ToString(address.PublicIp),
			Kind:        types.KindAddress,
			Provider:    types.ProviderAWS,
			Region:      p.region,
			State:       state,
			AttachedTo:  attachedTo,
			MonthlyCost: addressMonthlyCost,
			Tags:        tags,
		})
	}

	return resources, nil
}

// listSnapshots discovers EBS snapshots owned by this account.
func (p *Provider) listSnapshots(ctx context.Context) ([]types.Resource, error) {
	var resources []types.Resource

	input := &ec2.DescribeSnapshotsInput{OwnerIds: []string{"self"}}
	paginator := ec2.NewDescribeSnapshotsPaginator(p.ec2Client, input)
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, providers.WrapError(types.ProviderAWS, "list_snapshots",
				"failed to describe snapshots", err)
		}

		for _, snapshot := range output.Snapshots {
			tags := convertTags(snapshot.Tags)
			sizeGB := aws.ToInt32(snapshot.VolumeSize)

			resources = append(resources, types.Resource{
				ID:          aws.ToString(snapshot.SnapshotId),
				Name:        tags["Name"],
				Kind:        types.KindSnapshot,
				Provider:    types.ProviderAWS,
				Region:      p.region,
				State:       string(snapshot.State),
				SizeGB:      sizeGB,
				MonthlyCost: snapshotMonthlyCost(sizeGB),
				CreatedAt:   aws.ToTime(snapshot.StartTime),
				Tags:        tags,
			})
		}
	}

	return resources, nil
}

func (p *Provider) stopInstance(ctx context.Context, id string) error {
	_, err := p.ec2Client.StopInstances(ctx, &ec2.StopInstancesInput{
		InstanceIds: []string{id},
	})
	if err != nil {
		return providers.WrapError(types.ProviderAWS, "stop_instance",
			fmt.Sprintf("failed to stop instance %s", id), err)
	}
	return nil
}

func (p *Provider) startInstance(ctx context.Context, id string) error {
	_, err := p.ec2Client.StartInstances(ctx, &ec2.StartInstancesInput{
		InstanceIds: []string{id},
	})
	if err != nil {
		return providers.WrapError(types.ProviderAWS, "start_instance",
			fmt.Sprintf("failed to start instance %s", id), err)
	}
	return nil
}

func (p *Provider) deleteVolume(ctx context.Context, id string) error {
	_, err := p.ec2Client.DeleteVolume(ctx, &ec2.DeleteVolumeInput{
		VolumeId: aws.String(id),
	})
	if err != nil {
		return providers.WrapError(types.ProviderAWS, "delete_volume",
			fmt.Sprintf("failed to delete volume %s", id), err)
	}
	return nil
}

func (p *Provider) deleteSnapshot(ctx context.Context, id string) error {
	_, err := p.ec2Client.DeleteSnapshot(ctx, &ec2.DeleteSnapshotInput{
		SnapshotId: aws.String(id),
	})
	if err != nil {
		return providers.WrapError(types.ProviderAWS, "delete_snapshot",
			fmt.Sprintf("failed to delete snapshot %s", id), err)
	}
	return nil
}

// ReleaseAddress releases an Elastic IP by allocation id.
func (p *Provider) ReleaseAddress(ctx context.Context, id string) error {
	_, err := p.ec2Client.ReleaseAddress(ctx, &ec2.ReleaseAddressInput{
		AllocationId: aws.String(id),
	})
	if err != nil {
		return providers.WrapError(types.ProviderAWS, "release_address",
			fmt.Sprintf("failed to release address %s", id), err)
	}
	return nil
}

// ResizeResource changes an instance's type. The instance must be
// stopped first; ModifyInstanceAttribute rejects running instances,
// so stop, modify, start.
func (p *Provider) ResizeResource(ctx context.Context, id string, spec types.ComputeSpec) error {
	if err := p.stopInstance(ctx, id); err != nil {
		return err
	}
	if err := ec2.NewInstanceStoppedWaiter(p.ec2Client).Wait(ctx,
		&ec2.DescribeInstancesInput{InstanceIds: []string{id}}, instanceStateTimeout); err != nil {
		return providers.WrapError(types.ProviderAWS, "resize_instance",
			fmt.Sprintf("instance %s did not stop in time", id), err)
	}

	_, err := p.ec2Client.ModifyInstanceAttribute(ctx, &ec2.ModifyInstanceAttributeInput{
		InstanceId: aws.String(id),
		InstanceType: &ec2types.AttributeValue{
			Value: aws.String(spec.InstanceType),
		},
	})
	if err != nil {
		return providers.WrapError(types.ProviderAWS, "resize_instance",
			fmt.Sprintf("failed to modify instance type of %s", id), err)
	}

	return p.startInstance(ctx, id)
}

func convertTags(ec2Tags []ec2types.Tag) map[string]string {
	if len(ec2Tags) == 0 {
		return nil
	}
	tags := make(map[string]string, len(ec2Tags))
	for _, tag := range ec2Tags {
		tags[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
	}
	return tags
}
