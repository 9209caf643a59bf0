package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"

	"github.com/frugalops/frugal/providers"
	"github.com/frugalops/frugal/types"
)

// listDatabases discovers RDS instances.
func (p *Provider) listDatabases(ctx context.Context) ([]types.Resource, error) {
	var resources []types.Resource

	paginator := rds.NewDescribeDBInstancesPaginator(p.rdsClient, &rds.DescribeDBInstancesInput{})
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, providers.WrapError(types.ProviderAWS, "list_databases",
				"failed to describe RDS instances", err)
		}

		for _, instance := range output.DBInstances {
			resources = append(resources, p.convertDatabase(instance))
		}
	}

	return resources, nil
}

func (p *Provider) convertDatabase(instance rdstypes.DBInstance) types.Resource {
	instanceClass := aws.ToString(instance.DBInstanceClass)

	tags := make(map[string]string, len(instance.TagList))
	for _, tag := range instance.TagList {
		tags[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
	}

	return types.Resource{
		ID:          aws.ToString(instance.DBInstanceIdentifier),
		Name:        aws.ToString(instance.DBName),
		Kind:        types.KindDatabase,
		Provider:    types.ProviderAWS,
		Region:      p.region,
		State:       aws.ToString(instance.DBInstanceStatus),
		Size:        instanceClass,
		SizeGB:      aws.ToInt32(instance.AllocatedStorage),
		MonthlyCost: dbInstanceMonthlyCost(instanceClass),
		CreatedAt:   aws.ToTime(instance.InstanceCreateTime),
		Tags:        tags,
	}
}

func (p *Provider) stopDatabase(ctx context.Context, id string) error {
	_, err := p.rdsClient.StopDBInstance(ctx, &rds.StopDBInstanceInput{
		DBInstanceIdentifier: aws.String(id),
	})
	if err != nil {
		return providers.WrapError(types.ProviderAWS, "stop_database",
			fmt.Sprintf("failed to stop RDS instance %s", id), err)
	}
	return nil
}

func (p *Provider) startDatabase(ctx context.Context, id string) error {
	_, err := p.rdsClient.StartDBInstance(ctx, &rds.StartDBInstanceInput{
		DBInstanceIdentifier: aws.String(id),
	})
	if err != nil {
		return providers.WrapError(types.ProviderAWS, "start_database",
			fmt.Sprintf("failed to start RDS instance %s", id), err)
	}
	return nil
}
