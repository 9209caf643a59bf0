// Package aws adapts EC2, RDS, CloudWatch and Cost Explorer to the
// provider capability surface.
package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/rds"

	"github.com/frugalops/frugal/providers"
	"github.com/frugalops/frugal/types"
)

func init() {
	providers.Register(types.ProviderAWS, NewProviderFactory)
}

// NewProviderFactory builds an AWS capability from resolved credentials.
func NewProviderFactory(ctx context.Context, cfg providers.Config) (providers.Capability, error) {
	return NewProvider(ctx, cfg)
}

// Provider implements the capability surface with AWS SDK v2.
type Provider struct {
	ec2Client *ec2.Client
	rdsClient *rds.Client
	cwClient  *cloudwatch.Client
	ceClient  *costexplorer.Client
	region    string
}

// NewProvider creates clients for one account and region. When no
// static credentials are supplied the default chain (env, profile,
// instance role) applies.
func NewProvider(ctx context.Context, pcfg providers.Config) (*Provider, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(pcfg.Region),
	}
	if pcfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				pcfg.AccessKeyID, pcfg.SecretAccessKey, pcfg.SessionToken)))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Provider{
		ec2Client: ec2.NewFromConfig(cfg),
		rdsClient: rds.NewFromConfig(cfg),
		cwClient:  cloudwatch.NewFromConfig(cfg),
		ceClient:  costexplorer.NewFromConfig(cfg),
		region:    pcfg.Region,
	}, nil
}

// Name returns the provider name
func (p *Provider) Name() types.Provider {
	return types.ProviderAWS
}

// Region returns the AWS region
func (p *Provider) Region() string {
	return p.region
}

// ListResources discovers all resources of one kind in the account.
func (p *Provider) ListResources(ctx context.Context, kind types.ResourceKind) ([]types.Resource, error) {
	switch kind {
	case types.KindCompute:
		return p.listInstances(ctx)
	case types.KindVolume:
		return p.listVolumes(ctx)
	case types.KindAddress:
		return p.listAddresses(ctx)
	case types.KindSnapshot:
		return p.listSnapshots(ctx)
	case types.KindDatabase:
		return p.listDatabases(ctx)
	default:
		return nil, providers.WrapError(types.ProviderAWS, "list_resources",
			fmt.Sprintf("unsupported resource kind %q", kind), nil)
	}
}

// StopResource stops a running instance or database.
func (p *Provider) StopResource(ctx context.Context, kind types.ResourceKind, id string) error {
	switch kind {
	case types.KindCompute:
		return p.stopInstance(ctx, id)
	case types.KindDatabase:
		return p.stopDatabase(ctx, id)
	default:
		return providers.WrapError(types.ProviderAWS, "stop_resource",
			fmt.Sprintf("cannot stop resource kind %q", kind), nil)
	}
}

// StartResource restarts a stopped instance or database.
func (p *Provider) StartResource(ctx context.Context, kind types.ResourceKind, id string) error {
	switch kind {
	case types.KindCompute:
		return p.startInstance(ctx, id)
	case types.KindDatabase:
		return p.startDatabase(ctx, id)
	default:
		return providers.WrapError(types.ProviderAWS, "start_resource",
			fmt.Sprintf("cannot start resource kind %q", kind), nil)
	}
}

// DeleteResource removes a volume or snapshot. Compute and databases
// are never deleted by this engine.
func (p *Provider) DeleteResource(ctx context.Context, kind types.ResourceKind, id string) error {
	switch kind {
	case types.KindVolume:
		return p.deleteVolume(ctx, id)
	case types.KindSnapshot:
		return p.deleteSnapshot(ctx, id)
	default:
		return providers.WrapError(types.ProviderAWS, "delete_resource",
			fmt.Sprintf("cannot delete resource kind %q", kind), nil)
	}
}

var _ providers.Capability = (*Provider)(nil)
var _ providers.SpendSource = (*Provider)(nil)
var _ providers.CostSeries = (*Provider)(nil)
