// Package azure adapts armcompute, armnetwork, armsql and armmonitor
// to the provider capability surface.
package azure

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v4"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/monitor/armmonitor"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v4"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/sql/armsql"

	"github.com/frugalops/frugal/providers"
	"github.com/frugalops/frugal/types"
)

func init() {
	providers.Register(types.ProviderAzure, NewProviderFactory)
}

// NewProviderFactory builds an Azure capability from resolved credentials.
func NewProviderFactory(ctx context.Context, cfg providers.Config) (providers.Capability, error) {
	return NewProvider(ctx, cfg)
}

// Provider implements the capability surface with the Azure SDK.
type Provider struct {
	vmClient       *armcompute.VirtualMachinesClient
	diskClient     *armcompute.DisksClient
	snapshotClient *armcompute.SnapshotsClient
	ipClient       *armnetwork.PublicIPAddressesClient
	serverClient   *armsql.ServersClient
	dbClient       *armsql.DatabasesClient
	metricsClient  *armmonitor.MetricsClient
	subscriptionID string
	region         string
}

// NewProvider creates clients for one subscription. Service principal
// credentials are used when supplied, otherwise the default chain
// (environment, managed identity, CLI).
func NewProvider(_ context.Context, cfg providers.Config) (*Provider, error) {
	cred, err := newCredential(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	vmClient, err := armcompute.NewVirtualMachinesClient(cfg.SubscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create compute client: %w", err)
	}
	diskClient, err := armcompute.NewDisksClient(cfg.SubscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create disk client: %w", err)
	}
	snapshotClient, err := armcompute.NewSnapshotsClient(cfg.SubscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot client: %w", err)
	}
	ipClient, err := armnetwork.NewPublicIPAddressesClient(cfg.SubscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create network client: %w", err)
	}
	serverClient, err := armsql.NewServersClient(cfg.SubscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create SQL server client: %w", err)
	}
	dbClient, err := armsql.NewDatabasesClient(cfg.SubscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create SQL database client: %w", err)
	}
	metricsClient, err := armmonitor.NewMetricsClient(cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics client: %w", err)
	}

	return &Provider{
		vmClient:       vmClient,
		diskClient:     diskClient,
		snapshotClient: snapshotClient,
		ipClient:       ipClient,
		serverClient:   serverClient,
		dbClient:       dbClient,
		metricsClient:  metricsClient,
		subscriptionID: cfg.SubscriptionID,
		region:         cfg.Region,
	}, nil
}

func newCredential(cfg providers.Config) (azcore.TokenCredential, error) {
	if cfg.ClientID != "" && cfg.ClientSecret != "" {
		return azidentity.NewClientSecretCredential(cfg.TenantID, cfg.ClientID, cfg.ClientSecret, nil)
	}
	return azidentity.NewDefaultAzureCredential(nil)
}

// Name returns the provider name
func (p *Provider) Name() types.Provider {
	return types.ProviderAzure
}

// Region returns the configured Azure location
func (p *Provider) Region() string {
	return p.region
}

// ListResources discovers all resources of one kind in the
// subscription.
func (p *Provider) ListResources(ctx context.Context, kind types.ResourceKind) ([]types.Resource, error) {
	switch kind {
	case types.KindCompute:
		return p.listVirtualMachines(ctx)
	case types.KindVolume:
		return p.listDisks(ctx)
	case types.KindAddress:
		return p.listPublicIPs(ctx)
	case types.KindSnapshot:
		return p.listSnapshots(ctx)
	case types.KindDatabase:
		return p.listDatabases(ctx)
	default:
		return nil, providers.WrapError(types.ProviderAzure, "list_resources",
			fmt.Sprintf("unsupported resource kind %q", kind), nil)
	}
}

// StopResource deallocates a VM or pauses a database.
func (p *Provider) StopResource(ctx context.Context, kind types.ResourceKind, id string) error {
	switch kind {
	case types.KindCompute:
		return p.deallocateVM(ctx, id)
	case types.KindDatabase:
		return p.pauseDatabase(ctx, id)
	default:
		return providers.WrapError(types.ProviderAzure, "stop_resource",
			fmt.Sprintf("cannot stop resource kind %q", kind), nil)
	}
}

// StartResource starts a deallocated VM or resumes a paused database.
func (p *Provider) StartResource(ctx context.Context, kind types.ResourceKind, id string) error {
	switch kind {
	case types.KindCompute:
		return p.startVM(ctx, id)
	case types.KindDatabase:
		return p.resumeDatabase(ctx, id)
	default:
		return providers.WrapError(types.ProviderAzure, "start_resource",
			fmt.Sprintf("cannot start resource kind %q", kind), nil)
	}
}

// DeleteResource removes a disk or snapshot.
func (p *Provider) DeleteResource(ctx context.Context, kind types.ResourceKind, id string) error {
	switch kind {
	case types.KindVolume:
		return p.deleteDisk(ctx, id)
	case types.KindSnapshot:
		return p.deleteSnapshot(ctx, id)
	default:
		return providers.WrapError(types.ProviderAzure, "delete_resource",
			fmt.Sprintf("cannot delete resource kind %q", kind), nil)
	}
}

// resourceIDParts extracts path segments of an ARM resource ID, e.g.
// resourceGroups/<rg>/providers/Microsoft.Compute/virtualMachines/<name>.
func resourceIDParts(id string) map[string]string {
	segments := strings.Split(strings.Trim(id, "/"), "/")
	parts := make(map[string]string, len(segments)/2)
	for i := 0; i+1 < len(segments); i += 2 {
		parts[strings.ToLower(segments[i])] = segments[i+1]
	}
	return parts
}

func groupAndName(id string) (resourceGroup, name string, err error) {
	parts := resourceIDParts(id)
	resourceGroup = parts["resourcegroups"]
	segments := strings.Split(strings.Trim(id, "/"), "/")
	if resourceGroup == "" || len(segments) == 0 {
		return "", "", fmt.Errorf("malformed resource id %q", id)
	}
	return resourceGroup, segments[len(segments)-1], nil
}

// stringValue dereferences, empty when nil.
func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func convertTags(azTags map[string]*string) map[string]string {
	if len(azTags) == 0 {
		return nil
	}
	tags := make(map[string]string, len(azTags))
	for k, v := range azTags {
		tags[k] = stringValue(v)
	}
	return tags
}

var _ providers.Capability = (*Provider)(nil)
