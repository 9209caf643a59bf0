package providers

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/frugalops/frugal/types"
)

// Metric names a provider-neutral time-series metric.
type Metric string

const (
	MetricCPUAverage    Metric = "cpu_average"
	MetricDBConnections Metric = "db_connections"
)

// Capability is the full set of operations the engine needs from one
// cloud provider. Read operations feed the rule catalog; write
// operations back the action executor. Write operations are safe to
// retry at the caller's discretion but are never retried internally.
//
// New providers are added by implementing this interface and
// registering a factory; no engine code changes.
type Capability interface {
	Name() types.Provider
	Region() string

	// ListResources returns every resource of the given kind.
	ListResources(ctx context.Context, kind types.ResourceKind) ([]types.Resource, error)

	// MetricAverage reads the average of a metric over the trailing
	// window. ok is false when the provider has no datapoints for the
	// resource; that is not an error.
	MetricAverage(ctx context.Context, resourceID string, metric Metric, windowDays int) (avg float64, ok bool, err error)

	StopResource(ctx context.Context, kind types.ResourceKind, id string) error
	StartResource(ctx context.Context, kind types.ResourceKind, id string) error
	DeleteResource(ctx context.Context, kind types.ResourceKind, id string) error
	ReleaseAddress(ctx context.Context, id string) error
	ResizeResource(ctx context.Context, id string, spec types.ComputeSpec) error
}

// SpendSource is an optional extension a Capability may implement to
// report month-to-date spend for budget evaluation. Callers type-assert;
// a provider without one contributes zero spend.
type SpendSource interface {
	MonthToDateSpend(ctx context.Context) (float64, error)
}

// CostSeries is an optional extension a Capability may implement to
// report one service's per-day spend for anomaly detection, oldest
// day first. Callers type-assert.
type CostSeries interface {
	DailyServiceCosts(ctx context.Context, service string, windowDays int) ([]float64, error)
}

// Error wraps a failure from a cloud API. Callers must not assume
// partial success when one is returned.
type Error struct {
	Provider types.Provider
	Op       string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Provider, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Op, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// WrapError builds a provider Error around an SDK failure.
func WrapError(provider types.Provider, op, message string, err error) *Error {
	return &Error{Provider: provider, Op: op, Message: message, Err: err}
}

// Config holds decrypted connection parameters supplied by the
// credential collaborator.
type Config struct {
	AccountID string
	Region    string

	// AWS
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	// Azure
	SubscriptionID string
	TenantID       string
	ClientID       string
	ClientSecret   string
}

// Factory creates a capability for one provider.
type Factory func(ctx context.Context, cfg Config) (Capability, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[types.Provider]Factory)
)

// Register registers a provider factory. Called from adapter init().
func Register(name types.Provider, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// New creates a capability by provider name.
func New(ctx context.Context, name types.Provider, cfg Config) (Capability, error) {
	registryMu.RLock()
	factory, exists := registry[name]
	registryMu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("provider %s not registered", name)
	}
	return factory(ctx, cfg)
}

// Names returns registered provider names, sorted for stable output.
func Names() []types.Provider {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]types.Provider, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
