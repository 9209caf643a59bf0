package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frugalops/frugal/journal"
	"github.com/frugalops/frugal/providers"
	"github.com/frugalops/frugal/store"
	"github.com/frugalops/frugal/types"
)

// The provider registry is process-global, so tests register factories
// once and swap the backing mocks per test.
var (
	mockMu   sync.Mutex
	mockCaps = map[types.Provider]*mockCapability{}
)

func init() {
	for _, name := range []types.Provider{types.ProviderAWS, types.ProviderAzure} {
		name := name
		providers.Register(name, func(context.Context, providers.Config) (providers.Capability, error) {
			mockMu.Lock()
			defer mockMu.Unlock()
			cap, ok := mockCaps[name]
			if !ok {
				return nil, errors.New("no mock installed")
			}
			return cap, nil
		})
	}
}

func installMock(t *testing.T, cap *mockCapability) {
	t.Helper()
	mockMu.Lock()
	mockCaps[cap.provider] = cap
	mockMu.Unlock()
	t.Cleanup(func() {
		mockMu.Lock()
		delete(mockCaps, cap.provider)
		mockMu.Unlock()
	})
}

type mockCapability struct {
	provider   types.Provider
	resources  map[types.ResourceKind][]types.Resource
	metrics    map[string]float64
	stopped    []string
	spend      float64
	spendErr   error
	dailyCosts []float64
	costsErr   error
}

func (m *mockCapability) Name() types.Provider { return m.provider }
func (m *mockCapability) Region() string       { return "us-east-1" }

func (m *mockCapability) ListResources(_ context.Context, kind types.ResourceKind) ([]types.Resource, error) {
	return m.resources[kind], nil
}

func (m *mockCapability) MetricAverage(_ context.Context, id string, _ providers.Metric, _ int) (float64, bool, error) {
	avg, ok := m.metrics[id]
	return avg, ok, nil
}

func (m *mockCapability) StopResource(_ context.Context, _ types.ResourceKind, id string) error {
	m.stopped = append(m.stopped, id)
	return nil
}

func (m *mockCapability) StartResource(context.Context, types.ResourceKind, string) error {
	return nil
}
func (m *mockCapability) DeleteResource(context.Context, types.ResourceKind, string) error {
	return nil
}
func (m *mockCapability) ReleaseAddress(context.Context, string) error { return nil }
func (m *mockCapability) ResizeResource(context.Context, string, types.ComputeSpec) error {
	return nil
}

func (m *mockCapability) MonthToDateSpend(context.Context) (float64, error) {
	return m.spend, m.spendErr
}

func (m *mockCapability) DailyServiceCosts(context.Context, string, int) ([]float64, error) {
	return m.dailyCosts, m.costsErr
}

type staticResolver struct {
	configured map[types.Provider]providers.Config
}

func (r staticResolver) Resolve(_ context.Context, _ string, provider types.Provider) (providers.Config, bool, error) {
	cfg, ok := r.configured[provider]
	return cfg, ok, nil
}

type denyAll struct{}

func (denyAll) Check(context.Context, string, Feature) (bool, error) { return false, nil }

type recordingAudit struct {
	records []string
}

func (a *recordingAudit) Record(_ context.Context, _, actor, operation, resourceID string) error {
	a.records = append(a.records, actor+" "+operation+" "+resourceID)
	return nil
}

func newTestEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	dir := t.TempDir()

	st, err := store.Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	jrnl, err := journal.Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = jrnl.Close() })

	opts.Store = st
	opts.Journal = jrnl
	if opts.Credentials == nil {
		opts.Credentials = staticResolver{
			configured: map[types.Provider]providers.Config{
				types.ProviderAWS: {AccountID: "acct-1", Region: "us-east-1"},
			},
		}
	}

	eng, err := New(opts)
	require.NoError(t, err)
	return eng
}

func idleComputeMock() *mockCapability {
	return &mockCapability{
		provider: types.ProviderAWS,
		resources: map[types.ResourceKind][]types.Resource{
			types.KindCompute: {
				{ID: "i-1", Kind: types.KindCompute, Provider: types.ProviderAWS, State: "running", Size: "m5.xlarge", MonthlyCost: 140},
			},
		},
		metrics: map[string]float64{"i-1": 1.0},
	}
}

func TestScanThroughEngine(t *testing.T) {
	installMock(t, idleComputeMock())
	eng := newTestEngine(t, Options{})

	result, err := eng.Scan(context.Background(), "ws-1", types.ProviderAll)
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalCreated())

	recs, err := eng.ListRecommendations("ws-1", store.RecommendationFilter{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "acct-1", recs[0].AccountID)
}

func TestScanNoProvidersConfigured(t *testing.T) {
	eng := newTestEngine(t, Options{
		Credentials: staticResolver{configured: map[types.Provider]providers.Config{}},
	})

	_, err := eng.Scan(context.Background(), "ws-1", types.ProviderAll)
	assert.Error(t, err)
}

func TestApplyRequiresEntitlement(t *testing.T) {
	installMock(t, idleComputeMock())
	eng := newTestEngine(t, Options{Entitlements: denyAll{}})

	_, _, err := eng.Apply(context.Background(), "ws-1", "whatever", "alice@corp")
	assert.ErrorIs(t, err, ErrNotEntitled)
}

func TestApplyStopRecordsAudit(t *testing.T) {
	cap := &mockCapability{
		provider: types.ProviderAWS,
		resources: map[types.ResourceKind][]types.Resource{
			types.KindDatabase: {
				{ID: "db-1", Kind: types.KindDatabase, Provider: types.ProviderAWS, State: "available", MonthlyCost: 200},
			},
		},
		metrics: map[string]float64{"db-1": 0.0},
	}
	installMock(t, cap)

	audit := &recordingAudit{}
	eng := newTestEngine(t, Options{Audit: audit})

	_, err := eng.Scan(context.Background(), "ws-1", types.ProviderAWS)
	require.NoError(t, err)

	recs, err := eng.ListRecommendations("ws-1", store.RecommendationFilter{Status: types.RecommendationPending})
	require.NoError(t, err)
	require.Len(t, recs, 1)

	action, updated, err := eng.Apply(context.Background(), "ws-1", recs[0].ID, "alice@corp")
	require.NoError(t, err)
	assert.Equal(t, types.ActionExecuted, action.Status)
	assert.Equal(t, types.RecommendationApplied, updated.Status)
	assert.Equal(t, []string{"db-1"}, cap.stopped)
	require.Len(t, audit.records, 1)
	assert.Equal(t, "alice@corp apply db-1", audit.records[0])
}

func TestRollbackThroughEngine(t *testing.T) {
	cap := &mockCapability{
		provider: types.ProviderAWS,
		resources: map[types.ResourceKind][]types.Resource{
			types.KindDatabase: {
				{ID: "db-1", Kind: types.KindDatabase, Provider: types.ProviderAWS, State: "available", MonthlyCost: 200},
			},
		},
		metrics: map[string]float64{"db-1": 0.0},
	}
	installMock(t, cap)
	eng := newTestEngine(t, Options{})

	_, err := eng.Scan(context.Background(), "ws-1", types.ProviderAWS)
	require.NoError(t, err)

	recs, err := eng.ListRecommendations("ws-1", store.RecommendationFilter{})
	require.NoError(t, err)
	require.Len(t, recs, 1)

	action, _, err := eng.Apply(context.Background(), "ws-1", recs[0].ID, "alice@corp")
	require.NoError(t, err)

	rolled, err := eng.Rollback(context.Background(), "ws-1", action.ID, "alice@corp")
	require.NoError(t, err)
	assert.Equal(t, types.ActionRolledBack, rolled.Status)

	rec, err := eng.store.GetRecommendation("ws-1", recs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, types.RecommendationPending, rec.Status)
}

func TestEvaluateBudgetsSumsSpendSources(t *testing.T) {
	aws := idleComputeMock()
	aws.spend = 850

	azure := &mockCapability{provider: types.ProviderAzure, spendErr: errors.New("throttled")}
	installMock(t, aws)
	installMock(t, azure)

	eng := newTestEngine(t, Options{
		Credentials: staticResolver{
			configured: map[types.Provider]providers.Config{
				types.ProviderAWS:   {AccountID: "acct-1"},
				types.ProviderAzure: {AccountID: "sub-1"},
			},
		},
	})

	seeded := types.Budget{
		ID:             "b-1",
		WorkspaceID:    "ws-1",
		Name:           "everything",
		Provider:       types.ProviderAll,
		Amount:         1000,
		Period:         types.PeriodMonthly,
		AlertThreshold: 0.8,
		Active:         true,
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, eng.store.PutBudget(seeded))

	budgets, err := eng.EvaluateBudgets(context.Background(), "ws-1")
	require.NoError(t, err)
	require.Len(t, budgets, 1)

	// Azure's failed spend fetch contributes zero; AWS carries the total.
	assert.InDelta(t, 850.0, budgets[0].LastSpend, 0.001)
	assert.NotNil(t, budgets[0].LastAlertAt)
}

func TestDetectAnomalyPersists(t *testing.T) {
	eng := newTestEngine(t, Options{})

	series := make([]float64, 0, 30)
	for i := 0; i < 28; i++ {
		series = append(series, 10)
	}
	series = append(series, 100, 100)

	found, ok, err := eng.DetectAnomaly(context.Background(), "ws-1", series, "AmazonEC2", types.ProviderAWS)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 100.0, found.ActualCost, 0.001)

	stored, err := eng.store.ListAnomalies("ws-1", types.AnomalyOpen)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "AmazonEC2", stored[0].Service)
}

func TestDetectAnomalyAbsent(t *testing.T) {
	eng := newTestEngine(t, Options{})

	_, ok, err := eng.DetectAnomaly(context.Background(), "ws-1",
		[]float64{1, 2, 3}, "AmazonEC2", types.ProviderAWS)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDetectServiceAnomalyFetchesCosts(t *testing.T) {
	series := make([]float64, 0, 30)
	for i := 0; i < 28; i++ {
		series = append(series, 10)
	}
	series = append(series, 100, 100)
	installMock(t, &mockCapability{provider: types.ProviderAWS, dailyCosts: series})

	eng := newTestEngine(t, Options{})

	found, ok, err := eng.DetectServiceAnomaly(context.Background(), "ws-1",
		types.ProviderAWS, "AmazonEC2", 30)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 100.0, found.ActualCost, 0.001)

	stored, err := eng.store.ListAnomalies("ws-1", types.AnomalyOpen)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "AmazonEC2", stored[0].Service)
}

func TestDetectServiceAnomalyFetchError(t *testing.T) {
	installMock(t, &mockCapability{provider: types.ProviderAWS, costsErr: errors.New("throttled")})

	eng := newTestEngine(t, Options{})

	_, _, err := eng.DetectServiceAnomaly(context.Background(), "ws-1",
		types.ProviderAWS, "AmazonEC2", 30)
	require.ErrorContains(t, err, "throttled")
}
