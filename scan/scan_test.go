package scan

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frugalops/frugal/journal"
	"github.com/frugalops/frugal/providers"
	"github.com/frugalops/frugal/rules"
	"github.com/frugalops/frugal/store"
	"github.com/frugalops/frugal/types"
)

type mockCapability struct {
	provider  types.Provider
	resources map[types.ResourceKind][]types.Resource
	metrics   map[string]float64
	listErr   map[types.ResourceKind]error
}

func (m *mockCapability) Name() types.Provider { return m.provider }
func (m *mockCapability) Region() string       { return "us-east-1" }

func (m *mockCapability) ListResources(_ context.Context, kind types.ResourceKind) ([]types.Resource, error) {
	if err := m.listErr[kind]; err != nil {
		return nil, err
	}
	return m.resources[kind], nil
}

func (m *mockCapability) MetricAverage(_ context.Context, id string, _ providers.Metric, _ int) (float64, bool, error) {
	avg, ok := m.metrics[id]
	return avg, ok, nil
}

func (m *mockCapability) StopResource(context.Context, types.ResourceKind, string) error  { return nil }
func (m *mockCapability) StartResource(context.Context, types.ResourceKind, string) error { return nil }
func (m *mockCapability) DeleteResource(context.Context, types.ResourceKind, string) error {
	return nil
}
func (m *mockCapability) ReleaseAddress(context.Context, string) error { return nil }
func (m *mockCapability) ResizeResource(context.Context, string, types.ComputeSpec) error {
	return nil
}

func newTestScanner(t *testing.T) (*Scanner, *store.Store) {
	t.Helper()
	dir := t.TempDir()

	st, err := store.Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	jrnl, err := journal.Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = jrnl.Close() })

	return NewScanner(st, jrnl, rules.DefaultThresholds()), st
}

func wastefulCapability(provider types.Provider) *mockCapability {
	old := time.Now().UTC().Add(-30 * 24 * time.Hour)
	return &mockCapability{
		provider: provider,
		resources: map[types.ResourceKind][]types.Resource{
			types.KindCompute: {
				{ID: "i-idle", Kind: types.KindCompute, Provider: provider, State: "running", Size: "m5.xlarge", MonthlyCost: 140},
			},
			types.KindVolume: {
				{ID: "vol-orphan", Kind: types.KindVolume, Provider: provider, State: "available", MonthlyCost: 8, CreatedAt: old},
			},
		},
		metrics: map[string]float64{"i-idle": 1.2},
	}
}

func TestScanPersistsFindingsAsRecommendations(t *testing.T) {
	scanner, st := newTestScanner(t)

	result, err := scanner.Scan(context.Background(), "ws-1",
		[]Target{{Capability: wastefulCapability(types.ProviderAWS), AccountID: "acct-1"}})
	require.NoError(t, err)

	require.Len(t, result.Providers, 1)
	assert.NoError(t, result.Providers[0].Err)
	assert.Equal(t, 2, result.TotalFindings())
	assert.Equal(t, 2, result.TotalCreated())

	recs, err := st.ListRecommendations("ws-1", store.RecommendationFilter{})
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestScanSecondPassDeduplicates(t *testing.T) {
	scanner, st := newTestScanner(t)
	cap := wastefulCapability(types.ProviderAWS)

	first, err := scanner.Scan(context.Background(), "ws-1", []Target{{Capability: cap, AccountID: "acct-1"}})
	require.NoError(t, err)
	assert.Equal(t, 2, first.TotalCreated())

	second, err := scanner.Scan(context.Background(), "ws-1", []Target{{Capability: cap, AccountID: "acct-1"}})
	require.NoError(t, err)
	assert.Equal(t, 2, second.TotalFindings())
	assert.Equal(t, 0, second.TotalCreated(), "unchanged waste must refresh, not duplicate")

	recs, err := st.ListRecommendations("ws-1", store.RecommendationFilter{})
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestScanRuleFailureDoesNotAbortProvider(t *testing.T) {
	scanner, st := newTestScanner(t)

	cap := wastefulCapability(types.ProviderAWS)
	cap.listErr = map[types.ResourceKind]error{
		types.KindVolume: errors.New("throttled"),
	}

	result, err := scanner.Scan(context.Background(), "ws-1", []Target{{Capability: cap, AccountID: "acct-1"}})
	require.NoError(t, err)

	pr := result.Providers[0]
	assert.Error(t, pr.Err)
	// The idle-compute finding survives the volume rule's failure.
	assert.Equal(t, 1, len(pr.Findings))
	assert.Equal(t, 1, pr.NewRecommendations)

	recs, err := st.ListRecommendations("ws-1", store.RecommendationFilter{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "i-idle", recs[0].ResourceID)
}

func TestScanRunsProvidersIndependently(t *testing.T) {
	scanner, st := newTestScanner(t)

	broken := &mockCapability{
		provider: types.ProviderAWS,
		listErr: map[types.ResourceKind]error{
			types.KindCompute:  errors.New("expired credentials"),
			types.KindVolume:   errors.New("expired credentials"),
			types.KindAddress:  errors.New("expired credentials"),
			types.KindDatabase: errors.New("expired credentials"),
			types.KindSnapshot: errors.New("expired credentials"),
		},
	}
	healthy := wastefulCapability(types.ProviderAzure)

	result, err := scanner.Scan(context.Background(), "ws-1", []Target{
		{Capability: broken, AccountID: "acct-1"},
		{Capability: healthy, AccountID: "acct-2"},
	})
	require.NoError(t, err)
	require.Len(t, result.Providers, 2)

	assert.Error(t, result.Providers[0].Err)
	assert.Empty(t, result.Providers[0].Findings)

	assert.NoError(t, result.Providers[1].Err)
	assert.Equal(t, 2, result.Providers[1].NewRecommendations)

	recs, err := st.ListRecommendations("ws-1", store.RecommendationFilter{Provider: types.ProviderAzure})
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestScanJournalsStartAndCompletion(t *testing.T) {
	dir := t.TempDir()

	st, err := store.Open(dir)
	require.NoError(t, err)
	defer st.Close()

	jrnl, err := journal.Open(dir)
	require.NoError(t, err)

	scanner := NewScanner(st, jrnl, rules.DefaultThresholds())
	_, err = scanner.Scan(context.Background(), "ws-1",
		[]Target{{Capability: wastefulCapability(types.ProviderAWS), AccountID: "acct-1"}})
	require.NoError(t, err)

	stats := jrnl.GetStats()
	assert.GreaterOrEqual(t, stats.LastSequence, int64(2))
	require.NoError(t, jrnl.Close())

	files, err := filepath.Glob(filepath.Join(dir, "frugal-*.journal"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	reader, err := journal.NewReader(files[0])
	require.NoError(t, err)
	defer reader.Close()

	var seen []journal.EntryType
	for {
		entry, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		seen = append(seen, entry.Type)
	}
	assert.Contains(t, seen, journal.EntryScanStarted)
	assert.Contains(t, seen, journal.EntryScanCompleted)
}
