package budget

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frugalops/frugal/store"
	"github.com/frugalops/frugal/types"
)

type recordingNotifier struct {
	events   []string
	payloads []map[string]any
	failWith error
}

func (n *recordingNotifier) Notify(_ context.Context, event string, payload map[string]any) error {
	if n.failWith != nil {
		return n.failWith
	}
	n.events = append(n.events, event)
	n.payloads = append(n.payloads, payload)
	return nil
}

func setup(t *testing.T) (*Evaluator, *store.Store, *recordingNotifier) {
	t.Helper()
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	n := &recordingNotifier{}
	return NewEvaluator(s, n, zerolog.Nop()), s, n
}

func seedBudget(t *testing.T, s *store.Store, b types.Budget) types.Budget {
	t.Helper()
	if b.ID == "" {
		b.ID = "b-1"
	}
	if b.WorkspaceID == "" {
		b.WorkspaceID = "ws-1"
	}
	b.Active = true
	b.Period = types.PeriodMonthly
	require.NoError(t, s.PutBudget(b))
	return b
}

func TestEvaluateFiresAlertAtThreshold(t *testing.T) {
	ev, s, n := setup(t)
	b := seedBudget(t, s, types.Budget{Name: "aws", Provider: types.ProviderAWS, Amount: 1000, AlertThreshold: 0.8})

	updated, err := ev.Evaluate(context.Background(), b, map[types.Provider]float64{types.ProviderAWS: 850})
	require.NoError(t, err)

	require.Len(t, n.events, 1)
	assert.Equal(t, EventThresholdReached, n.events[0])
	assert.InDelta(t, 0.85, n.payloads[0]["spend_pct"].(float64), 0.0001)

	assert.Equal(t, 850.0, updated.LastSpend)
	require.NotNil(t, updated.LastEvaluatedAt)
	require.NotNil(t, updated.LastAlertAt)
}

func TestEvaluateCooldownSuppressesRepeat(t *testing.T) {
	ev, s, n := setup(t)
	b := seedBudget(t, s, types.Budget{Name: "aws", Provider: types.ProviderAWS, Amount: 1000, AlertThreshold: 0.8})
	spend := map[types.Provider]float64{types.ProviderAWS: 850}

	first, err := ev.Evaluate(context.Background(), b, spend)
	require.NoError(t, err)
	require.Len(t, n.events, 1)

	// Same spend an hour later: inside the cooldown.
	ev.now = func() time.Time { return first.LastAlertAt.Add(time.Hour) }
	second, err := ev.Evaluate(context.Background(), *first, spend)
	require.NoError(t, err)
	assert.Len(t, n.events, 1, "no repeat alert within cooldown")
	assert.NotNil(t, second.LastEvaluatedAt, "evaluation still stamped")

	// After the cooldown the alert fires again.
	ev.now = func() time.Time { return first.LastAlertAt.Add(AlertCooldown) }
	_, err = ev.Evaluate(context.Background(), *second, spend)
	require.NoError(t, err)
	assert.Len(t, n.events, 2)
}

func TestEvaluateBelowThreshold(t *testing.T) {
	ev, s, n := setup(t)
	b := seedBudget(t, s, types.Budget{Name: "aws", Provider: types.ProviderAWS, Amount: 1000, AlertThreshold: 0.8})

	updated, err := ev.Evaluate(context.Background(), b, map[types.Provider]float64{types.ProviderAWS: 500})
	require.NoError(t, err)

	assert.Empty(t, n.events)
	assert.Equal(t, 500.0, updated.LastSpend, "spend persisted even below threshold")
	require.NotNil(t, updated.LastEvaluatedAt)
	assert.Nil(t, updated.LastAlertAt)
}

func TestEvaluateAllProvidersScope(t *testing.T) {
	ev, s, n := setup(t)
	b := seedBudget(t, s, types.Budget{Name: "everything", Provider: types.ProviderAll, Amount: 1000, AlertThreshold: 0.8})

	_, err := ev.Evaluate(context.Background(), b, map[types.Provider]float64{
		types.ProviderAWS:   600,
		types.ProviderAzure: 250,
	})
	require.NoError(t, err)

	require.Len(t, n.events, 1, "850 of 1000 crosses 0.8 when summed across providers")
}

func TestEvaluateZeroAmount(t *testing.T) {
	ev, s, n := setup(t)
	b := seedBudget(t, s, types.Budget{Name: "empty", Provider: types.ProviderAWS, Amount: 0, AlertThreshold: 0.8})

	updated, err := ev.Evaluate(context.Background(), b, map[types.Provider]float64{types.ProviderAWS: 100})
	require.NoError(t, err)
	assert.Empty(t, n.events, "pct is 0 when amount is 0")
	assert.Equal(t, 100.0, updated.LastSpend)
}

func TestNotifierFailureIsNonFatal(t *testing.T) {
	ev, s, n := setup(t)
	n.failWith = errors.New("webhook down")
	b := seedBudget(t, s, types.Budget{Name: "aws", Provider: types.ProviderAWS, Amount: 1000, AlertThreshold: 0.8})

	updated, err := ev.Evaluate(context.Background(), b, map[types.Provider]float64{types.ProviderAWS: 900})
	require.NoError(t, err, "notification failure never aborts the evaluator")
	require.NotNil(t, updated.LastAlertAt, "cooldown stamp set even when delivery failed")
}

func TestEvaluateAllSkipsInactive(t *testing.T) {
	ev, s, _ := setup(t)
	seedBudget(t, s, types.Budget{ID: "b-1", Name: "aws", Provider: types.ProviderAWS, Amount: 1000, AlertThreshold: 0.8})
	inactive := types.Budget{ID: "b-2", WorkspaceID: "ws-1", Name: "old", Provider: types.ProviderAWS, Amount: 10, AlertThreshold: 0.5}
	require.NoError(t, s.PutBudget(inactive))

	results, err := ev.EvaluateAll(context.Background(), "ws-1", map[types.Provider]float64{types.ProviderAWS: 100})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b-1", results[0].ID)
}
