package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frugalops/frugal/providers"
	"github.com/frugalops/frugal/store"
	"github.com/frugalops/frugal/types"
)

// applied runs a successful apply and returns the resulting action.
func applied(t *testing.T, h *harness, f types.Finding) *types.Action {
	t.Helper()
	rec := h.seed(t, f)
	action, _, err := h.engine.Apply(context.Background(), h.cap, "ws-1", rec.ID, "user@example.com")
	require.NoError(t, err)
	return action
}

func TestRollbackResetsRecommendation(t *testing.T) {
	h := newHarness(t)
	action := applied(t, h, stopFinding("db-1"))

	rolled, err := h.engine.Rollback(context.Background(), h.cap, "ws-1", action.ID, "user@example.com")
	require.NoError(t, err)

	assert.Equal(t, types.ActionRolledBack, rolled.Status)
	require.NotNil(t, rolled.RolledBackAt)
	assert.Equal(t, []string{"db-1"}, h.cap.startCalls, "resume issued")

	rec, err := h.store.GetRecommendation("ws-1", action.RecommendationID)
	require.NoError(t, err)
	assert.Equal(t, types.RecommendationPending, rec.Status)
	assert.Nil(t, rec.AppliedAt)
	assert.Empty(t, rec.AppliedBy)
}

func TestRollbackRestoresOriginalSize(t *testing.T) {
	h := newHarness(t)
	action := applied(t, h, resizeFinding("i-1"))

	_, err := h.engine.Rollback(context.Background(), h.cap, "ws-1", action.ID, "user@example.com")
	require.NoError(t, err)

	require.Len(t, h.cap.resizeCalls, 2)
	assert.Equal(t, "m5.xlarge", h.cap.resizeCalls[1].InstanceType, "rollback restores the original spec")
}

func TestRollbackUnavailableForDeletes(t *testing.T) {
	h := newHarness(t)
	action := applied(t, h, deleteFinding("vol-1"))

	_, err := h.engine.Rollback(context.Background(), h.cap, "ws-1", action.ID, "user@example.com")
	assert.ErrorIs(t, err, ErrRollbackUnavailable)

	unchanged, err := h.store.GetAction("ws-1", action.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ActionExecuted, unchanged.Status)
}

func TestRollbackWindowExpired(t *testing.T) {
	h := newHarness(t)
	action := applied(t, h, stopFinding("db-1"))

	// Advance the engine clock past the window.
	h.engine.now = func() time.Time { return action.ExecutedAt.Add(RollbackWindow) }

	_, err := h.engine.Rollback(context.Background(), h.cap, "ws-1", action.ID, "user@example.com")
	assert.ErrorIs(t, err, ErrRollbackWindowExpired)
}

func TestRollbackJustInsideWindow(t *testing.T) {
	h := newHarness(t)
	action := applied(t, h, stopFinding("db-1"))

	h.engine.now = func() time.Time { return action.ExecutedAt.Add(RollbackWindow - time.Minute) }

	_, err := h.engine.Rollback(context.Background(), h.cap, "ws-1", action.ID, "user@example.com")
	assert.NoError(t, err)
}

func TestRollbackProviderErrorLeavesActionExecuted(t *testing.T) {
	h := newHarness(t)
	action := applied(t, h, stopFinding("db-1"))

	h.cap.failWith = providers.WrapError(types.ProviderAWS, "StartDBInstance", "start db-1", errors.New("rate exceeded"))

	_, err := h.engine.Rollback(context.Background(), h.cap, "ws-1", action.ID, "user@example.com")
	require.Error(t, err)

	var perr *providers.Error
	assert.True(t, errors.As(err, &perr))

	unchanged, err := h.store.GetAction("ws-1", action.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ActionExecuted, unchanged.Status, "retry stays possible")

	rec, err := h.store.GetRecommendation("ws-1", action.RecommendationID)
	require.NoError(t, err)
	assert.Equal(t, types.RecommendationApplied, rec.Status, "linked recommendation untouched")
}

func TestRollbackTwiceIsInvalidState(t *testing.T) {
	h := newHarness(t)
	action := applied(t, h, stopFinding("db-1"))

	_, err := h.engine.Rollback(context.Background(), h.cap, "ws-1", action.ID, "user@example.com")
	require.NoError(t, err)

	_, err = h.engine.Rollback(context.Background(), h.cap, "ws-1", action.ID, "user@example.com")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestRollbackNotFound(t *testing.T) {
	h := newHarness(t)
	_, err := h.engine.Rollback(context.Background(), h.cap, "ws-1", "missing", "user@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
