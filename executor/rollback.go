package executor

import (
	"context"
	"fmt"

	"github.com/frugalops/frugal/journal"
	"github.com/frugalops/frugal/providers"
	"github.com/frugalops/frugal/types"
)

// Rollback reverses a previously executed action. Only allowed while
// the action is exactly executed, carries a payload, and the rollback
// window has not elapsed. A provider failure during the inverse call
// leaves the action executed so the caller can retry.
func (e *Engine) Rollback(ctx context.Context, cap providers.Capability, workspaceID, actionID, actor string) (*types.Action, error) {
	action, err := e.store.GetAction(workspaceID, actionID)
	if err != nil {
		return nil, err
	}
	if action.Status != types.ActionExecuted {
		return action, fmt.Errorf("%w: action is %s", ErrInvalidState, action.Status)
	}
	if action.Rollback.Empty() {
		return action, fmt.Errorf("%w: %s actions cannot be reversed", ErrRollbackUnavailable, action.Kind)
	}
	if e.now().Sub(action.ExecutedAt) >= RollbackWindow {
		return action, fmt.Errorf("%w: executed at %s", ErrRollbackWindowExpired, action.ExecutedAt.Format("2006-01-02 15:04:05"))
	}

	if !e.inflight.acquire(workspaceID, action.ResourceID) {
		return action, fmt.Errorf("%w: %s", ErrResourceBusy, action.ResourceID)
	}
	defer e.inflight.release(workspaceID, action.ResourceID)

	if err := e.journal.Append(journal.EntryRollingBack, workspaceID, action.ResourceID, actor, action); err != nil {
		return action, fmt.Errorf("failed to journal rollback start: %w", err)
	}

	if err := e.invertAction(ctx, cap, action); err != nil {
		if jerr := e.journal.AppendError(journal.EntryRollbackFailed, workspaceID, action.ResourceID, actor, action, err); jerr != nil {
			e.logger.Warn().Err(jerr).Str("action_id", actionID).Msg("journal write failed for failed rollback")
		}
		// No state mutation: the action stays executed for retry.
		return action, err
	}

	rolledBackAt := e.now().UTC()
	updated, err := e.store.UpdateAction(workspaceID, actionID, func(a *types.Action) {
		a.Status = types.ActionRolledBack
		a.RolledBackAt = &rolledBackAt
	})
	if err != nil {
		return action, err
	}

	if updated.RecommendationID != "" {
		if _, err := e.store.UpdateRecommendation(workspaceID, updated.RecommendationID, func(r *types.Recommendation) {
			r.Status = types.RecommendationPending
			r.AppliedAt = nil
			r.AppliedBy = ""
		}); err != nil {
			return updated, fmt.Errorf("action rolled back but recommendation not reset: %w", err)
		}
	}

	if err := e.journal.Append(journal.EntryRolledBack, workspaceID, action.ResourceID, actor, updated); err != nil {
		e.logger.Warn().Err(err).Str("action_id", actionID).Msg("journal write failed for rollback")
	}

	e.logger.Info().
		Str("workspace_id", workspaceID).
		Str("resource_id", action.ResourceID).
		Str("action_id", actionID).
		Msg("action rolled back")

	return updated, nil
}

// invertAction issues the provider operation described by the
// rollback payload.
func (e *Engine) invertAction(ctx context.Context, cap providers.Capability, action *types.Action) error {
	switch action.Rollback.Kind {
	case types.RollbackRestart:
		return cap.StartResource(ctx, types.KindCompute, action.Rollback.ResourceID)
	case types.RollbackResume:
		return cap.StartResource(ctx, types.KindDatabase, action.Rollback.ResourceID)
	case types.RollbackResize:
		original := action.Rollback.OriginalSpec.Compute
		if original == nil {
			return fmt.Errorf("%w: resize payload has no original spec", ErrRollbackUnavailable)
		}
		return cap.ResizeResource(ctx, action.Rollback.ResourceID, *original)
	default:
		return fmt.Errorf("%w: unknown payload kind %q", ErrRollbackUnavailable, action.Rollback.Kind)
	}
}
