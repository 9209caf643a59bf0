// Package executor turns pending recommendations into provider
// mutations and records every attempt as an Action, successful or
// not. It owns the recommendation and action state machines.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/frugalops/frugal/journal"
	"github.com/frugalops/frugal/providers"
	"github.com/frugalops/frugal/store"
	"github.com/frugalops/frugal/types"
)

// Engine executes and reverses remediation actions.
type Engine struct {
	store    *store.Store
	journal  *journal.Journal
	handlers map[dispatchKey]handler
	inflight *inflightGuard
	logger   zerolog.Logger
	now      func() time.Time
}

// RollbackWindow is how long after execution an action stays
// reversible.
const RollbackWindow = 24 * time.Hour

// NewEngine creates an executor engine. The dispatch table is built
// once here; unsupported combinations fail before any provider call.
func NewEngine(s *store.Store, j *journal.Journal, logger zerolog.Logger) *Engine {
	return &Engine{
		store:    s,
		journal:  j,
		handlers: buildDispatchTable(),
		inflight: newInflightGuard(),
		logger:   logger,
		now:      time.Now,
	}
}

// Apply executes the remediation implied by a pending recommendation.
// Every outcome is terminal: the recommendation ends applied or
// failed (or stays pending for caller errors), and an Action row
// records any attempted provider call.
func (e *Engine) Apply(ctx context.Context, cap providers.Capability, workspaceID, recommendationID, actor string) (*types.Action, *types.Recommendation, error) {
	rec, err := e.store.GetRecommendation(workspaceID, recommendationID)
	if err != nil {
		return nil, nil, err
	}
	if rec.Status != types.RecommendationPending {
		return nil, rec, fmt.Errorf("%w: recommendation is %s", ErrInvalidState, rec.Status)
	}

	h, supported := e.handlers[dispatchKey{rec.Provider, rec.ResourceKind, rec.Kind}]
	if !supported {
		return nil, rec, fmt.Errorf("%w: %s/%s/%s", ErrUnsupportedAction, rec.Provider, rec.ResourceKind, rec.Kind)
	}

	if !e.inflight.acquire(workspaceID, rec.ResourceID) {
		return nil, rec, fmt.Errorf("%w: %s", ErrResourceBusy, rec.ResourceID)
	}
	defer e.inflight.release(workspaceID, rec.ResourceID)

	if err := e.journal.Append(journal.EntryApplying, workspaceID, rec.ResourceID, actor, rec); err != nil {
		return nil, rec, fmt.Errorf("failed to journal apply start: %w", err)
	}

	executedAt := e.now().UTC()
	payload, applyErr := h(ctx, cap, rec)
	if errors.Is(applyErr, ErrUnsupportedAction) {
		// Handler discovered the combination is not actionable after
		// all (e.g. no concrete target size). Same contract as a
		// missing dispatch entry: stay pending, no action row.
		return nil, rec, applyErr
	}

	if applyErr != nil {
		return e.recordFailure(rec, actor, executedAt, applyErr)
	}
	return e.recordSuccess(rec, actor, executedAt, payload)
}

func (e *Engine) recordSuccess(rec *types.Recommendation, actor string, executedAt time.Time, payload types.RollbackPayload) (*types.Action, *types.Recommendation, error) {
	action := e.newAction(rec, actor, executedAt)
	action.Status = types.ActionExecuted
	action.Rollback = payload

	if err := e.store.CreateAction(action); err != nil {
		return nil, rec, fmt.Errorf("provider call succeeded but action not recorded: %w", err)
	}

	updated, err := e.store.UpdateRecommendation(rec.WorkspaceID, rec.ID, func(r *types.Recommendation) {
		r.Status = types.RecommendationApplied
		r.AppliedAt = &executedAt
		r.AppliedBy = actor
	})
	if err != nil {
		return &action, rec, err
	}

	if err := e.journal.Append(journal.EntryApplied, rec.WorkspaceID, rec.ResourceID, actor, action); err != nil {
		// The mutation is already durable in the store; a journal
		// failure is logged, not surfaced.
		e.logger.Warn().Err(err).Str("action_id", action.ID).Msg("apply succeeded but journal write failed")
	}

	e.logger.Info().
		Str("workspace_id", rec.WorkspaceID).
		Str("resource_id", rec.ResourceID).
		Str("kind", string(rec.Kind)).
		Str("action_id", action.ID).
		Msg("recommendation applied")

	return &action, updated, nil
}

func (e *Engine) recordFailure(rec *types.Recommendation, actor string, executedAt time.Time, applyErr error) (*types.Action, *types.Recommendation, error) {
	action := e.newAction(rec, actor, executedAt)
	action.Status = types.ActionFailed
	action.Error = applyErr.Error()

	if err := e.store.CreateAction(action); err != nil {
		return nil, rec, fmt.Errorf("apply failed and action not recorded: %w (apply: %v)", err, applyErr)
	}

	updated, err := e.store.UpdateRecommendation(rec.WorkspaceID, rec.ID, func(r *types.Recommendation) {
		r.Status = types.RecommendationFailed
	})
	if err != nil {
		return &action, rec, err
	}

	if err := e.journal.AppendError(journal.EntryApplyFailed, rec.WorkspaceID, rec.ResourceID, actor, action, applyErr); err != nil {
		e.logger.Warn().Err(err).Str("action_id", action.ID).Msg("journal write failed for failed apply")
	}

	e.logger.Error().
		Err(applyErr).
		Str("workspace_id", rec.WorkspaceID).
		Str("resource_id", rec.ResourceID).
		Str("kind", string(rec.Kind)).
		Msg("apply failed")

	return &action, updated, applyErr
}

func (e *Engine) newAction(rec *types.Recommendation, actor string, executedAt time.Time) types.Action {
	return types.Action{
		ID:               uuid.NewString(),
		WorkspaceID:      rec.WorkspaceID,
		RecommendationID: rec.ID,
		Kind:             rec.Kind,
		Provider:         rec.Provider,
		ResourceID:       rec.ResourceID,
		ResourceKind:     rec.ResourceKind,
		Region:           rec.Region,
		EstimatedSaving:  rec.EstimatedSaving,
		ExecutedAt:       executedAt,
		ExecutedBy:       actor,
	}
}

// Dismiss marks a pending recommendation as dismissed by the user.
func (e *Engine) Dismiss(ctx context.Context, workspaceID, recommendationID, actor, reason string) (*types.Recommendation, error) {
	rec, err := e.store.GetRecommendation(workspaceID, recommendationID)
	if err != nil {
		return nil, err
	}
	if rec.Status != types.RecommendationPending {
		return rec, fmt.Errorf("%w: recommendation is %s", ErrInvalidState, rec.Status)
	}

	updated, err := e.store.UpdateRecommendation(workspaceID, recommendationID, func(r *types.Recommendation) {
		r.Status = types.RecommendationDismissed
		r.DismissReason = reason
	})
	if err != nil {
		return nil, err
	}

	if err := e.journal.Append(journal.EntryDismissed, workspaceID, rec.ResourceID, actor, updated); err != nil {
		e.logger.Warn().Err(err).Str("recommendation_id", recommendationID).Msg("journal write failed for dismiss")
	}
	return updated, nil
}
