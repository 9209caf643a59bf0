// Package budget evaluates workspace budgets against observed spend
// and raises cooldown-gated threshold alerts.
package budget

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/frugalops/frugal/store"
	"github.com/frugalops/frugal/telemetry"
	"github.com/frugalops/frugal/types"
)

// Notifier dispatches a named event to the outside world. Failures
// must never abort an evaluation; the evaluator logs and moves on.
type Notifier interface {
	Notify(ctx context.Context, event string, payload map[string]any) error
}

// AlertCooldown suppresses repeat alerts for the same budget.
const AlertCooldown = 24 * time.Hour

// EventThresholdReached is the event name fired when a budget crosses
// its alert threshold.
const EventThresholdReached = "budget.threshold_reached"

// Evaluator compares budgets against per-provider spend.
type Evaluator struct {
	store    *store.Store
	notifier Notifier
	logger   zerolog.Logger
	now      func() time.Time
}

// NewEvaluator creates a budget evaluator.
func NewEvaluator(s *store.Store, notifier Notifier, logger zerolog.Logger) *Evaluator {
	return &Evaluator{store: s, notifier: notifier, logger: logger, now: time.Now}
}

// Evaluate checks one budget against spend, persists the observation,
// and fires an alert when the threshold is crossed outside the
// cooldown. Spend and evaluation time are stamped regardless of the
// threshold outcome.
func (ev *Evaluator) Evaluate(ctx context.Context, b types.Budget, spendByProvider map[types.Provider]float64) (*types.Budget, error) {
	spend := b.ScopedSpend(spendByProvider)

	pct := 0.0
	if b.Amount > 0 {
		pct = spend / b.Amount
	}

	now := ev.now().UTC()
	alert := pct >= b.AlertThreshold && ev.cooldownElapsed(b, now)

	updated, err := ev.store.UpdateBudget(b.WorkspaceID, b.ID, func(budget *types.Budget) {
		budget.LastSpend = spend
		budget.LastEvaluatedAt = &now
		if alert {
			budget.LastAlertAt = &now
		}
	})
	if err != nil {
		return nil, err
	}

	if alert {
		ev.fireAlert(ctx, *updated, spend, pct)
	}
	return updated, nil
}

// EvaluateAll runs every active budget of a workspace against the
// same spend snapshot.
func (ev *Evaluator) EvaluateAll(ctx context.Context, workspaceID string, spendByProvider map[types.Provider]float64) ([]types.Budget, error) {
	budgets, err := ev.store.ListBudgets(workspaceID, true)
	if err != nil {
		return nil, err
	}

	results := make([]types.Budget, 0, len(budgets))
	for _, b := range budgets {
		updated, err := ev.Evaluate(ctx, b, spendByProvider)
		if err != nil {
			return results, err
		}
		results = append(results, *updated)
	}
	return results, nil
}

func (ev *Evaluator) cooldownElapsed(b types.Budget, now time.Time) bool {
	return b.LastAlertAt == nil || now.Sub(*b.LastAlertAt) >= AlertCooldown
}

func (ev *Evaluator) fireAlert(ctx context.Context, b types.Budget, spend, pct float64) {
	if telemetry.BudgetAlertsTotal != nil {
		telemetry.BudgetAlertsTotal.Add(ctx, 1,
			metric.WithAttributes(attribute.String("provider", string(b.Provider))))
	}

	if ev.notifier == nil {
		return
	}

	payload := map[string]any{
		"budget_id":       b.ID,
		"workspace_id":    b.WorkspaceID,
		"budget_name":     b.Name,
		"provider":        string(b.Provider),
		"amount":          b.Amount,
		"spend":           spend,
		"spend_pct":       pct,
		"alert_threshold": b.AlertThreshold,
	}

	if err := ev.notifier.Notify(ctx, EventThresholdReached, payload); err != nil {
		// Notification is best-effort; the evaluation already stuck.
		ev.logger.Warn().
			Err(err).
			Str("budget_id", b.ID).
			Str("workspace_id", b.WorkspaceID).
			Msg("budget alert notification failed")
		return
	}

	ev.logger.Info().
		Str("budget_id", b.ID).
		Str("workspace_id", b.WorkspaceID).
		Float64("spend_pct", pct).
		Msg("budget threshold alert fired")
}
