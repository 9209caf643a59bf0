// Package engine is the façade tying scanning, recommendations,
// actions, budgets and anomaly detection together behind one API.
// Callers bring their own credential, notification, audit and
// entitlement collaborators.
package engine

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/frugalops/frugal/anomaly"
	"github.com/frugalops/frugal/budget"
	"github.com/frugalops/frugal/executor"
	"github.com/frugalops/frugal/journal"
	"github.com/frugalops/frugal/providers"
	"github.com/frugalops/frugal/rules"
	"github.com/frugalops/frugal/scan"
	"github.com/frugalops/frugal/store"
	"github.com/frugalops/frugal/telemetry"
	"github.com/frugalops/frugal/types"
)

// Options configures an Engine. Store and Credentials are required;
// the rest default to no-ops or stock values.
type Options struct {
	Store        *store.Store
	Journal      *journal.Journal
	Credentials  CredentialResolver
	Notifier     budget.Notifier
	Audit        AuditLogger
	Entitlements Entitlements
	Thresholds   rules.Thresholds
}

// Engine exposes the cost-optimization API for one deployment.
type Engine struct {
	store    *store.Store
	journal  *journal.Journal
	scanner  *scan.Scanner
	executor *executor.Engine
	budgets  *budget.Evaluator
	creds    CredentialResolver
	audit    AuditLogger
	entitle  Entitlements
	logger   *telemetry.Logger
}

// New assembles an engine from its collaborators.
func New(opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("engine requires a store")
	}
	if opts.Credentials == nil {
		return nil, fmt.Errorf("engine requires a credential resolver")
	}
	if opts.Audit == nil {
		opts.Audit = NopAudit{}
	}
	if opts.Entitlements == nil {
		opts.Entitlements = AllowAll{}
	}
	if opts.Thresholds == (rules.Thresholds{}) {
		opts.Thresholds = rules.DefaultThresholds()
	}

	logger := telemetry.NewLogger("engine")
	telemetry.SetPendingObserver(func() int64 {
		return int64(opts.Store.PendingCount())
	})
	return &Engine{
		store:    opts.Store,
		journal:  opts.Journal,
		scanner:  scan.NewScanner(opts.Store, opts.Journal, opts.Thresholds),
		executor: executor.NewEngine(opts.Store, opts.Journal, logger.Logger),
		budgets:  budget.NewEvaluator(opts.Store, opts.Notifier, logger.Logger),
		creds:    opts.Credentials,
		audit:    opts.Audit,
		entitle:  opts.Entitlements,
		logger:   logger,
	}, nil
}

// Scan discovers waste across the workspace's configured providers.
// providerFilter narrows the scan to one provider; ProviderAll (or
// empty) scans every configured one. Unconfigured providers are
// skipped silently.
func (e *Engine) Scan(ctx context.Context, workspaceID string, providerFilter types.Provider) (scan.Result, error) {
	targets, err := e.resolveTargets(ctx, workspaceID, providerFilter)
	if err != nil {
		return scan.Result{}, err
	}
	if len(targets) == 0 {
		return scan.Result{}, fmt.Errorf("no providers configured for workspace %s", workspaceID)
	}
	return e.scanner.Scan(ctx, workspaceID, targets)
}

// ListRecommendations returns the workspace's recommendations,
// newest first, narrowed by the filter.
func (e *Engine) ListRecommendations(workspaceID string, filter store.RecommendationFilter) ([]types.Recommendation, error) {
	return e.store.ListRecommendations(workspaceID, filter)
}

// Apply executes a pending recommendation against its provider.
func (e *Engine) Apply(ctx context.Context, workspaceID, recommendationID, actor string) (*types.Action, *types.Recommendation, error) {
	if err := e.requireFeature(ctx, workspaceID, FeatureApply); err != nil {
		return nil, nil, err
	}

	rec, err := e.store.GetRecommendation(workspaceID, recommendationID)
	if err != nil {
		return nil, nil, err
	}

	cap, err := e.capabilityFor(ctx, workspaceID, rec.Provider)
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	action, updated, err := e.executor.Apply(ctx, cap, workspaceID, recommendationID, actor)
	e.recordApplyMetrics(ctx, rec.Provider, action, start)
	if err != nil {
		return action, updated, err
	}

	e.recordAudit(ctx, workspaceID, actor, "apply", rec.ResourceID)
	return action, updated, nil
}

// Dismiss marks a pending recommendation as dismissed.
func (e *Engine) Dismiss(ctx context.Context, workspaceID, recommendationID, actor, reason string) (*types.Recommendation, error) {
	rec, err := e.executor.Dismiss(ctx, workspaceID, recommendationID, actor, reason)
	if err != nil {
		return nil, err
	}
	e.recordAudit(ctx, workspaceID, actor, "dismiss", rec.ResourceID)
	return rec, nil
}

// Rollback reverses an executed action within its rollback window.
func (e *Engine) Rollback(ctx context.Context, workspaceID, actionID, actor string) (*types.Action, error) {
	if err := e.requireFeature(ctx, workspaceID, FeatureRollback); err != nil {
		return nil, err
	}

	action, err := e.store.GetAction(workspaceID, actionID)
	if err != nil {
		return nil, err
	}

	cap, err := e.capabilityFor(ctx, workspaceID, action.Provider)
	if err != nil {
		return nil, err
	}

	rolled, err := e.executor.Rollback(ctx, cap, workspaceID, actionID, actor)
	if telemetry.RollbacksTotal != nil {
		result := "success"
		if err != nil {
			result = "error"
		}
		telemetry.RollbacksTotal.Add(ctx, 1,
			metric.WithAttributes(attribute.String("result", result)))
	}
	if err != nil {
		return rolled, err
	}

	e.recordAudit(ctx, workspaceID, actor, "rollback", action.ResourceID)
	return rolled, nil
}

// EvaluateBudgets fetches month-to-date spend from every configured
// provider and evaluates the workspace's active budgets against it.
// A provider whose spend fetch fails contributes zero.
func (e *Engine) EvaluateBudgets(ctx context.Context, workspaceID string) ([]types.Budget, error) {
	if err := e.requireFeature(ctx, workspaceID, FeatureBudgets); err != nil {
		return nil, err
	}

	targets, err := e.resolveTargets(ctx, workspaceID, types.ProviderAll)
	if err != nil {
		return nil, err
	}

	spend := make(map[types.Provider]float64, len(targets))
	for _, target := range targets {
		source, ok := target.Capability.(providers.SpendSource)
		if !ok {
			continue
		}
		amount, err := source.MonthToDateSpend(ctx)
		if err != nil {
			e.logger.WithContext(ctx).Warn().Err(err).
				Str("workspace_id", workspaceID).
				Str("provider", string(target.Capability.Name())).
				Msg("spend fetch failed, counting zero")
			continue
		}
		spend[target.Capability.Name()] += amount
	}

	return e.budgets.EvaluateAll(ctx, workspaceID, spend)
}

// DetectAnomaly runs statistical detection over a daily cost series
// and persists the anomaly when one is found.
func (e *Engine) DetectAnomaly(ctx context.Context, workspaceID string, dailyCosts []float64, service string, provider types.Provider) (*types.Anomaly, bool, error) {
	found, ok := anomaly.Detect(dailyCosts, service, provider)
	if !ok {
		return nil, false, nil
	}

	found.WorkspaceID = workspaceID
	if err := e.store.PutAnomaly(*found); err != nil {
		return nil, false, err
	}

	if telemetry.AnomaliesDetected != nil {
		telemetry.AnomaliesDetected.Add(ctx, 1,
			metric.WithAttributes(attribute.String("provider", string(provider))))
	}
	e.logger.WithContext(ctx).Info().
		Str("workspace_id", workspaceID).
		Str("service", service).
		Float64("actual_cost", found.ActualCost).
		Float64("deviation_pct", found.DeviationPct).
		Msg("cost anomaly detected")

	return found, true, nil
}

// DetectServiceAnomaly fetches one service's daily spend from the
// provider and runs detection over it. Errors when the provider
// exposes no cost series.
func (e *Engine) DetectServiceAnomaly(ctx context.Context, workspaceID string, provider types.Provider, service string, windowDays int) (*types.Anomaly, bool, error) {
	cap, err := e.capabilityFor(ctx, workspaceID, provider)
	if err != nil {
		return nil, false, err
	}
	series, ok := cap.(providers.CostSeries)
	if !ok {
		return nil, false, fmt.Errorf("provider %s has no cost series", provider)
	}

	dailyCosts, err := series.DailyServiceCosts(ctx, service, windowDays)
	if err != nil {
		return nil, false, fmt.Errorf("fetching daily costs for %s: %w", service, err)
	}
	return e.DetectAnomaly(ctx, workspaceID, dailyCosts, service, provider)
}

func (e *Engine) resolveTargets(ctx context.Context, workspaceID string, filter types.Provider) ([]scan.Target, error) {
	var targets []scan.Target
	for _, name := range providers.Names() {
		if filter != "" && filter != types.ProviderAll && filter != name {
			continue
		}
		cfg, configured, err := e.creds.Resolve(ctx, workspaceID, name)
		if err != nil {
			return nil, fmt.Errorf("resolving %s credentials: %w", name, err)
		}
		if !configured {
			continue
		}
		cap, err := providers.New(ctx, name, cfg)
		if err != nil {
			return nil, err
		}
		targets = append(targets, scan.Target{Capability: cap, AccountID: cfg.AccountID})
	}
	return targets, nil
}

func (e *Engine) capabilityFor(ctx context.Context, workspaceID string, provider types.Provider) (providers.Capability, error) {
	cfg, configured, err := e.creds.Resolve(ctx, workspaceID, provider)
	if err != nil {
		return nil, err
	}
	if !configured {
		return nil, fmt.Errorf("provider %s not configured for workspace %s", provider, workspaceID)
	}
	return providers.New(ctx, provider, cfg)
}

func (e *Engine) requireFeature(ctx context.Context, workspaceID string, feature Feature) error {
	allowed, err := e.entitle.Check(ctx, workspaceID, feature)
	if err != nil {
		return fmt.Errorf("entitlement check: %w", err)
	}
	if !allowed {
		return fmt.Errorf("%w: %s", ErrNotEntitled, feature)
	}
	return nil
}

func (e *Engine) recordAudit(ctx context.Context, workspaceID, actor, operation, resourceID string) {
	if err := e.audit.Record(ctx, workspaceID, actor, operation, resourceID); err != nil {
		e.logger.WithContext(ctx).Warn().Err(err).
			Str("operation", operation).
			Msg("audit record failed")
	}
}

func (e *Engine) recordApplyMetrics(ctx context.Context, provider types.Provider, action *types.Action, start time.Time) {
	if telemetry.ApplyDuration != nil {
		telemetry.ApplyDuration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(attribute.String("provider", string(provider))))
	}
	if telemetry.ActionsTotal != nil && action != nil {
		telemetry.ActionsTotal.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("provider", string(provider)),
				attribute.String("status", string(action.Status))))
	}
}
