// Package scan runs the detection catalog across providers and turns
// findings into deduplicated recommendations.
package scan

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/frugalops/frugal/journal"
	"github.com/frugalops/frugal/providers"
	"github.com/frugalops/frugal/rules"
	"github.com/frugalops/frugal/store"
	"github.com/frugalops/frugal/telemetry"
	"github.com/frugalops/frugal/types"
)

// Target pairs a provider capability with the cloud account it was
// built from; recommendations carry the account for attribution.
type Target struct {
	Capability providers.Capability
	AccountID  string
}

// ProviderResult holds the outcome of scanning one provider. A failed
// provider never blocks the others; its Err is reported alongside any
// findings collected before the failure.
type ProviderResult struct {
	Provider           types.Provider
	Findings           []types.Finding
	NewRecommendations int
	Err                error
}

// Result is one full workspace scan.
type Result struct {
	WorkspaceID string
	StartedAt   time.Time
	Duration    time.Duration
	Providers   []ProviderResult
}

// TotalFindings sums findings across providers.
func (r Result) TotalFindings() int {
	n := 0
	for _, pr := range r.Providers {
		n += len(pr.Findings)
	}
	return n
}

// TotalCreated sums new recommendations across providers.
func (r Result) TotalCreated() int {
	n := 0
	for _, pr := range r.Providers {
		n += pr.NewRecommendations
	}
	return n
}

// Scanner evaluates the rule catalog against provider capabilities
// and persists findings through the store's dedup path.
type Scanner struct {
	store      *store.Store
	journal    *journal.Journal
	thresholds rules.Thresholds
	catalog    []rules.Rule
	logger     *telemetry.Logger
}

// NewScanner wires a scanner over the given store and journal.
func NewScanner(st *store.Store, jrnl *journal.Journal, th rules.Thresholds) *Scanner {
	return &Scanner{
		store:      st,
		journal:    jrnl,
		thresholds: th,
		catalog:    rules.Catalog(),
		logger:     telemetry.NewLogger("scanner"),
	}
}

// Scan evaluates every rule against every capability concurrently,
// one goroutine per provider. Rules within a provider run serially so
// we never hammer a single cloud account with parallel API bursts.
func (s *Scanner) Scan(ctx context.Context, workspaceID string, targets []Target) (Result, error) {
	start := time.Now().UTC()

	if s.journal != nil {
		if err := s.journal.Append(journal.EntryScanStarted, workspaceID, "", "", nil); err != nil {
			s.logger.WithContext(ctx).Warn().Err(err).Msg("journal write failed")
		}
	}

	results := make([]ProviderResult, len(targets))
	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target Target) {
			defer wg.Done()
			results[i] = s.scanProvider(ctx, workspaceID, target)
		}(i, target)
	}
	wg.Wait()

	result := Result{
		WorkspaceID: workspaceID,
		StartedAt:   start,
		Duration:    time.Since(start),
		Providers:   results,
	}

	if telemetry.ScanDuration != nil {
		telemetry.ScanDuration.Record(ctx, result.Duration.Seconds(),
			metric.WithAttributes(attribute.String("workspace", workspaceID)))
	}

	if s.journal != nil {
		if err := s.journal.Append(journal.EntryScanCompleted, workspaceID, "", "", map[string]int{
			"findings":            result.TotalFindings(),
			"new_recommendations": result.TotalCreated(),
		}); err != nil {
			s.logger.WithContext(ctx).Warn().Err(err).Msg("journal write failed")
		}
	}

	s.logger.LogScanComplete(ctx, workspaceID,
		result.TotalFindings(), result.TotalCreated(),
		float64(result.Duration.Milliseconds()))

	return result, nil
}

func (s *Scanner) scanProvider(ctx context.Context, workspaceID string, target Target) ProviderResult {
	cap := target.Capability
	pr := ProviderResult{Provider: cap.Name()}
	provider := string(cap.Name())

	for _, rule := range s.catalog {
		if ctx.Err() != nil {
			pr.Err = ctx.Err()
			break
		}

		findings, err := rule.Evaluate(ctx, cap, s.thresholds)
		if err != nil {
			// One rule failing must not hide what the others found.
			s.logger.LogRuleFailure(ctx, workspaceID, provider, rule.Name(), err)
			if telemetry.RuleFailuresTotal != nil {
				telemetry.RuleFailuresTotal.Add(ctx, 1,
					metric.WithAttributes(
						attribute.String("provider", provider),
						attribute.String("rule", rule.Name())))
			}
			if pr.Err == nil {
				pr.Err = err
			}
			continue
		}
		pr.Findings = append(pr.Findings, findings...)
	}

	if len(pr.Findings) > 0 {
		created, err := s.store.UpsertFindings(workspaceID, target.AccountID, pr.Findings)
		pr.NewRecommendations = created
		if err != nil && pr.Err == nil {
			pr.Err = err
		}
	}

	if telemetry.FindingsTotal != nil {
		telemetry.FindingsTotal.Add(ctx, int64(len(pr.Findings)),
			metric.WithAttributes(attribute.String("provider", provider)))
	}
	if telemetry.RecommendationsCreated != nil && pr.NewRecommendations > 0 {
		telemetry.RecommendationsCreated.Add(ctx, int64(pr.NewRecommendations),
			metric.WithAttributes(attribute.String("provider", provider)))
	}

	return pr
}
