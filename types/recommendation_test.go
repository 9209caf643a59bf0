package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeverityForSaving(t *testing.T) {
	tests := []struct {
		name   string
		saving float64
		want   Severity
	}{
		{"high at boundary", 50.0, SeverityHigh},
		{"high above boundary", 120.5, SeverityHigh},
		{"medium at boundary", 10.0, SeverityMedium},
		{"medium just under high", 49.99, SeverityMedium},
		{"low just under medium", 9.99, SeverityLow},
		{"low at zero", 0, SeverityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SeverityForSaving(tt.saving))
		})
	}
}

func TestNewRecommendationFromFinding(t *testing.T) {
	detected := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := Finding{
		Provider:        ProviderAWS,
		ResourceID:      "i-0abc",
		ResourceKind:    KindCompute,
		Region:          "us-east-1",
		Kind:            RecommendRightSize,
		MonthlyCost:     140,
		EstimatedSaving: 70,
		Reason:          "average CPU below idle threshold",
		CurrentSpec:     ComputeOf("m5.xlarge"),
		RecommendedSpec: ComputeOf("m5.large"),
	}

	rec := NewRecommendation("rec-1", "ws-1", "acct-1", f, detected)

	assert.Equal(t, RecommendationPending, rec.Status)
	assert.Equal(t, SeverityHigh, rec.Severity)
	assert.Equal(t, "i-0abc", rec.ResourceID)
	assert.Equal(t, detected, rec.DetectedAt)
	assert.Nil(t, rec.AppliedAt)
}

func TestRecommendationRefresh(t *testing.T) {
	rec := Recommendation{
		Status:          RecommendationPending,
		EstimatedSaving: 70,
		Severity:        SeverityHigh,
		Reason:          "old reason",
	}

	rec.Refresh(Finding{
		EstimatedSaving: 12,
		MonthlyCost:     30,
		Reason:          "new reason",
	}, time.Now())

	assert.Equal(t, RecommendationPending, rec.Status, "refresh must not change status")
	assert.Equal(t, SeverityMedium, rec.Severity, "severity follows refreshed saving")
	assert.Equal(t, "new reason", rec.Reason)
}

func TestRollbackPayloadEmpty(t *testing.T) {
	assert.True(t, RollbackPayload{}.Empty())
	assert.False(t, RollbackPayload{Kind: RollbackRestart, ResourceID: "i-1"}.Empty())
}

func TestBudgetScopedSpend(t *testing.T) {
	spend := map[Provider]float64{ProviderAWS: 600, ProviderAzure: 250}

	scoped := Budget{Provider: ProviderAWS}
	assert.Equal(t, 600.0, scoped.ScopedSpend(spend))

	all := Budget{Provider: ProviderAll}
	assert.Equal(t, 850.0, all.ScopedSpend(spend))
}
