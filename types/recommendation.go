package types

import "time"

// RecommendationKind is the remediation a finding suggests.
type RecommendationKind string

const (
	RecommendRightSize RecommendationKind = "right_size"
	RecommendStop      RecommendationKind = "stop"
	RecommendDelete    RecommendationKind = "delete"
	RecommendSchedule  RecommendationKind = "schedule"
)

// Severity classifies a recommendation by its monthly saving.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Severity thresholds in currency units per month, inclusive at the
// lower bound of each tier.
const (
	severityHighFloor   = 50.0
	severityMediumFloor = 10.0
)

// SeverityForSaving derives severity from estimated monthly saving alone.
func SeverityForSaving(saving float64) Severity {
	switch {
	case saving >= severityHighFloor:
		return SeverityHigh
	case saving >= severityMediumFloor:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// RecommendationStatus is the lifecycle state of a Recommendation.
type RecommendationStatus string

const (
	RecommendationPending   RecommendationStatus = "pending"
	RecommendationApplied   RecommendationStatus = "applied"
	RecommendationFailed    RecommendationStatus = "failed"
	RecommendationDismissed RecommendationStatus = "dismissed"
)

// Finding is the ephemeral output of a single rule for a single
// resource. Findings are never persisted directly; the store turns
// them into deduplicated Recommendations.
type Finding struct {
	Provider        Provider           `json:"provider"`
	ResourceID      string             `json:"resource_id"`
	ResourceName    string             `json:"resource_name"`
	ResourceKind    ResourceKind       `json:"resource_kind"`
	Region          string             `json:"region"`
	Kind            RecommendationKind `json:"kind"`
	MonthlyCost     float64            `json:"monthly_cost"`
	EstimatedSaving float64            `json:"estimated_saving"`
	Reason          string             `json:"reason"`
	CurrentSpec     SpecDoc            `json:"current_spec"`
	RecommendedSpec SpecDoc            `json:"recommended_spec"`
}

// Recommendation is the persisted, deduplicated form of a Finding.
// At most one pending Recommendation exists per
// (workspace, resource id, kind).
type Recommendation struct {
	ID              string               `json:"id"`
	WorkspaceID     string               `json:"workspace_id"`
	AccountID       string               `json:"account_id,omitempty"`
	Provider        Provider             `json:"provider"`
	ResourceID      string               `json:"resource_id"`
	ResourceName    string               `json:"resource_name"`
	ResourceKind    ResourceKind         `json:"resource_kind"`
	Region          string               `json:"region"`
	Kind            RecommendationKind   `json:"kind"`
	Severity        Severity             `json:"severity"`
	EstimatedSaving float64              `json:"estimated_saving"`
	MonthlyCost     float64              `json:"monthly_cost"`
	Reason          string               `json:"reason"`
	CurrentSpec     SpecDoc              `json:"current_spec"`
	RecommendedSpec SpecDoc              `json:"recommended_spec"`
	Status          RecommendationStatus `json:"status"`
	DetectedAt      time.Time            `json:"detected_at"`
	AppliedAt       *time.Time           `json:"applied_at,omitempty"`
	AppliedBy       string               `json:"applied_by,omitempty"`
	DismissReason   string               `json:"dismiss_reason,omitempty"`
}

// NewRecommendation builds a pending Recommendation from a Finding.
func NewRecommendation(id, workspaceID, accountID string, f Finding, detectedAt time.Time) Recommendation {
	return Recommendation{
		ID:              id,
		WorkspaceID:     workspaceID,
		AccountID:       accountID,
		Provider:        f.Provider,
		ResourceID:      f.ResourceID,
		ResourceName:    f.ResourceName,
		ResourceKind:    f.ResourceKind,
		Region:          f.Region,
		Kind:            f.Kind,
		Severity:        SeverityForSaving(f.EstimatedSaving),
		EstimatedSaving: f.EstimatedSaving,
		MonthlyCost:     f.MonthlyCost,
		Reason:          f.Reason,
		CurrentSpec:     f.CurrentSpec,
		RecommendedSpec: f.RecommendedSpec,
		Status:          RecommendationPending,
		DetectedAt:      detectedAt,
	}
}

// Refresh updates the mutable detection fields from a re-detected
// Finding without touching identity or status.
func (r *Recommendation) Refresh(f Finding, detectedAt time.Time) {
	r.EstimatedSaving = f.EstimatedSaving
	r.MonthlyCost = f.MonthlyCost
	r.Reason = f.Reason
	r.Severity = SeverityForSaving(f.EstimatedSaving)
	r.CurrentSpec = f.CurrentSpec
	r.RecommendedSpec = f.RecommendedSpec
	r.DetectedAt = detectedAt
}
