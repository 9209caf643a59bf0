package types

import "time"

// ActionStatus is the lifecycle state of an Action.
type ActionStatus string

const (
	ActionExecuted   ActionStatus = "executed"
	ActionFailed     ActionStatus = "failed"
	ActionRolledBack ActionStatus = "rolled_back"
)

// RollbackKind names the inverse operation recorded on an Action.
type RollbackKind string

const (
	RollbackNone    RollbackKind = ""        // non-reversible (deletes)
	RollbackRestart RollbackKind = "restart" // start a stopped resource
	RollbackResize  RollbackKind = "resize"  // restore the original spec
	RollbackResume  RollbackKind = "resume"  // resume a paused database
)

// RollbackPayload carries whatever an Action needs to be reversed.
// Empty payload means the action cannot be undone.
type RollbackPayload struct {
	Kind         RollbackKind      `json:"kind,omitempty"`
	ResourceID   string            `json:"resource_id,omitempty"`
	OriginalSpec SpecDoc           `json:"original_spec,omitempty"`
	Opaque       map[string]string `json:"opaque,omitempty"`
}

// Empty reports whether the payload describes no reversal.
func (p RollbackPayload) Empty() bool {
	return p.Kind == RollbackNone
}

// Action records one attempted remediation, successful or not.
// A new apply attempt always creates a new Action; executed and
// failed are terminal except for executed -> rolled_back.
type Action struct {
	ID               string             `json:"id"`
	WorkspaceID      string             `json:"workspace_id"`
	RecommendationID string             `json:"recommendation_id,omitempty"`
	Kind             RecommendationKind `json:"kind"`
	Provider         Provider           `json:"provider"`
	ResourceID       string             `json:"resource_id"`
	ResourceKind     ResourceKind       `json:"resource_kind"`
	Region           string             `json:"region"`
	EstimatedSaving  float64            `json:"estimated_saving"`
	Status           ActionStatus       `json:"status"`
	ExecutedAt       time.Time          `json:"executed_at"`
	ExecutedBy       string             `json:"executed_by"`
	Rollback         RollbackPayload    `json:"rollback,omitempty"`
	RolledBackAt     *time.Time         `json:"rolled_back_at,omitempty"`
	Error            string             `json:"error,omitempty"`
}
