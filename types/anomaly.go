package types

import "time"

// AnomalyStatus is the triage state of a detected cost anomaly.
type AnomalyStatus string

const (
	AnomalyOpen         AnomalyStatus = "open"
	AnomalyAcknowledged AnomalyStatus = "acknowledged"
	AnomalyResolved     AnomalyStatus = "resolved"
)

// Anomaly is a sustained cost spike for one service, detected against
// a rolling statistical baseline.
type Anomaly struct {
	ID           string        `json:"id"`
	WorkspaceID  string        `json:"workspace_id"`
	Provider     Provider      `json:"provider"`
	Service      string        `json:"service"`
	DetectedDate time.Time     `json:"detected_date"`
	BaselineCost float64       `json:"baseline_cost"`
	ActualCost   float64       `json:"actual_cost"`
	DeviationPct float64       `json:"deviation_pct"`
	Status       AnomalyStatus `json:"status"`
}
