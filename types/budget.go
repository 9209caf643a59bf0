package types

import "time"

// BudgetPeriod is the window a budget amount covers.
type BudgetPeriod string

const (
	PeriodMonthly   BudgetPeriod = "monthly"
	PeriodQuarterly BudgetPeriod = "quarterly"
)

// Budget is a spend ceiling for one workspace, scoped to one provider
// or to all of them. Budgets are deactivated rather than deleted so
// spend history survives.
type Budget struct {
	ID              string       `json:"id"`
	WorkspaceID     string       `json:"workspace_id"`
	Name            string       `json:"name"`
	Provider        Provider     `json:"provider"` // ProviderAll or a single provider
	Amount          float64      `json:"amount"`
	Period          BudgetPeriod `json:"period"`
	AlertThreshold  float64      `json:"alert_threshold"` // fraction, 0..1
	LastSpend       float64      `json:"last_spend"`
	LastEvaluatedAt *time.Time   `json:"last_evaluated_at,omitempty"`
	LastAlertAt     *time.Time   `json:"last_alert_at,omitempty"`
	Active          bool         `json:"active"`
	CreatedAt       time.Time    `json:"created_at"`
}

// ScopedSpend picks this budget's spend out of a per-provider total.
func (b Budget) ScopedSpend(spendByProvider map[Provider]float64) float64 {
	if b.Provider != ProviderAll && b.Provider != "" {
		return spendByProvider[b.Provider]
	}
	var total float64
	for _, s := range spendByProvider {
		total += s
	}
	return total
}
