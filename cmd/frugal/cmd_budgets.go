package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/frugalops/frugal/types"
)

var (
	budgetName      string
	budgetAmount    float64
	budgetProvider  string
	budgetPeriod    string
	budgetThreshold float64
	budgetAll       bool
)

var budgetsCmd = &cobra.Command{
	Use:   "budgets",
	Short: "Manage spend budgets",
	Long: `Manage workspace spend budgets. A budget caps one provider's
spend, or the whole workspace's, per month or quarter; crossing the
alert threshold fires a notification at most once per 24 hours.`,
}

var budgetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List budgets",
	RunE:  runBudgetsList,
}

var budgetsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a budget",
	Example: `  frugal budgets create --name prod-aws --amount 5000 --provider aws
  frugal budgets create --name everything --amount 12000 --period quarterly --threshold 0.9`,
	RunE: runBudgetsCreate,
}

var budgetsEvaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate budgets against live month-to-date spend",
	RunE:  runBudgetsEvaluate,
}

var budgetsDisableCmd = &cobra.Command{
	Use:   "disable <budget-id>",
	Short: "Deactivate a budget",
	Args:  cobra.ExactArgs(1),
	RunE:  runBudgetsDisable,
}

func init() {
	rootCmd.AddCommand(budgetsCmd)
	budgetsCmd.AddCommand(budgetsListCmd, budgetsCreateCmd, budgetsEvaluateCmd, budgetsDisableCmd)

	budgetsListCmd.Flags().BoolVar(&budgetAll, "all", false, "Include deactivated budgets")

	budgetsCreateCmd.Flags().StringVar(&budgetName, "name", "", "Budget name")
	budgetsCreateCmd.Flags().Float64Var(&budgetAmount, "amount", 0, "Spend ceiling in currency units")
	budgetsCreateCmd.Flags().StringVar(&budgetProvider, "provider", "all", "Provider scope (aws, azure, all)")
	budgetsCreateCmd.Flags().StringVar(&budgetPeriod, "period", "monthly", "Budget period (monthly, quarterly)")
	budgetsCreateCmd.Flags().Float64Var(&budgetThreshold, "threshold", 0.8, "Alert threshold as a fraction of the amount")
	_ = budgetsCreateCmd.MarkFlagRequired("name")
	_ = budgetsCreateCmd.MarkFlagRequired("amount")
}

func runBudgetsList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	budgets, err := a.store.ListBudgets(a.cfg.WorkspaceID, !budgetAll)
	if err != nil {
		return err
	}
	if len(budgets) == 0 {
		fmt.Println("No budgets configured.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPROVIDER\tAMOUNT\tPERIOD\tTHRESHOLD\tLAST SPEND\tACTIVE")
	for _, b := range budgets {
		fmt.Fprintf(w, "%s\t%s\t%s\t$%.2f\t%s\t%.0f%%\t$%.2f\t%t\n",
			shortID(b.ID), b.Name, b.Provider, b.Amount, b.Period,
			b.AlertThreshold*100, b.LastSpend, b.Active)
	}
	return w.Flush()
}

func runBudgetsCreate(cmd *cobra.Command, args []string) error {
	if budgetAmount <= 0 {
		return fmt.Errorf("budget amount must be positive")
	}
	if budgetThreshold <= 0 || budgetThreshold > 1 {
		return fmt.Errorf("alert threshold must be in (0, 1]")
	}
	period := types.BudgetPeriod(budgetPeriod)
	if period != types.PeriodMonthly && period != types.PeriodQuarterly {
		return fmt.Errorf("invalid period: %s (must be monthly or quarterly)", budgetPeriod)
	}
	provider := types.Provider(budgetProvider)
	switch provider {
	case types.ProviderAWS, types.ProviderAzure, types.ProviderAll:
	default:
		return fmt.Errorf("invalid provider scope: %s", budgetProvider)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	budget := types.Budget{
		ID:             uuid.NewString(),
		WorkspaceID:    a.cfg.WorkspaceID,
		Name:           budgetName,
		Provider:       provider,
		Amount:         budgetAmount,
		Period:         period,
		AlertThreshold: budgetThreshold,
		Active:         true,
		CreatedAt:      time.Now().UTC(),
	}
	if err := a.store.PutBudget(budget); err != nil {
		return err
	}

	fmt.Printf("Created budget %s (%s, $%.2f %s)\n", budget.Name, shortID(budget.ID), budget.Amount, budget.Period)
	return nil
}

func runBudgetsEvaluate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	budgets, err := a.engine.EvaluateBudgets(cmd.Context(), a.cfg.WorkspaceID)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}
	if len(budgets) == 0 {
		fmt.Println("No active budgets to evaluate.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPROVIDER\tSPEND\tAMOUNT\tUSED\tALERTED")
	for _, b := range budgets {
		used := 0.0
		if b.Amount > 0 {
			used = b.LastSpend / b.Amount * 100
		}
		alerted := "-"
		if b.LastAlertAt != nil {
			alerted = b.LastAlertAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t$%.2f\t$%.2f\t%.1f%%\t%s\n",
			b.Name, b.Provider, b.LastSpend, b.Amount, used, alerted)
	}
	return w.Flush()
}

func runBudgetsDisable(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	budgets, err := a.store.ListBudgets(a.cfg.WorkspaceID, false)
	if err != nil {
		return err
	}
	var id string
	for _, b := range budgets {
		if b.ID == args[0] || shortID(b.ID) == args[0] {
			id = b.ID
			break
		}
	}
	if id == "" {
		return fmt.Errorf("no budget matches %q", args[0])
	}

	b, err := a.store.DeactivateBudget(a.cfg.WorkspaceID, id)
	if err != nil {
		return err
	}
	fmt.Printf("Deactivated budget %s\n", b.Name)
	return nil
}
