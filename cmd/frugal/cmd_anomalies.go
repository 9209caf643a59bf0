package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/frugalops/frugal/types"
)

var (
	anomalyProvider string
	anomalyService  string
	anomalyWindow   int
	anomalyStatus   string
)

var anomaliesCmd = &cobra.Command{
	Use:   "anomalies",
	Short: "Detect and review cost anomalies",
	Long: `Detect cost anomalies: pull one service's daily spend from the
provider's cost API and flag a sustained spike against the statistical
baseline. Detected anomalies are stored for review.`,
}

var anomaliesDetectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Run detection over a service's recent daily spend",
	Example: `  frugal anomalies detect --provider aws --service "Amazon Elastic Compute Cloud - Compute"
  frugal anomalies detect --provider aws --service AmazonRDS --window 60`,
	RunE: runAnomaliesDetect,
}

var anomaliesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored anomalies",
	RunE:  runAnomaliesList,
}

func init() {
	rootCmd.AddCommand(anomaliesCmd)
	anomaliesCmd.AddCommand(anomaliesDetectCmd, anomaliesListCmd)

	anomaliesDetectCmd.Flags().StringVarP(&anomalyProvider, "provider", "p", "", "Provider to query (aws, azure)")
	anomaliesDetectCmd.Flags().StringVar(&anomalyService, "service", "", "Service name as the provider's cost API reports it")
	anomaliesDetectCmd.Flags().IntVar(&anomalyWindow, "window", 30, "Trailing window in days")
	_ = anomaliesDetectCmd.MarkFlagRequired("provider")
	_ = anomaliesDetectCmd.MarkFlagRequired("service")

	anomaliesListCmd.Flags().StringVarP(&anomalyStatus, "status", "s", "", "Filter by status (open, acknowledged, resolved)")
}

func runAnomaliesDetect(cmd *cobra.Command, args []string) error {
	if anomalyWindow < 5 {
		return fmt.Errorf("window must be at least 5 days")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	found, ok, err := a.engine.DetectServiceAnomaly(cmd.Context(), a.cfg.WorkspaceID,
		types.Provider(anomalyProvider), anomalyService, anomalyWindow)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}
	if !ok {
		fmt.Printf("No anomaly in %s spend over the last %d days.\n", anomalyService, anomalyWindow)
		return nil
	}

	fmt.Printf("Anomaly detected in %s (%s)\n", found.Service, found.Provider)
	fmt.Printf("  Baseline: $%.2f/day\n", found.BaselineCost)
	fmt.Printf("  Actual:   $%.2f/day (+%.1f%%)\n", found.ActualCost, found.DeviationPct)
	return nil
}

func runAnomaliesList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	anomalies, err := a.store.ListAnomalies(a.cfg.WorkspaceID, types.AnomalyStatus(anomalyStatus))
	if err != nil {
		return err
	}
	if len(anomalies) == 0 {
		fmt.Println("No anomalies recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROVIDER\tSERVICE\tDETECTED\tBASELINE\tACTUAL\tDEVIATION\tSTATUS")
	for _, an := range anomalies {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t$%.2f\t$%.2f\t+%.1f%%\t%s\n",
			shortID(an.ID), an.Provider, an.Service,
			an.DetectedDate.Format(time.DateOnly),
			an.BaselineCost, an.ActualCost, an.DeviationPct, an.Status)
	}
	return w.Flush()
}
