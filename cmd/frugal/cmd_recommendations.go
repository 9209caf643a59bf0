package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/frugalops/frugal/store"
	"github.com/frugalops/frugal/types"
)

var (
	recStatus    string
	recProvider  string
	recKind      string
	recSeverity  string
	recMinSaving float64
	recOutput    string
)

var recommendationsCmd = &cobra.Command{
	Use:     "recommendations",
	Aliases: []string{"recs"},
	Short:   "List waste recommendations",
	Long: `List the workspace's recommendations, newest first. Filters
narrow the listing; by default every status is shown.`,
	Example: `  frugal recommendations                       # All recommendations
  frugal recommendations --status pending      # Only pending ones
  frugal recommendations --min-saving 50       # Saving >= $50/month
  frugal recommendations --output json         # Machine-readable`,
	RunE: runRecommendations,
}

func init() {
	rootCmd.AddCommand(recommendationsCmd)

	recommendationsCmd.Flags().StringVarP(&recStatus, "status", "s", "", "Filter by status (pending, applied, failed, dismissed)")
	recommendationsCmd.Flags().StringVarP(&recProvider, "provider", "p", "", "Filter by provider (aws, azure)")
	recommendationsCmd.Flags().StringVarP(&recKind, "kind", "k", "", "Filter by kind (stop, delete, right_size, schedule)")
	recommendationsCmd.Flags().StringVar(&recSeverity, "severity", "", "Filter by severity (high, medium, low)")
	recommendationsCmd.Flags().Float64Var(&recMinSaving, "min-saving", 0, "Minimum estimated monthly saving")
	recommendationsCmd.Flags().StringVarP(&recOutput, "output", "o", "table", "Output format: table, json")
}

func runRecommendations(cmd *cobra.Command, args []string) error {
	if recOutput != "table" && recOutput != "json" {
		return fmt.Errorf("invalid output format: %s (must be table or json)", recOutput)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	recs, err := a.engine.ListRecommendations(a.cfg.WorkspaceID, store.RecommendationFilter{
		Status:    types.RecommendationStatus(recStatus),
		Provider:  types.Provider(recProvider),
		Kind:      types.RecommendationKind(recKind),
		Severity:  types.Severity(recSeverity),
		MinSaving: recMinSaving,
	})
	if err != nil {
		return err
	}

	if recOutput == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	}

	if len(recs) == 0 {
		fmt.Println("No recommendations found. Run 'frugal scan' first.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROVIDER\tRESOURCE\tKIND\tSEVERITY\tSAVING/MO\tSTATUS\tREASON")
	var total float64
	for _, rec := range recs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t$%.2f\t%s\t%s\n",
			shortID(rec.ID), rec.Provider, rec.ResourceID, rec.Kind,
			rec.Severity, rec.EstimatedSaving, rec.Status, rec.Reason)
		if rec.Status == types.RecommendationPending {
			total += rec.EstimatedSaving
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if total > 0 {
		fmt.Printf("\nPotential saving from pending recommendations: $%.2f/month\n", total)
	}
	return nil
}

// shortID truncates a UUID for tabular output. Commands accept either
// the short or the full form.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// resolveRecommendationID expands a short ID prefix to the full
// recommendation ID, erroring on ambiguity.
func resolveRecommendationID(a *app, prefix string) (string, error) {
	recs, err := a.engine.ListRecommendations(a.cfg.WorkspaceID, store.RecommendationFilter{})
	if err != nil {
		return "", err
	}
	var match string
	for _, rec := range recs {
		if !strings.HasPrefix(rec.ID, prefix) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("recommendation ID %q is ambiguous", prefix)
		}
		match = rec.ID
	}
	if match == "" {
		return "", fmt.Errorf("no recommendation matches %q", prefix)
	}
	return match, nil
}
