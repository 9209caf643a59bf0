package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var dismissReason string

var dismissCmd = &cobra.Command{
	Use:   "dismiss <recommendation-id>",
	Short: "Dismiss a pending recommendation",
	Long: `Dismiss a pending recommendation without acting on it. The
resource stays as it is and future scans will not re-open the
recommendation while the dismissal stands.`,
	Example: `  frugal dismiss 5f3a21c0 --reason "needed for the quarterly batch job"`,
	Args:    cobra.ExactArgs(1),
	RunE:    runDismiss,
}

func init() {
	rootCmd.AddCommand(dismissCmd)

	dismissCmd.Flags().StringVarP(&dismissReason, "reason", "r", "", "Why the recommendation is being dismissed")
}

func runDismiss(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := resolveRecommendationID(a, args[0])
	if err != nil {
		return err
	}

	rec, err := a.engine.Dismiss(cmd.Context(), a.cfg.WorkspaceID, id, actorName(), dismissReason)
	if err != nil {
		return fmt.Errorf("dismiss failed: %w", err)
	}

	fmt.Printf("Dismissed %s on %s\n", rec.Kind, rec.ResourceID)
	return nil
}
