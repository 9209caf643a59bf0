package main

import (
	"fmt"
	"os/user"

	"github.com/spf13/cobra"
)

var applyActor string

var applyCmd = &cobra.Command{
	Use:   "apply <recommendation-id>",
	Short: "Apply a pending recommendation",
	Long: `Apply a pending recommendation against its cloud provider:
stop the instance, delete the volume, release the address, or resize
the resource. Reversible actions can be undone with 'frugal rollback'
within 24 hours.`,
	Example: `  frugal apply 5f3a21c0
  frugal apply 5f3a21c0 --actor oncall@corp`,
	Args: cobra.ExactArgs(1),
	RunE: runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().StringVar(&applyActor, "actor", "", "Who is applying (defaults to the local user)")
}

func runApply(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := resolveRecommendationID(a, args[0])
	if err != nil {
		return err
	}

	action, rec, err := a.engine.Apply(cmd.Context(), a.cfg.WorkspaceID, id, actorName())
	if err != nil {
		return fmt.Errorf("apply failed: %w", err)
	}

	fmt.Printf("Applied %s on %s (%s)\n", rec.Kind, rec.ResourceID, rec.Provider)
	fmt.Printf("Estimated saving: $%.2f/month\n", rec.EstimatedSaving)
	if !action.Rollback.Empty() {
		fmt.Printf("Reversible for 24h: frugal rollback %s\n", shortID(action.ID))
	}
	return nil
}

// actorName resolves the acting identity: the --actor flag, or the
// local OS user as a fallback.
func actorName() string {
	if applyActor != "" {
		return applyActor
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "unknown"
}
