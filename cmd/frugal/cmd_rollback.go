package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback <action-id>",
	Short: "Undo an executed action",
	Long: `Undo an executed action within its 24-hour rollback window:
restart a stopped instance, resume a paused database, or restore the
original size after a right-size. Deletes cannot be rolled back.`,
	Example: `  frugal rollback 9c41be77`,
	Args:    cobra.ExactArgs(1),
	RunE:    runRollback,
}

func init() {
	rootCmd.AddCommand(rollbackCmd)
}

func runRollback(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := resolveActionID(a, args[0])
	if err != nil {
		return err
	}

	action, err := a.engine.Rollback(cmd.Context(), a.cfg.WorkspaceID, id, actorName())
	if err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}

	fmt.Printf("Rolled back %s on %s (%s)\n", action.Kind, action.ResourceID, action.Provider)
	return nil
}

func resolveActionID(a *app, prefix string) (string, error) {
	actions, err := a.store.ListActions(a.cfg.WorkspaceID)
	if err != nil {
		return "", err
	}
	var match string
	for _, action := range actions {
		if !strings.HasPrefix(action.ID, prefix) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("action ID %q is ambiguous", prefix)
		}
		match = action.ID
	}
	if match == "" {
		return "", fmt.Errorf("no action matches %q", prefix)
	}
	return match, nil
}
