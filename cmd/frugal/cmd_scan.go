package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/frugalops/frugal/types"
)

var scanProvider string

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan cloud accounts for wasted spend",
	Long: `Scan the configured cloud accounts for waste: idle instances,
unattached volumes, orphaned addresses, stale snapshots and idle
databases. New findings become pending recommendations; findings that
already have one are deduplicated.`,
	Example: `  frugal scan                   # Scan every configured provider
  frugal scan --provider aws    # Scan only AWS accounts`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVarP(&scanProvider, "provider", "p", "", "Scan a single provider (aws, azure)")
}

func runScan(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.engine.Scan(cmd.Context(), a.cfg.WorkspaceID, types.Provider(scanProvider))
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	fmt.Printf("Scanned %d provider(s) in %s\n", len(result.Providers), result.Duration.Round(time.Millisecond))
	for _, pr := range result.Providers {
		if pr.Err != nil {
			fmt.Printf("  %-8s error: %v\n", pr.Provider, pr.Err)
			continue
		}
		fmt.Printf("  %-8s %d finding(s), %d new recommendation(s)\n",
			pr.Provider, len(pr.Findings), pr.NewRecommendations)
	}
	if result.TotalCreated() > 0 {
		fmt.Printf("\nRun 'frugal recommendations' to review them.\n")
	}
	return nil
}
