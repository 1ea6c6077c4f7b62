package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/diister/mongodbee/internal/cliutil"
	"github.com/diister/mongodbee/internal/executor"
)

var (
	rollbackSteps       int
	rollbackRepair      bool
	rollbackForceUnlock bool
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Roll the ledger back by steps migrations (or repair a dirty one)",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, _, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		progress := make(chan executor.Progress)
		done := make(chan struct{})
		go func() {
			defer close(done)
			for p := range progress {
				if !jsonOutput {
					cliutil.RenderProgress(os.Stdout, p)
				}
			}
		}()

		plan, err := e.Rollback(context.Background(), rollbackSteps, rollbackRepair, rollbackForceUnlock, progress)
		close(progress)
		<-done
		if err != nil {
			return err
		}

		ids := make([]string, len(plan.Entries))
		for i, entry := range plan.Entries {
			ids[i] = entry.MigrationID
		}
		if jsonOutput {
			return cliutil.RenderPlanJSON(os.Stdout, string(plan.Direction), ids, plan.Warnings)
		}
		cliutil.RenderPlan(os.Stdout, string(plan.Direction), ids, plan.Warnings)
		return nil
	},
}

func init() {
	rollbackCmd.Flags().IntVar(&rollbackSteps, "steps", 1, "number of migrations to roll back")
	rollbackCmd.Flags().BoolVar(&rollbackRepair, "repair", false, "roll back only the single dirty migration reported by status")
	rollbackCmd.Flags().BoolVar(&rollbackForceUnlock, "force-unlock", false, "force the process lock before rolling back, for recovering from a stale lock")
	rootCmd.AddCommand(rollbackCmd)
}
