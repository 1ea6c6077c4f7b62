package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/diister/mongodbee/internal/cliutil"
	"github.com/diister/mongodbee/internal/executor"
	"github.com/diister/mongodbee/internal/planner"
)

var migrateForceUnlock bool

var migrateCmd = &cobra.Command{
	Use:   "migrate [target]",
	Short: "Apply pending migrations up to target (default: head)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := planner.TargetHead
		if len(args) == 1 {
			target = args[0]
		}

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

		plan, err := e.Migrate(context.Background(), target, progress, migrateForceUnlock)
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
	migrateCmd.Flags().BoolVar(&migrateForceUnlock, "force-unlock", false, "force the process lock before migrating, for recovering from a stale lock")
	rootCmd.AddCommand(migrateCmd)
}
