package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/diister/mongodbee/internal/cliutil"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Dry-run every pending migration against an in-memory simulator",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, _, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		plan, err := e.Check(context.Background())
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
	rootCmd.AddCommand(checkCmd)
}
