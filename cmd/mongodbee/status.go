package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/diister/mongodbee/internal/cliutil"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the ledger's applied, pending, and dirty migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, _, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		report, err := e.Status(context.Background())
		if err != nil {
			return err
		}
		if jsonOutput {
			return cliutil.RenderStatusJSON(os.Stdout, report)
		}
		cliutil.RenderStatus(os.Stdout, report)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
