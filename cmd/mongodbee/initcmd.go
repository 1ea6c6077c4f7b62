package main

import (
	"context"

	"github.com/spf13/cobra"
)

var initForceUnlock bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the reserved ledger and lock collections",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, _, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		if initForceUnlock {
			if err := e.ForceUnlock(context.Background()); err != nil {
				return err
			}
		}
		return e.Init(context.Background())
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForceUnlock, "force-unlock", false, "force the process lock before initializing, for recovering from a stale lock")
	rootCmd.AddCommand(initCmd)
}
