package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var migrateDryRun bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply (or with --dry-run, print) the store's pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := store.RunMigration(rootCtx, migrateDryRun)
		if err != nil {
			return err
		}
		b, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "compute the migration plan without applying it")
	rootCmd.AddCommand(migrateCmd)
}
