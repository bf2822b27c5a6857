package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kestrelgraph/sqlitegraph/safety"
)

var safetyStrict bool

var safetyCheckCmd = &cobra.Command{
	Use:   "safety-check",
	Short: "Run the referential/duplicate/orphan consistency audit",
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := safety.Run(rootCtx, store, safetyStrict)
		if err != nil {
			return err
		}
		b, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	},
}

func init() {
	safetyCheckCmd.Flags().BoolVar(&safetyStrict, "strict", false, "fail with a Validation error if the report is dirty")
	rootCmd.AddCommand(safetyCheckCmd)
}
