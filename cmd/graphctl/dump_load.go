package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kestrelgraph/sqlitegraph/recovery"
)

var dumpOutput string

var dumpGraphCmd = &cobra.Command{
	Use:   "dump-graph",
	Short: "Dump the store to a JSONL file at --output",
	RunE: func(cmd *cobra.Command, args []string) error {
		if dumpOutput == "" {
			return &cobraUsageError{err: fmt.Errorf("--output is required")}
		}
		f, err := os.Create(dumpOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		return recovery.DumpToWriter(rootCtx, store, f)
	},
}

var loadInput string

var loadGraphCmd = &cobra.Command{
	Use:   "load-graph",
	Short: "Replace the store's contents from a JSONL file at --input",
	RunE: func(cmd *cobra.Command, args []string) error {
		if loadInput == "" {
			return &cobraUsageError{err: fmt.Errorf("--input is required")}
		}
		f, err := os.Open(loadInput)
		if err != nil {
			return err
		}
		defer f.Close()
		return recovery.LoadFromReader(rootCtx, store, f)
	},
}

func init() {
	dumpGraphCmd.Flags().StringVar(&dumpOutput, "output", "", "JSONL output path")
	rootCmd.AddCommand(dumpGraphCmd)

	loadGraphCmd.Flags().StringVar(&loadInput, "input", "", "JSONL input path")
	rootCmd.AddCommand(loadGraphCmd)
}
