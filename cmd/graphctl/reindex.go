package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kestrelgraph/sqlitegraph/reindex"
)

var (
	reindexProgress   bool
	reindexNoValidate bool
	reindexBatchSize  int
)

func newReindexCmd(use string, tables []reindex.Table, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			// reindex.Run already logs one slog.Info line per batch via
			// opts.Logger (defaulting to the store's logger); --progress
			// additionally prints a stdout line, since slog output alone
			// may be discarded by the store's configured handler.
			opts := reindex.Options{
				NoValidate: reindexNoValidate,
				BatchSize:  reindexBatchSize,
			}
			if reindexProgress {
				opts.Progress = func(table reindex.Table, batchesDone int) {
					fmt.Printf("reindex: %s batch %d\n", table, batchesDone)
				}
			}

			results, err := reindex.Run(rootCtx, store, tables, opts)
			if err != nil {
				return err
			}
			b, err := json.MarshalIndent(results, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			return nil
		},
	}
	cmd.Flags().BoolVar(&reindexProgress, "progress", false, "log a line per batch as reindex proceeds")
	cmd.Flags().BoolVar(&reindexNoValidate, "no-validate", false, "skip validation and report the last completed run's counts")
	cmd.Flags().IntVar(&reindexBatchSize, "batch-size", 0, "rows repaired per transaction (default 500)")
	return cmd
}

func init() {
	rootCmd.AddCommand(newReindexCmd("reindex-all", reindex.AllTables, "Reindex entities, edges, labels, and properties"))
	rootCmd.AddCommand(newReindexCmd("reindex-syncore", reindex.SyncoreTables, "Reindex entities and edges only"))
	rootCmd.AddCommand(newReindexCmd("reindex-sync-graph", reindex.SyncGraphTables, "Reindex labels and properties only"))
}
