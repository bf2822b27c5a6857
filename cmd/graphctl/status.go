package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kestrelgraph/sqlitegraph/internal/metrics"
)

var statusMetrics bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print node count, and with --metrics the OpenTelemetry counter snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := store.CountEntities(rootCtx)
		if err != nil {
			return err
		}

		if !statusMetrics {
			fmt.Printf("entities: %d\n", n)
			return nil
		}

		shutdown, err := metrics.Init(rootCtx)
		if err != nil {
			return err
		}
		defer func() { _ = shutdown(rootCtx) }()

		snap := store.Metrics()
		rec, err := metrics.NewRecorder()
		if err != nil {
			return err
		}
		rec.Observe(rootCtx, snap)

		b, err := json.MarshalIndent(map[string]any{
			"entities": n,
			"metrics":  snap,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusMetrics, "metrics", false, "also dump the OpenTelemetry counter snapshot")
	rootCmd.AddCommand(statusCmd)
}
