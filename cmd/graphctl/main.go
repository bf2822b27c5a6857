// Command graphctl is the CLI surface over package graph (SPEC_FULL.md
// §6): open a store, run one operation, print its result, exit.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kestrelgraph/sqlitegraph/graph"
	"github.com/kestrelgraph/sqlitegraph/internal/config"
	"github.com/kestrelgraph/sqlitegraph/internal/fault"
)

// Exit codes per SPEC_FULL.md §6.
const (
	exitSuccess         = 0
	exitRuntimeFailure  = 1
	exitArgumentFailure = 2
)

var (
	backendFlag string
	dbFlag      string
	commandFlag string
	jsonFlag    bool

	store   *graph.Store
	rootCtx = context.Background()
)

var rootCmd = &cobra.Command{
	Use:           "graphctl",
	Short:         "graphctl - embedded property-graph engine CLI",
	Long:          "graphctl drives a single graph.Store through one operation per invocation: status, list, subgraph, dsl-parse, dump-graph, load-graph, migrate, safety-check, and the reindex-* family.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Commands that never touch a database.
		switch cmd.Name() {
		case "dsl-parse", "help", "completion":
			return nil
		}

		cfg, err := config.Load("")
		if err != nil {
			return err
		}
		if backendFlag != "" {
			cfg.Backend = backendFlag
		}
		if dbFlag != "" {
			cfg.DBPath = dbFlag
		}

		path := cfg.DBPath
		if path == "memory" || path == "" {
			path = ":memory:"
		}

		s, err := graph.Open(rootCtx, path, graph.Options{Fault: fault.NewRegistry()})
		if err != nil {
			return err
		}
		store = s
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if store != nil {
			return store.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "storage backend (sqlite)")
	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "", "database path, or \"memory\" for an in-memory store")
	rootCmd.PersistentFlags().StringVar(&commandFlag, "command", "", "operation name (informational; prefer the subcommand itself)")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "force JSON output for commands that support both forms")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps a returned error to the process exit code per
// SPEC_FULL.md §6: argument-shaped failures (bad flags, InvalidInput)
// exit 2, everything else exits 1.
func exitCodeFor(err error) int {
	if err == nil {
		return exitSuccess
	}
	if graph.Is(err, graph.KindInvalidInput) {
		return exitArgumentFailure
	}
	if _, ok := err.(*cobraUsageError); ok {
		return exitArgumentFailure
	}
	// Cobra's own flag-parsing/required-flag errors never wrap a
	// graph.Error or a cobraUsageError.
	if strings.Contains(err.Error(), "required flag") || strings.Contains(err.Error(), "unknown flag") || strings.Contains(err.Error(), "unknown command") {
		return exitArgumentFailure
	}
	return exitRuntimeFailure
}

// cobraUsageError marks an error as an argument-shaped CLI failure
// (bad/missing flags) distinct from a runtime graph.Error.
type cobraUsageError struct{ err error }

func (e *cobraUsageError) Error() string { return e.err.Error() }
func (e *cobraUsageError) Unwrap() error { return e.err }
