package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kestrelgraph/sqlitegraph/graph"
	"github.com/kestrelgraph/sqlitegraph/pattern"
)

var dslInput string

// dsl-parse exists only to exercise the pattern-matching boundary
// (SPEC_FULL.md §6); the grammar itself is out of core scope. It
// accepts one triple in either of two directed forms:
//
//	-[EDGE_TYPE]->   (Outgoing)
//	<-[EDGE_TYPE]-   (Incoming)
var dslParseCmd = &cobra.Command{
	Use:   "dsl-parse",
	Short: "Parse a minimal pattern DSL string into a pattern.Triple and print it as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		if dslInput == "" {
			return &cobraUsageError{err: fmt.Errorf("--input is required")}
		}
		triple, err := parseTripleDSL(dslInput)
		if err != nil {
			return &cobraUsageError{err: err}
		}
		b, err := json.MarshalIndent(triple, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	},
}

func init() {
	dslParseCmd.Flags().StringVar(&dslInput, "input", "", "pattern DSL string, e.g. -[CALLS]-> or <-[CALLS]-")
	rootCmd.AddCommand(dslParseCmd)
}

func parseTripleDSL(s string) (pattern.Triple, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "-[") && strings.HasSuffix(s, "]->"):
		edgeType := s[2 : len(s)-3]
		if edgeType == "" {
			return pattern.Triple{}, fmt.Errorf("empty edge type in %q", s)
		}
		return pattern.Triple{EdgeType: edgeType, Direction: graph.Outgoing}, nil
	case strings.HasPrefix(s, "<-[") && strings.HasSuffix(s, "]-"):
		edgeType := s[3 : len(s)-2]
		if edgeType == "" {
			return pattern.Triple{}, fmt.Errorf("empty edge type in %q", s)
		}
		return pattern.Triple{EdgeType: edgeType, Direction: graph.Incoming}, nil
	default:
		return pattern.Triple{}, fmt.Errorf("unrecognized pattern DSL %q, want -[TYPE]-> or <-[TYPE]-", s)
	}
}
