package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/kestrelgraph/sqlitegraph/graph"
)

func TestExitCodeFor(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitSuccess},
		{"invalid input", graph.NewInvalidInputError("op", errors.New("bad")), exitArgumentFailure},
		{"usage error", &cobraUsageError{err: fmt.Errorf("--root is required")}, exitArgumentFailure},
		{"cobra required flag", errors.New(`required flag(s) "root" not set`), exitArgumentFailure},
		{"runtime failure", graph.NewQueryError("op", errors.New("boom")), exitRuntimeFailure},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := exitCodeFor(c.err); got != c.want {
				t.Fatalf("want %d, got %d", c.want, got)
			}
		})
	}
}
