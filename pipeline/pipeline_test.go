package pipeline

import (
	"context"
	"testing"

	"github.com/kestrelgraph/sqlitegraph/graph"
	"github.com/kestrelgraph/sqlitegraph/pattern"
)

func openTestStore(t *testing.T) *graph.Store {
	t.Helper()
	s, err := graph.Open(context.Background(), ":memory:", graph.Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func singleLegPattern() *pattern.MultiLeg {
	return &pattern.MultiLeg{
		Legs: []pattern.Leg{
			{Direction: graph.Outgoing, EdgeType: "CALLS"},
		},
	}
}

func TestRunPatternThenKHops(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	a, _ := s.InsertEntity(ctx, "func", "main", nil, nil)
	b, _ := s.InsertEntity(ctx, "func", "helper", nil, nil)
	c, _ := s.InsertEntity(ctx, "func", "deep", nil, nil)
	if _, err := s.InsertEdge(ctx, a, b, "CALLS", nil); err != nil {
		t.Fatalf("InsertEdge: %v", err)
	}
	if _, err := s.InsertEdge(ctx, b, c, "CALLS", nil); err != nil {
		t.Fatalf("InsertEdge: %v", err)
	}

	steps := []Step{
		{Pattern: singleLegPattern()},
		{KHops: &KHopsConfig{Depth: 1}},
	}
	nodes, scores, err := Run(ctx, s, steps)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if scores != nil {
		t.Fatalf("want nil scores for a Pattern/KHops-only pipeline, got %v", scores)
	}
	want := map[int64]bool{a: true, b: true, c: true}
	if len(nodes) != len(want) {
		t.Fatalf("want %d nodes, got %d: %v", len(want), len(nodes), nodes)
	}
	for _, n := range nodes {
		if !want[n] {
			t.Fatalf("unexpected node %d in result %v", n, nodes)
		}
	}
}

// TestRunPatternMultiLegUnionsEveryNodeAlongPath mirrors the original
// source's test_pipeline_pattern_chain_order: a root-constrained,
// two-leg chain pattern (Fn -CALLS-> Fn -CALLS-> Fn) must union every
// node each matched path passes through, not just each match's two
// endpoints, so the three-function chain collapses to exactly
// {f1, f2, f3} even though no single leg directly connects f1 to f3.
func TestRunPatternMultiLegUnionsEveryNodeAlongPath(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	f1, _ := s.InsertEntity(ctx, "Fn", "A", nil, nil)
	f2, _ := s.InsertEntity(ctx, "Fn", "B", nil, nil)
	f3, _ := s.InsertEntity(ctx, "Fn", "C", nil, nil)
	t1, _ := s.InsertEntity(ctx, "Type", "T1", nil, nil)
	t2, _ := s.InsertEntity(ctx, "Type", "T2", nil, nil)
	if _, err := s.InsertEdge(ctx, f1, f2, "CALLS", nil); err != nil {
		t.Fatalf("InsertEdge: %v", err)
	}
	if _, err := s.InsertEdge(ctx, f2, f3, "CALLS", nil); err != nil {
		t.Fatalf("InsertEdge: %v", err)
	}
	if _, err := s.InsertEdge(ctx, f3, t1, "USES", nil); err != nil {
		t.Fatalf("InsertEdge: %v", err)
	}
	if _, err := s.InsertEdge(ctx, t1, t2, "USES", nil); err != nil {
		t.Fatalf("InsertEdge: %v", err)
	}

	fn := "Fn"
	chain := &pattern.MultiLeg{
		Root: &pattern.NodeConstraint{Kind: &fn},
		Legs: []pattern.Leg{
			{Direction: graph.Outgoing, EdgeType: "CALLS", Constraint: &pattern.NodeConstraint{Kind: &fn}},
			{Direction: graph.Outgoing, EdgeType: "CALLS", Constraint: &pattern.NodeConstraint{Kind: &fn}},
		},
	}

	nodes, _, err := Run(ctx, s, []Step{{Pattern: chain}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []int64{f1, f2, f3}
	if len(nodes) != len(want) {
		t.Fatalf("want %v, got %v", want, nodes)
	}
	for i := range want {
		if nodes[i] != want[i] {
			t.Fatalf("want %v, got %v", want, nodes)
		}
	}
}

func TestRunScoreIsTerminal(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	a, _ := s.InsertEntity(ctx, "func", "main", nil, nil)
	b, _ := s.InsertEntity(ctx, "func", "helper", nil, nil)
	if _, err := s.InsertEdge(ctx, a, b, "CALLS", nil); err != nil {
		t.Fatalf("InsertEdge: %v", err)
	}

	steps := []Step{
		{Pattern: singleLegPattern()},
		{Score: &ScoreConfig{HopDepth: 1, DegreeWeight: 1}},
		{KHops: &KHopsConfig{Depth: 5}}, // never reached
	}
	nodes, scores, err := Run(ctx, s, steps)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("want 2 scored nodes, got %d", len(scores))
	}
	if len(nodes) != 2 {
		t.Fatalf("want pre-Score node list of length 2 returned alongside scores, got %d", len(nodes))
	}
}
