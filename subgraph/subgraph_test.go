package subgraph

import (
	"context"
	"testing"

	"github.com/kestrelgraph/sqlitegraph/graph"
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

func TestExtractDepthAndFilters(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	a, _ := s.InsertEntity(ctx, "func", "main", nil, nil)
	b, _ := s.InsertEntity(ctx, "func", "helper", nil, nil)
	c, _ := s.InsertEntity(ctx, "type", "Widget", nil, nil)
	d, _ := s.InsertEntity(ctx, "func", "unreachable", nil, nil)
	_, _ = d, c

	if _, err := s.InsertEdge(ctx, a, b, "CALLS", nil); err != nil {
		t.Fatalf("InsertEdge: %v", err)
	}
	if _, err := s.InsertEdge(ctx, b, c, "USES", nil); err != nil {
		t.Fatalf("InsertEdge: %v", err)
	}
	if _, err := s.InsertEdge(ctx, b, d, "CALLS", nil); err != nil {
		t.Fatalf("InsertEdge: %v", err)
	}

	result, err := Extract(ctx, s, a, 2, nil, nil)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(result.Nodes) != 4 {
		t.Fatalf("want 4 nodes within depth 2, got %d: %v", len(result.Nodes), result.Nodes)
	}

	filtered, err := Extract(ctx, s, a, 2, []string{"CALLS"}, nil)
	if err != nil {
		t.Fatalf("Extract (filtered): %v", err)
	}
	for _, e := range filtered.Edges {
		if e.Type != "CALLS" {
			t.Fatalf("want only CALLS edges, got %+v", filtered.Edges)
		}
	}
	// b->c (USES) excluded, so c is unreachable through an allowed edge.
	for _, n := range filtered.Nodes {
		if n == c {
			t.Fatalf("want c excluded when only CALLS edges are allowed, got %v", filtered.Nodes)
		}
	}
}

func TestStructuralSignatureFormat(t *testing.T) {
	r := Result{
		Nodes: []int64{1, 2, 3},
		Edges: []EdgeRef{{From: 1, To: 2, Type: "CALLS"}, {From: 2, To: 3, Type: "USES"}},
	}
	got := StructuralSignature(r)
	want := "N[1,2,3]|E[1→2:CALLS,2→3:USES]"
	if got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}
