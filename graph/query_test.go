package graph

import (
	"context"
	"testing"
)

// buildChain creates n entities and a CALLS edge between each consecutive
// pair (1->2->3->...), returning their ids in insertion order.
func buildChain(t *testing.T, s *Store, n int) []int64 {
	t.Helper()
	ctx := context.Background()
	ids := make([]int64, n)
	for i := 0; i < n; i++ {
		id, err := s.InsertEntity(ctx, "node", "n", nil, nil)
		if err != nil {
			t.Fatalf("InsertEntity: %v", err)
		}
		ids[i] = id
	}
	for i := 0; i < n-1; i++ {
		if _, err := s.InsertEdge(ctx, ids[i], ids[i+1], "CALLS", nil); err != nil {
			t.Fatalf("InsertEdge: %v", err)
		}
	}
	return ids
}

func TestNeighbors(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ids := buildChain(t, s, 3)

	out, err := s.Neighbors(ctx, ids[0], Outgoing)
	if err != nil {
		t.Fatalf("Neighbors: %v", err)
	}
	if len(out) != 1 || out[0] != ids[1] {
		t.Fatalf("want [%d], got %v", ids[1], out)
	}

	in, err := s.Neighbors(ctx, ids[1], Incoming)
	if err != nil {
		t.Fatalf("Neighbors: %v", err)
	}
	if len(in) != 1 || in[0] != ids[0] {
		t.Fatalf("want [%d], got %v", ids[0], in)
	}
}

func TestEdgesOfTypeFiltersByType(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, _ := s.InsertEntity(ctx, "node", "n", nil, nil)
	b, _ := s.InsertEntity(ctx, "node", "n", nil, nil)
	c, _ := s.InsertEntity(ctx, "node", "n", nil, nil)
	if _, err := s.InsertEdge(ctx, a, b, "CALLS", nil); err != nil {
		t.Fatalf("InsertEdge: %v", err)
	}
	if _, err := s.InsertEdge(ctx, a, c, "IMPORTS", nil); err != nil {
		t.Fatalf("InsertEdge: %v", err)
	}

	out, err := s.EdgesOfType(ctx, a, Outgoing, "CALLS")
	if err != nil {
		t.Fatalf("EdgesOfType: %v", err)
	}
	if len(out) != 1 || out[0].NeighborID != b {
		t.Fatalf("want neighbor %d, got %+v", b, out)
	}
}

func TestHasPath(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ids := buildChain(t, s, 4)

	ok, err := s.HasPath(ctx, ids[0], ids[0], 5)
	if err != nil || !ok {
		t.Fatalf("want reflexive path true, got ok=%v err=%v", ok, err)
	}

	ok, err = s.HasPath(ctx, ids[0], ids[3], 3)
	if err != nil || !ok {
		t.Fatalf("want path within budget, got ok=%v err=%v", ok, err)
	}

	ok, err = s.HasPath(ctx, ids[0], ids[3], 2)
	if err != nil || ok {
		t.Fatalf("want no path under too-small a budget, got ok=%v err=%v", ok, err)
	}

	isolated, _ := s.InsertEntity(ctx, "node", "n", nil, nil)
	ok, err = s.HasPath(ctx, ids[0], isolated, 10)
	if err != nil || ok {
		t.Fatalf("want no path to an unreachable node, got ok=%v err=%v", ok, err)
	}
}

func TestKHopOutgoingBoundaryAtZeroDepth(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ids := buildChain(t, s, 3)

	got, err := s.KHopOutgoing(ctx, ids[0], 0)
	if err != nil {
		t.Fatalf("KHopOutgoing: %v", err)
	}
	if len(got) != 1 || got[0] != ids[0] {
		t.Fatalf("want [seed] at depth 0, got %v", got)
	}
}

func TestKHopOutgoingDedupesAndSorts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, _ := s.InsertEntity(ctx, "node", "n", nil, nil)
	b, _ := s.InsertEntity(ctx, "node", "n", nil, nil)
	c, _ := s.InsertEntity(ctx, "node", "n", nil, nil)
	// a -> c, a -> b -> c: c reachable two ways at depth 2, must appear once.
	if _, err := s.InsertEdge(ctx, a, c, "CALLS", nil); err != nil {
		t.Fatalf("InsertEdge: %v", err)
	}
	if _, err := s.InsertEdge(ctx, a, b, "CALLS", nil); err != nil {
		t.Fatalf("InsertEdge: %v", err)
	}
	if _, err := s.InsertEdge(ctx, b, c, "CALLS", nil); err != nil {
		t.Fatalf("InsertEdge: %v", err)
	}

	got, err := s.KHopOutgoing(ctx, a, 2)
	if err != nil {
		t.Fatalf("KHopOutgoing: %v", err)
	}
	if len(got) != 2 || got[0] != b || got[1] != c {
		t.Fatalf("want [%d %d] deduped and sorted, got %v", b, c, got)
	}
}

func TestKHopFilteredRestrictsEdgeTypes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, _ := s.InsertEntity(ctx, "node", "n", nil, nil)
	b, _ := s.InsertEntity(ctx, "node", "n", nil, nil)
	c, _ := s.InsertEntity(ctx, "node", "n", nil, nil)
	if _, err := s.InsertEdge(ctx, a, b, "CALLS", nil); err != nil {
		t.Fatalf("InsertEdge: %v", err)
	}
	if _, err := s.InsertEdge(ctx, a, c, "IMPORTS", nil); err != nil {
		t.Fatalf("InsertEdge: %v", err)
	}

	got, err := s.KHopFiltered(ctx, a, 1, Outgoing, []string{"CALLS"})
	if err != nil {
		t.Fatalf("KHopFiltered: %v", err)
	}
	if len(got) != 1 || got[0] != b {
		t.Fatalf("want [%d], got %v", b, got)
	}

	got, err = s.KHopFiltered(ctx, a, 1, Outgoing, nil)
	if err != nil {
		t.Fatalf("KHopFiltered: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want both neighbors with no filter, got %v", got)
	}
}

func TestChainWalksEachStep(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, _ := s.InsertEntity(ctx, "node", "n", nil, nil)
	b, _ := s.InsertEntity(ctx, "node", "n", nil, nil)
	c, _ := s.InsertEntity(ctx, "node", "n", nil, nil)
	if _, err := s.InsertEdge(ctx, a, b, "CALLS", nil); err != nil {
		t.Fatalf("InsertEdge: %v", err)
	}
	if _, err := s.InsertEdge(ctx, b, c, "IMPORTS", nil); err != nil {
		t.Fatalf("InsertEdge: %v", err)
	}

	got, err := s.Chain(ctx, a, []ChainStep{
		{Dir: Outgoing, EdgeType: "CALLS"},
		{Dir: Outgoing, EdgeType: "IMPORTS"},
	})
	if err != nil {
		t.Fatalf("Chain: %v", err)
	}
	if len(got) != 1 || got[0] != c {
		t.Fatalf("want [%d], got %v", c, got)
	}
}

func TestBFSNeighborsIncludesStartFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ids := buildChain(t, s, 3)

	got, err := s.BFSNeighbors(ctx, ids[0], 2)
	if err != nil {
		t.Fatalf("BFSNeighbors: %v", err)
	}
	if len(got) != 3 || got[0] != ids[0] || got[1] != ids[1] || got[2] != ids[2] {
		t.Fatalf("want %v, got %v", ids, got)
	}
}

func TestShortestPathReflexive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, _ := s.InsertEntity(ctx, "node", "n", nil, nil)

	path, err := s.ShortestPath(ctx, a, a)
	if err != nil {
		t.Fatalf("ShortestPath: %v", err)
	}
	if len(path) != 1 || path[0] != a {
		t.Fatalf("want [%d], got %v", a, path)
	}
}

func TestShortestPathFindsPath(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ids := buildChain(t, s, 4)

	path, err := s.ShortestPath(ctx, ids[0], ids[3])
	if err != nil {
		t.Fatalf("ShortestPath: %v", err)
	}
	if len(path) != 4 {
		t.Fatalf("want path of length 4, got %v", path)
	}
	for i, id := range ids {
		if path[i] != id {
			t.Fatalf("want %v, got %v", ids, path)
		}
	}
}

func TestShortestPathNoPathIsNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, _ := s.InsertEntity(ctx, "node", "n", nil, nil)
	b, _ := s.InsertEntity(ctx, "node", "n", nil, nil)

	_, err := s.ShortestPath(ctx, a, b)
	if !Is(err, KindNotFound) {
		t.Fatalf("want KindNotFound, got %v", err)
	}
}

func TestFindCyclesLimitedDetectsDirectCycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, _ := s.InsertEntity(ctx, "node", "n", nil, nil)
	b, _ := s.InsertEntity(ctx, "node", "n", nil, nil)
	if _, err := s.InsertEdge(ctx, a, b, "CALLS", nil); err != nil {
		t.Fatalf("InsertEdge: %v", err)
	}
	if _, err := s.InsertEdge(ctx, b, a, "CALLS", nil); err != nil {
		t.Fatalf("InsertEdge: %v", err)
	}

	cycles, err := s.FindCyclesLimited(ctx, a, 5)
	if err != nil {
		t.Fatalf("FindCyclesLimited: %v", err)
	}
	if len(cycles) != 1 {
		t.Fatalf("want 1 cycle, got %d: %v", len(cycles), cycles)
	}
	want := []int64{a, b, a}
	cycle := cycles[0]
	if len(cycle) != len(want) {
		t.Fatalf("want %v, got %v", want, cycle)
	}
	for i := range want {
		if cycle[i] != want[i] {
			t.Fatalf("want %v, got %v", want, cycle)
		}
	}
}

func TestFindCyclesLimitedRespectsMaxDepth(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ids := buildChain(t, s, 5)
	// Close the chain into a 5-node cycle.
	if _, err := s.InsertEdge(ctx, ids[4], ids[0], "CALLS", nil); err != nil {
		t.Fatalf("InsertEdge: %v", err)
	}

	cycles, err := s.FindCyclesLimited(ctx, ids[0], 2)
	if err != nil {
		t.Fatalf("FindCyclesLimited: %v", err)
	}
	if len(cycles) != 0 {
		t.Fatalf("want no cycle found within too-shallow a depth, got %v", cycles)
	}

	cycles, err = s.FindCyclesLimited(ctx, ids[0], 5)
	if err != nil {
		t.Fatalf("FindCyclesLimited: %v", err)
	}
	if len(cycles) != 1 {
		t.Fatalf("want 1 cycle at sufficient depth, got %v", cycles)
	}
}

// TestFindCyclesLimitedStopsAtFirstClosureWithinBranch exercises a
// single first-hop edge whose branch later forks into two deeper
// paths, both closing back to seed (1->2, 2->3->1, 2->4->1). Since
// both forks share the one outgoing edge from seed, exactly one cycle
// must be reported, not two.
func TestFindCyclesLimitedStopsAtFirstClosureWithinBranch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	n1, _ := s.InsertEntity(ctx, "node", "n", nil, nil)
	n2, _ := s.InsertEntity(ctx, "node", "n", nil, nil)
	n3, _ := s.InsertEntity(ctx, "node", "n", nil, nil)
	n4, _ := s.InsertEntity(ctx, "node", "n", nil, nil)

	if _, err := s.InsertEdge(ctx, n1, n2, "CALLS", nil); err != nil {
		t.Fatalf("InsertEdge: %v", err)
	}
	if _, err := s.InsertEdge(ctx, n2, n3, "CALLS", nil); err != nil {
		t.Fatalf("InsertEdge: %v", err)
	}
	if _, err := s.InsertEdge(ctx, n3, n1, "CALLS", nil); err != nil {
		t.Fatalf("InsertEdge: %v", err)
	}
	if _, err := s.InsertEdge(ctx, n2, n4, "CALLS", nil); err != nil {
		t.Fatalf("InsertEdge: %v", err)
	}
	if _, err := s.InsertEdge(ctx, n4, n1, "CALLS", nil); err != nil {
		t.Fatalf("InsertEdge: %v", err)
	}

	cycles, err := s.FindCyclesLimited(ctx, n1, 5)
	if err != nil {
		t.Fatalf("FindCyclesLimited: %v", err)
	}
	if len(cycles) != 1 {
		t.Fatalf("want exactly 1 cycle for the single distinct start edge, got %d: %v", len(cycles), cycles)
	}
	// n3 < n4, so the branch closing through n3 is the canonical first.
	want := []int64{n1, n2, n3, n1}
	cycle := cycles[0]
	if len(cycle) != len(want) {
		t.Fatalf("want %v, got %v", want, cycle)
	}
	for i := range want {
		if cycle[i] != want[i] {
			t.Fatalf("want %v, got %v", want, cycle)
		}
	}
}

func TestFindCyclesLimitedNoCycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	buildChain(t, s, 3)

	seed, _ := s.InsertEntity(ctx, "node", "n", nil, nil)
	cycles, err := s.FindCyclesLimited(ctx, seed, 5)
	if err != nil {
		t.Fatalf("FindCyclesLimited: %v", err)
	}
	if len(cycles) != 0 {
		t.Fatalf("want no cycles from an isolated node, got %v", cycles)
	}
}
