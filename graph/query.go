package graph

import (
	"context"
	"fmt"
	"sort"
)

// Neighbors returns neighbor ids reachable from id in the given
// direction, in canonical order, consulting the adjacency cache.
func (s *Store) Neighbors(ctx context.Context, id int64, dir Direction) ([]int64, error) {
	if dir == Outgoing {
		return s.OutgoingIDs(ctx, id)
	}
	return s.IncomingIDs(ctx, id)
}

// EdgesOfType returns the adjacent edges of id in direction dir whose
// EdgeType equals edgeType, in canonical order.
func (s *Store) EdgesOfType(ctx context.Context, id int64, dir Direction, edgeType string) ([]AdjacentEdge, error) {
	var adj []AdjacentEdge
	var err error
	if dir == Outgoing {
		adj, err = s.FetchOutgoing(ctx, id)
	} else {
		adj, err = s.FetchIncoming(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	out := adj[:0:0]
	for _, a := range adj {
		if a.EdgeType == edgeType {
			out = append(out, a)
		}
	}
	return out, nil
}

// HasPath reports whether b is reachable from a via outgoing edges
// within maxDepth hops (BFS, bounded).
func (s *Store) HasPath(ctx context.Context, a, b int64, maxDepth int) (bool, error) {
	if a == b {
		return true, nil
	}
	visited := map[int64]bool{a: true}
	frontier := []int64{a}
	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []int64
		for _, n := range frontier {
			ids, err := s.OutgoingIDs(ctx, n)
			if err != nil {
				return false, err
			}
			for _, id := range ids {
				if id == b {
					return true, nil
				}
				if !visited[id] {
					visited[id] = true
					next = append(next, id)
				}
			}
		}
		frontier = next
	}
	return false, nil
}

// KHopOutgoing returns the deduplicated, sorted set of node ids
// reachable from node via up to depth outgoing hops. The seed is not
// added as a starting member; it appears only when a cycle of at most
// depth hops leads back to it. depth <= 0 returns just the seed, per
// SPEC_FULL.md §8's boundary behavior.
func (s *Store) KHopOutgoing(ctx context.Context, node int64, depth int) ([]int64, error) {
	return s.kHop(ctx, node, depth, Outgoing, nil)
}

// KHopFiltered is the same k-hop expansion in direction dir, restricted
// to edges whose type is in allowedTypes (case-sensitive exact match); an empty
// allowedTypes means no restriction.
func (s *Store) KHopFiltered(ctx context.Context, node int64, depth int, dir Direction, allowedTypes []string) ([]int64, error) {
	var filter map[string]bool
	if len(allowedTypes) > 0 {
		filter = make(map[string]bool, len(allowedTypes))
		for _, t := range allowedTypes {
			filter[t] = true
		}
	}
	return s.kHop(ctx, node, depth, dir, filter)
}

func (s *Store) kHop(ctx context.Context, node int64, depth int, dir Direction, allowedTypes map[string]bool) ([]int64, error) {
	if depth <= 0 {
		return []int64{node}, nil
	}

	visited := map[int64]bool{node: true}
	result := map[int64]bool{}
	frontier := []int64{node}

	for d := 0; d < depth && len(frontier) > 0; d++ {
		var next []int64
		for _, n := range frontier {
			var adj []AdjacentEdge
			var err error
			if dir == Outgoing {
				adj, err = s.FetchOutgoing(ctx, n)
			} else {
				adj, err = s.FetchIncoming(ctx, n)
			}
			if err != nil {
				return nil, err
			}
			for _, a := range adj {
				if allowedTypes != nil && !allowedTypes[a.EdgeType] {
					continue
				}
				result[a.NeighborID] = true
				if !visited[a.NeighborID] {
					visited[a.NeighborID] = true
					next = append(next, a.NeighborID)
				}
			}
		}
		frontier = next
	}

	ids := make([]int64, 0, len(result))
	for id := range result {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// ChainStep is one step of a Chain walk: traverse in Direction dir,
// optionally restricted to a single EdgeType (empty means any type).
type ChainStep struct {
	Dir      Direction
	EdgeType string
}

// Chain walks node through steps in order; step i expands every node
// reached by step i-1 through edges matching that step, and the
// overall result is the deduplicated, sorted set of nodes reached after
// the final step.
func (s *Store) Chain(ctx context.Context, node int64, steps []ChainStep) ([]int64, error) {
	current := []int64{node}
	for _, step := range steps {
		seen := map[int64]bool{}
		var next []int64
		for _, n := range current {
			var adj []AdjacentEdge
			var err error
			if step.Dir == Outgoing {
				adj, err = s.FetchOutgoing(ctx, n)
			} else {
				adj, err = s.FetchIncoming(ctx, n)
			}
			if err != nil {
				return nil, err
			}
			for _, a := range adj {
				if step.EdgeType != "" && a.EdgeType != step.EdgeType {
					continue
				}
				if !seen[a.NeighborID] {
					seen[a.NeighborID] = true
					next = append(next, a.NeighborID)
				}
			}
		}
		current = next
	}
	sort.Slice(current, func(i, j int) bool { return current[i] < current[j] })
	return current, nil
}

// BFSNeighbors yields the start node first, then every node reachable
// via outgoing edges within depth hops, each visited at most once, in
// canonical fetch order at each hop.
func (s *Store) BFSNeighbors(ctx context.Context, start int64, depth int) ([]int64, error) {
	order := []int64{start}
	visited := map[int64]bool{start: true}
	frontier := []int64{start}

	for d := 0; d < depth && len(frontier) > 0; d++ {
		var next []int64
		for _, n := range frontier {
			ids, err := s.OutgoingIDs(ctx, n)
			if err != nil {
				return nil, err
			}
			for _, id := range ids {
				if !visited[id] {
					visited[id] = true
					order = append(order, id)
					next = append(next, id)
				}
			}
		}
		frontier = next
	}
	return order, nil
}

// ShortestPath performs a BFS from a, recording predecessors, and
// reconstructs the path to b. When multiple shortest paths exist, the
// one through the lexicographically smallest neighbor id at each
// branch wins, because candidates are visited in ascending canonical
// order and the first predecessor recorded for a node is kept.
func (s *Store) ShortestPath(ctx context.Context, a, b int64) ([]int64, error) {
	if a == b {
		return []int64{a}, nil
	}
	visited := map[int64]bool{a: true}
	pred := map[int64]int64{}
	frontier := []int64{a}

	found := false
	for len(frontier) > 0 && !found {
		var next []int64
		for _, n := range frontier {
			ids, err := s.OutgoingIDs(ctx, n)
			if err != nil {
				return nil, err
			}
			for _, id := range ids {
				if visited[id] {
					continue
				}
				visited[id] = true
				pred[id] = n
				if id == b {
					found = true
				}
				next = append(next, id)
			}
		}
		frontier = next
	}

	if !found {
		return nil, NewNotFoundError("graph.Store.ShortestPath", fmt.Errorf("no path from %d to %d", a, b))
	}

	var path []int64
	for cur := b; ; {
		path = append(path, cur)
		if cur == a {
			break
		}
		cur = pred[cur]
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// FindCyclesLimited is the supplemented cycle-detection operation
// (SPEC_FULL.md §8 S7): a bounded DFS from seed that stops descending
// past maxDepth and reports at most one cycle per distinct outgoing
// edge from seed, each as a node sequence ending back at seed, sorted
// lexicographically. Each first-hop branch is searched independently
// and abandoned the instant it closes back to seed, so two deeper
// paths that both happen to close through the same first hop never
// produce two cycles for that one start edge. Neighbors are visited in
// canonical fetch order so the cycle reported for a branch is
// deterministic.
func (s *Store) FindCyclesLimited(ctx context.Context, seed int64, maxDepth int) ([][]int64, error) {
	firstHop, err := s.OutgoingIDs(ctx, seed)
	if err != nil {
		return nil, err
	}

	// dfs walks from path's last node. restrict, when non-nil, narrows
	// the neighbors considered to exactly one id: used only on the
	// first hop from seed, so each call explores a single start edge's
	// branch in isolation and returns the instant that branch closes.
	var dfs func(path []int64, visited map[int64]bool, restrict *int64) ([]int64, error)
	dfs = func(path []int64, visited map[int64]bool, restrict *int64) ([]int64, error) {
		if len(path) > maxDepth {
			return nil, nil
		}
		current := path[len(path)-1]
		ids, err := s.OutgoingIDs(ctx, current)
		if err != nil {
			return nil, err
		}
		if restrict != nil {
			filtered := ids[:0:0]
			for _, id := range ids {
				if id == *restrict {
					filtered = append(filtered, id)
				}
			}
			ids = filtered
		}
		for _, next := range ids {
			if next == seed {
				cycle := make([]int64, len(path)+1)
				copy(cycle, path)
				cycle[len(path)] = seed
				return cycle, nil
			}
		}
		for _, next := range ids {
			if visited[next] {
				continue
			}
			visited[next] = true
			cycle, err := dfs(append(path, next), visited, nil)
			if err != nil {
				return nil, err
			}
			delete(visited, next)
			if cycle != nil {
				return cycle, nil
			}
		}
		return nil, nil
	}

	var cycles [][]int64
	for _, branchStart := range firstHop {
		restrict := branchStart
		cycle, err := dfs([]int64{seed}, map[int64]bool{seed: true}, &restrict)
		if err != nil {
			return nil, err
		}
		if cycle != nil {
			cycles = append(cycles, cycle)
		}
	}

	sort.Slice(cycles, func(i, j int) bool {
		a, b := cycles[i], cycles[j]
		for k := 0; k < len(a) && k < len(b); k++ {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return len(a) < len(b)
	})
	return cycles, nil
}
