// Package memstore is an in-memory, Go-map-backed second implementor
// of migration.Backend (SPEC_FULL.md §4.10's "Backend abstraction"
// expansion): useful as the shadow side of a MigrationRuntime in tests,
// and as a demonstration that the storage contract is genuinely opaque
// rather than implicitly sqlite-shaped. It does not attempt to model
// any on-disk binary format; it exists only to exercise the interface
// boundary.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/kestrelgraph/sqlitegraph/graph"
	"github.com/kestrelgraph/sqlitegraph/pattern"
)

type edgeRow struct {
	id       int64
	fromID   int64
	toID     int64
	edgeType string
	data     json.RawMessage
}

// Store is an in-memory Backend implementor. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	entities map[int64]graph.Entity
	edges    []edgeRow
	nextNode int64
	nextEdge int64
}

// New returns an empty Store.
func New() *Store {
	return &Store{entities: make(map[int64]graph.Entity)}
}

// InsertNode adds an entity and returns its freshly-assigned id.
func (s *Store) InsertNode(_ context.Context, kind, name string, filePath *string, data json.RawMessage) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextNode++
	id := s.nextNode
	s.entities[id] = graph.Entity{ID: id, Kind: kind, Name: name, FilePath: filePath, Data: data}
	return id, nil
}

// InsertEdge adds an edge and returns its freshly-assigned id.
func (s *Store) InsertEdge(_ context.Context, fromID, toID int64, edgeType string, data json.RawMessage) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entities[fromID]; !ok {
		return 0, graph.NewInvalidInputError("memstore.Store.InsertEdge", fmt.Errorf("no such entity %d", fromID))
	}
	if _, ok := s.entities[toID]; !ok {
		return 0, graph.NewInvalidInputError("memstore.Store.InsertEdge", fmt.Errorf("no such entity %d", toID))
	}
	s.nextEdge++
	id := s.nextEdge
	s.edges = append(s.edges, edgeRow{id: id, fromID: fromID, toID: toID, edgeType: edgeType, data: data})
	return id, nil
}

// GetNode returns the entity with the given id.
func (s *Store) GetNode(_ context.Context, id int64) (graph.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[id]
	if !ok {
		return graph.Entity{}, graph.NewNotFoundError("memstore.Store.GetNode", fmt.Errorf("no such entity %d", id))
	}
	return e, nil
}

// Neighbors returns id's neighbor ids in direction dir, in the same
// canonical (neighbor, edge_type, edge_id) order the sqlite backend
// uses, so ShadowRead's neighbor comparison is meaningful.
func (s *Store) Neighbors(_ context.Context, id int64, dir graph.Direction) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type adj struct {
		neighbor int64
		edgeType string
		edgeID   int64
	}
	var rows []adj
	for _, e := range s.edges {
		if dir == graph.Outgoing && e.fromID == id {
			rows = append(rows, adj{e.toID, e.edgeType, e.id})
		} else if dir == graph.Incoming && e.toID == id {
			rows = append(rows, adj{e.fromID, e.edgeType, e.id})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].neighbor != rows[j].neighbor {
			return rows[i].neighbor < rows[j].neighbor
		}
		if rows[i].edgeType != rows[j].edgeType {
			return rows[i].edgeType < rows[j].edgeType
		}
		return rows[i].edgeID < rows[j].edgeID
	})
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = r.neighbor
	}
	return out, nil
}

// BFS returns, starting with start, every node reached via outgoing
// edges within depth hops, visited at most once, in canonical order at
// each hop — matching graph.Store.BFSNeighbors.
func (s *Store) BFS(ctx context.Context, start int64, depth int) ([]int64, error) {
	order := []int64{start}
	visited := map[int64]bool{start: true}
	frontier := []int64{start}
	for d := 0; d < depth && len(frontier) > 0; d++ {
		var next []int64
		for _, n := range frontier {
			ids, err := s.Neighbors(ctx, n, graph.Outgoing)
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

// KHop returns the deduplicated, sorted set of nodes reachable from
// node within depth outgoing hops (node itself is not a starting member
// and appears only when a cycle leads back to it; depth <= 0 returns
// just node), matching graph.Store.KHopOutgoing.
func (s *Store) KHop(ctx context.Context, node int64, depth int) ([]int64, error) {
	if depth <= 0 {
		return []int64{node}, nil
	}
	visited := map[int64]bool{node: true}
	result := map[int64]bool{}
	frontier := []int64{node}
	for d := 0; d < depth && len(frontier) > 0; d++ {
		var next []int64
		for _, n := range frontier {
			ids, err := s.Neighbors(ctx, n, graph.Outgoing)
			if err != nil {
				return nil, err
			}
			for _, id := range ids {
				result[id] = true
				if !visited[id] {
					visited[id] = true
					next = append(next, id)
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

// NodeDegree returns the count of edges touching id in direction dir.
func (s *Store) NodeDegree(_ context.Context, id int64, dir graph.Direction) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.edges {
		if dir == graph.Outgoing && e.fromID == id {
			n++
		} else if dir == graph.Incoming && e.toID == id {
			n++
		}
	}
	return n, nil
}

// Chain walks node through steps, mirroring graph.Store.Chain.
func (s *Store) Chain(ctx context.Context, node int64, steps []graph.ChainStep) ([]int64, error) {
	current := []int64{node}
	for _, step := range steps {
		seen := map[int64]bool{}
		var next []int64
		for _, n := range current {
			ids, err := s.Neighbors(ctx, n, step.Dir)
			if err != nil {
				return nil, err
			}
			for _, id := range ids {
				if step.EdgeType != "" {
					if !s.edgeExists(n, id, step.Dir, step.EdgeType) {
						continue
					}
				}
				if !seen[id] {
					seen[id] = true
					next = append(next, id)
				}
			}
		}
		current = next
	}
	sort.Slice(current, func(i, j int) bool { return current[i] < current[j] })
	return current, nil
}

func (s *Store) edgeExists(from, to int64, dir graph.Direction, edgeType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.edges {
		if dir == graph.Outgoing && e.fromID == from && e.toID == to && e.edgeType == edgeType {
			return true
		}
		if dir == graph.Incoming && e.toID == from && e.fromID == to && e.edgeType == edgeType {
			return true
		}
	}
	return false
}

// PatternSearch evaluates a label/property-free Triple against this
// store, fulfilling the Backend contract's pattern_search member. Since
// an in-memory Store carries no labels or properties, a Triple with
// either filter is rejected as unsupported rather than silently
// ignored.
func (s *Store) PatternSearch(ctx context.Context, seed int64, t pattern.Triple) ([]pattern.TripleMatch, error) {
	const op = "memstore.Store.PatternSearch"
	if t.StartLabel != nil || t.EndLabel != nil || len(t.StartProps) > 0 || len(t.EndProps) > 0 {
		return nil, graph.NewInvalidInputError(op, fmt.Errorf("memstore does not carry labels/properties; label/property-filtered patterns are unsupported"))
	}

	neighbors, err := s.Neighbors(ctx, seed, t.Direction)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []pattern.TripleMatch
	seenNeighbor := map[int64]bool{}
	for _, n := range neighbors {
		if seenNeighbor[n] {
			continue
		}
		seenNeighbor[n] = true
		var from, to int64 = seed, n
		if t.Direction == graph.Incoming {
			from, to = n, seed
		}
		var edgeIDs []int64
		for _, e := range s.edges {
			if e.fromID == from && e.toID == to && e.edgeType == t.EdgeType {
				edgeIDs = append(edgeIDs, e.id)
			}
		}
		sort.Slice(edgeIDs, func(i, j int) bool { return edgeIDs[i] < edgeIDs[j] })
		for _, edgeID := range edgeIDs {
			matches = append(matches, pattern.TripleMatch{StartID: seed, EdgeID: edgeID, EndID: n})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.EdgeID != b.EdgeID {
			return a.EdgeID < b.EdgeID
		}
		return a.EndID < b.EndID
	})
	return matches, nil
}

// AllNodeIDs returns every entity id, ascending.
func (s *Store) AllNodeIDs() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0, len(s.entities))
	for id := range s.entities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
