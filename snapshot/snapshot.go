// Package snapshot implements SnapshotManager (SPEC_FULL.md §4.12):
// immutable point-in-time copies of a graph.Store's contents, with a
// read-only query surface equivalent to Store's.
package snapshot

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kestrelgraph/sqlitegraph/graph"
)

// Snapshot is an immutable copy of a graph's entities, edges, labels,
// and properties as of CreatedAt. Subsequent mutations on the source
// Store never alter an already-created Snapshot.
type Snapshot struct {
	ID        uuid.UUID
	CreatedAt time.Time

	entities map[int64]graph.Entity
	outgoing map[int64][]graph.AdjacentEdge
	incoming map[int64][]graph.AdjacentEdge
	labels   map[int64][]string
	props    map[int64][]graph.Property
}

// GetEntity returns the entity with the given id as it existed at
// snapshot time.
func (s *Snapshot) GetEntity(id int64) (graph.Entity, error) {
	e, ok := s.entities[id]
	if !ok {
		return graph.Entity{}, graph.NewNotFoundError("snapshot.Snapshot.GetEntity", fmt.Errorf("no such entity %d", id))
	}
	return e, nil
}

// Neighbors returns neighbor ids reached from id in direction dir, as
// of snapshot time, in canonical order.
func (s *Snapshot) Neighbors(id int64, dir graph.Direction) []int64 {
	adj := s.outgoing[id]
	if dir == graph.Incoming {
		adj = s.incoming[id]
	}
	out := make([]int64, len(adj))
	for i, a := range adj {
		out[i] = a.NeighborID
	}
	return out
}

// Labels returns the labels attached to id as of snapshot time.
func (s *Snapshot) Labels(id int64) []string {
	return append([]string(nil), s.labels[id]...)
}

// Properties returns the properties attached to id as of snapshot
// time.
func (s *Snapshot) Properties(id int64) []graph.Property {
	return append([]graph.Property(nil), s.props[id]...)
}

// Manager creates and lists Snapshots of a single graph.Store.
type Manager struct {
	mu        sync.Mutex
	store     *graph.Store
	snapshots []*Snapshot
}

// NewManager returns a Manager over store.
func NewManager(store *graph.Store) *Manager {
	return &Manager{store: store}
}

// CreateSnapshot captures the store's current entities, edges, labels,
// and properties as a new immutable Snapshot.
func (m *Manager) CreateSnapshot(ctx context.Context) (*Snapshot, error) {
	entities, err := m.store.AllEntities(ctx)
	if err != nil {
		return nil, err
	}
	edges, err := m.store.AllEdges(ctx)
	if err != nil {
		return nil, err
	}
	labels, err := m.store.AllLabels(ctx)
	if err != nil {
		return nil, err
	}
	props, err := m.store.AllProperties(ctx)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		ID:        uuid.New(),
		CreatedAt: time.Now(),
		entities:  make(map[int64]graph.Entity, len(entities)),
		outgoing:  make(map[int64][]graph.AdjacentEdge),
		incoming:  make(map[int64][]graph.AdjacentEdge),
		labels:    make(map[int64][]string),
		props:     make(map[int64][]graph.Property),
	}
	for _, e := range entities {
		snap.entities[e.ID] = e
	}
	for _, e := range edges {
		snap.outgoing[e.FromID] = append(snap.outgoing[e.FromID], graph.AdjacentEdge{NeighborID: e.ToID, EdgeType: e.EdgeType, EdgeID: e.ID})
		snap.incoming[e.ToID] = append(snap.incoming[e.ToID], graph.AdjacentEdge{NeighborID: e.FromID, EdgeType: e.EdgeType, EdgeID: e.ID})
	}
	for _, adj := range snap.outgoing {
		sortAdjacent(adj)
	}
	for _, adj := range snap.incoming {
		sortAdjacent(adj)
	}
	for _, l := range labels {
		snap.labels[l.EntityID] = append(snap.labels[l.EntityID], l.Label)
	}
	for _, p := range props {
		snap.props[p.EntityID] = append(snap.props[p.EntityID], p)
	}

	m.mu.Lock()
	m.snapshots = append(m.snapshots, snap)
	m.mu.Unlock()
	return snap, nil
}

// ListSnapshots returns every snapshot created so far, ordered by
// creation time.
func (m *Manager) ListSnapshots() []*Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Snapshot(nil), m.snapshots...)
}

func sortAdjacent(adj []graph.AdjacentEdge) {
	sort.Slice(adj, func(i, j int) bool {
		a, b := adj[i], adj[j]
		if a.NeighborID != b.NeighborID {
			return a.NeighborID < b.NeighborID
		}
		if a.EdgeType != b.EdgeType {
			return a.EdgeType < b.EdgeType
		}
		return a.EdgeID < b.EdgeID
	})
}
