// Package migration implements MigrationRuntime (SPEC_FULL.md §4.10):
// a Backend abstraction two storage implementors can satisfy, a
// DualWriter that mirrors writes from a base backend to a shadow
// backend with id translation, a ShadowRead comparison that never
// mutates state, and a Cutover state machine.
package migration

import (
	"context"
	"encoding/json"

	"github.com/kestrelgraph/sqlitegraph/graph"
	"github.com/kestrelgraph/sqlitegraph/pattern"
)

// Backend is the storage contract both the base and shadow side of a
// MigrationRuntime implement. graph.Store satisfies it via the
// StoreBackend adapter in this package; internal/memstore.Store
// satisfies it directly.
type Backend interface {
	InsertNode(ctx context.Context, kind, name string, filePath *string, data json.RawMessage) (int64, error)
	InsertEdge(ctx context.Context, fromID, toID int64, edgeType string, data json.RawMessage) (int64, error)
	GetNode(ctx context.Context, id int64) (graph.Entity, error)
	Neighbors(ctx context.Context, id int64, dir graph.Direction) ([]int64, error)
	BFS(ctx context.Context, start int64, depth int) ([]int64, error)
	KHop(ctx context.Context, node int64, depth int) ([]int64, error)
	NodeDegree(ctx context.Context, id int64, dir graph.Direction) (int, error)
	Chain(ctx context.Context, node int64, steps []graph.ChainStep) ([]int64, error)
	PatternSearch(ctx context.Context, seed int64, t pattern.Triple) ([]pattern.TripleMatch, error)
}

// StoreBackend adapts a *graph.Store to the Backend interface, since
// graph.Store's method names (InsertEntity, OutgoingIDs/IncomingIDs,
// BFSNeighbors, KHopOutgoing) predate and differ from Backend's
// storage-agnostic vocabulary.
type StoreBackend struct {
	Store *graph.Store
}

func (b StoreBackend) InsertNode(ctx context.Context, kind, name string, filePath *string, data json.RawMessage) (int64, error) {
	return b.Store.InsertEntity(ctx, kind, name, filePath, data)
}

func (b StoreBackend) InsertEdge(ctx context.Context, fromID, toID int64, edgeType string, data json.RawMessage) (int64, error) {
	return b.Store.InsertEdge(ctx, fromID, toID, edgeType, data)
}

func (b StoreBackend) GetNode(ctx context.Context, id int64) (graph.Entity, error) {
	return b.Store.GetEntity(ctx, id)
}

func (b StoreBackend) Neighbors(ctx context.Context, id int64, dir graph.Direction) ([]int64, error) {
	return b.Store.Neighbors(ctx, id, dir)
}

func (b StoreBackend) BFS(ctx context.Context, start int64, depth int) ([]int64, error) {
	return b.Store.BFSNeighbors(ctx, start, depth)
}

func (b StoreBackend) KHop(ctx context.Context, node int64, depth int) ([]int64, error) {
	return b.Store.KHopOutgoing(ctx, node, depth)
}

func (b StoreBackend) NodeDegree(ctx context.Context, id int64, dir graph.Direction) (int, error) {
	ids, err := b.Store.Neighbors(ctx, id, dir)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (b StoreBackend) Chain(ctx context.Context, node int64, steps []graph.ChainStep) ([]int64, error) {
	return b.Store.Chain(ctx, node, steps)
}

func (b StoreBackend) PatternSearch(ctx context.Context, seed int64, t pattern.Triple) ([]pattern.TripleMatch, error) {
	return pattern.New(b.Store).MatchTriple(ctx, seed, t)
}
